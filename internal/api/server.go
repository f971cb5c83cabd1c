package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"skimguard/internal/config"
	"skimguard/internal/detections"
	"skimguard/internal/geofeed"
	"skimguard/internal/geoloc"
	"skimguard/internal/model"
	"skimguard/internal/pipeline"
	"skimguard/internal/recon"
	"skimguard/internal/reports"
	"skimguard/internal/scan"
	"skimguard/internal/storage"
)

type Server struct {
	cfg        *config.Manager
	pipeline   *pipeline.Pipeline
	detections *detections.Store
	reports    *reports.Store
	latest     *geoloc.Latest
	archive    storage.Store
	logger     *slog.Logger
	version    string
}

type statusResponse struct {
	Status     string       `json:"status"`
	Time       string       `json:"time"`
	Version    string       `json:"version"`
	ConfigPath string       `json:"config_path"`
	API        apiStatus    `json:"api"`
	Ingest     ingestStatus `json:"ingest"`
	Detections int          `json:"detections"`
	Reports    int          `json:"reports"`
}

type apiStatus struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

type ingestStatus struct {
	Kafka   bool `json:"kafka"`
	Storage bool `json:"storage"`
}

func Start(ctx context.Context, cfg *config.Manager, p *pipeline.Pipeline, detectionStore *detections.Store, reportStore *reports.Store, latest *geoloc.Latest, archive storage.Store, logger *slog.Logger, version string) *http.Server {
	if cfg == nil {
		return nil
	}
	current := cfg.Get().API
	if !current.Enabled {
		if logger != nil {
			logger.Info("api disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("api enabled", "addr", current.Addr)
	}
	server := &Server{
		cfg:        cfg,
		pipeline:   p,
		detections: detectionStore,
		reports:    reportStore,
		latest:     latest,
		archive:    archive,
		logger:     logger,
		version:    version,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.handleHealth)
	mux.HandleFunc("/status", server.handleStatus)
	mux.HandleFunc("/api/detectwifi", server.handleDetectWifi)
	mux.HandleFunc("/api/detections", server.handleDetections)
	mux.HandleFunc("/api/risk-analysis/", server.handleRiskAnalysis)
	mux.HandleFunc("/api/geojson", server.handleGeoJSON)
	mux.HandleFunc("/api/report", server.handleReport)

	httpServer := &http.Server{Addr: current.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cfg := s.cfg.Get()
	writeJSON(w, http.StatusOK, statusResponse{
		Status:     "ok",
		Time:       time.Now().UTC().Format(time.RFC3339Nano),
		Version:    s.version,
		ConfigPath: s.cfg.Path(),
		API:        apiStatus{Enabled: cfg.API.Enabled, Addr: cfg.API.Addr},
		Ingest: ingestStatus{
			Kafka:   cfg.Ingest.Kafka.Enabled,
			Storage: cfg.Storage.Enabled,
		},
		Detections: s.detections.Len(),
		Reports:    s.reports.Len(),
	})
}

func (s *Server) handleDetectWifi(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 2<<20))
	if err != nil || len(body) == 0 {
		writeError(w, http.StatusBadRequest, "no scan data provided")
		return
	}
	var batch []scan.RawScan
	if err := json.Unmarshal(body, &batch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid scan payload: "+err.Error())
		return
	}
	risks, err := s.pipeline.Process(r.Context(), batch)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scan.ErrEmptyBatch) || errors.Is(err, scan.ErrInvalidScan) || errors.Is(err, recon.ErrEmptyBatch) {
			status = http.StatusBadRequest
		}
		if s.logger != nil {
			s.logger.Error("detectwifi failed", "status", status, "err", err)
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, risks)
}

func (s *Server) handleDetections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.detections.List())
}

func (s *Server) handleRiskAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/risk-analysis/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "detection not found")
		return
	}
	d, err := s.detections.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "detection not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"detection_id": id,
		"stored":       d,
	})
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	collection := geofeed.Build(s.detections.List(), s.latest.Get(), s.reports.List())
	writeJSON(w, http.StatusOK, collection)
}

type reportRequest struct {
	Lat               *float64 `json:"lat"`
	Lng               *float64 `json:"lng"`
	Timestamp         string   `json:"timestamp,omitempty"`
	LocationAccuracyM *float64 `json:"location_accuracy_m,omitempty"`
	Evidence          string   `json:"evidence,omitempty"`
	RiskLevel         string   `json:"risk_level,omitempty"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid report payload")
		return
	}
	var req reportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid report payload: "+err.Error())
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}
	report := model.UserReport{
		Lat:               *req.Lat,
		Lng:               *req.Lng,
		LocationAccuracyM: req.LocationAccuracyM,
		Evidence:          req.Evidence,
		RiskLevel:         req.RiskLevel,
	}
	if req.Timestamp != "" {
		if ts, err := scan.ParseTimestamp(req.Timestamp); err == nil {
			report.Timestamp = ts.UTC()
		}
	}
	stored := s.reports.Add(report)
	if s.archive != nil {
		if err := s.archive.SaveReport(r.Context(), stored); err != nil && s.logger != nil {
			s.logger.Error("archive report failed", "err", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"risk_level": stored.RiskLevel,
		"received":   stored,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
