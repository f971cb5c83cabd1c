package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"skimguard/internal/config"
	"skimguard/internal/detections"
	"skimguard/internal/geofeed"
	"skimguard/internal/geoloc"
	"skimguard/internal/model"
	"skimguard/internal/pipeline"
	"skimguard/internal/recon"
	"skimguard/internal/reports"
)

type stubAssessor struct {
	assessments []model.RiskAssessment
	err         error
}

func (s *stubAssessor) Assess(_ context.Context, _ []model.ScanRecord) ([]model.RiskAssessment, error) {
	return s.assessments, s.err
}

func newTestServer(stub *stubAssessor) *Server {
	detectionStore := detections.NewStore()
	reportStore := reports.NewStore()
	latest := geoloc.NewLatest()
	engine := recon.NewEngine(stub, detectionStore, nil, nil)
	selector := geoloc.NewSelector(config.GeolocationConfig{}, nil)
	return &Server{
		cfg:        config.NewStaticManager(config.DefaultConfig()),
		pipeline:   pipeline.New(engine, selector, latest, nil),
		detections: detectionStore,
		reports:    reportStore,
		latest:     latest,
		version:    "test",
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubAssessor{})
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" || body["time"] == "" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestDetectWifiFlow(t *testing.T) {
	srv := newTestServer(&stubAssessor{assessments: []model.RiskAssessment{{
		DeviceID:       "AA:BB:CC:11:22:33",
		RiskScore:      95,
		Confidence:     0.97,
		Explanation:    "strong nearby beacon",
		Recommendation: "Inspect immediately",
	}}})

	payload := `[{"timestamp":"2026-02-23T12:00:00Z","mac":"AA:BB:CC:11:22:33","bssid":"AA:BB:CC:11:22:33","rssi":-28,"protocol":"wifi"}]`
	rec := httptest.NewRecorder()
	srv.handleDetectWifi(rec, httptest.NewRequest(http.MethodPost, "/api/detectwifi", strings.NewReader(payload)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var risks []model.DeviceRisk
	if err := json.Unmarshal(rec.Body.Bytes(), &risks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(risks) != 1 || risks[0].RiskLevel != model.RiskHigh || !strings.Contains(risks[0].AIComments, "97%") {
		t.Fatalf("unexpected risks: %+v", risks)
	}

	// Stored detection is visible and addressable.
	rec = httptest.NewRecorder()
	srv.handleDetections(rec, httptest.NewRequest(http.MethodGet, "/api/detections", nil))
	var stored []model.Detection
	if err := json.Unmarshal(rec.Body.Bytes(), &stored); err != nil {
		t.Fatalf("decode detections: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != risks[0].DetectionID {
		t.Fatalf("detection not stored: %+v", stored)
	}

	rec = httptest.NewRecorder()
	srv.handleRiskAnalysis(rec, httptest.NewRequest(http.MethodGet, "/api/risk-analysis/"+risks[0].DetectionID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("risk-analysis status %d", rec.Code)
	}
}

func TestDetectWifiBadRequests(t *testing.T) {
	srv := newTestServer(&stubAssessor{})

	rec := httptest.NewRecorder()
	srv.handleDetectWifi(rec, httptest.NewRequest(http.MethodPost, "/api/detectwifi", strings.NewReader("")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty body: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.handleDetectWifi(rec, httptest.NewRequest(http.MethodPost, "/api/detectwifi", strings.NewReader("[]")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty batch: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.handleDetectWifi(rec, httptest.NewRequest(http.MethodPost, "/api/detectwifi", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid json: status %d", rec.Code)
	}
}

func TestDetectWifiReasoningFailure(t *testing.T) {
	srv := newTestServer(&stubAssessor{err: context.DeadlineExceeded})
	payload := `[{"mac":"aa:bb:cc:11:22:33","bssid":"aa:bb:cc:11:22:33","rssi":-28,"protocol":"wifi"}]`
	rec := httptest.NewRecorder()
	srv.handleDetectWifi(rec, httptest.NewRequest(http.MethodPost, "/api/detectwifi", strings.NewReader(payload)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestDetectWifiNoMatch(t *testing.T) {
	srv := newTestServer(&stubAssessor{assessments: []model.RiskAssessment{{
		DeviceID: "99:99:99:99:99:99", RiskScore: 80, Confidence: 0.9,
	}}})
	payload := `[{"mac":"aa:bb:cc:11:22:33","bssid":"aa:bb:cc:11:22:33","rssi":-28,"protocol":"wifi"}]`
	rec := httptest.NewRecorder()
	srv.handleDetectWifi(rec, httptest.NewRequest(http.MethodPost, "/api/detectwifi", strings.NewReader(payload)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestRiskAnalysisNotFound(t *testing.T) {
	srv := newTestServer(&stubAssessor{})
	rec := httptest.NewRecorder()
	srv.handleRiskAnalysis(rec, httptest.NewRequest(http.MethodGet, "/api/risk-analysis/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestReportThenGeoJSON(t *testing.T) {
	srv := newTestServer(&stubAssessor{})

	rec := httptest.NewRecorder()
	srv.handleReport(rec, httptest.NewRequest(http.MethodPost, "/api/report", strings.NewReader(`{"lat":38.8,"lng":-77.3}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("report status %d: %s", rec.Code, rec.Body.String())
	}
	var reportResp struct {
		Status    string           `json:"status"`
		RiskLevel string           `json:"risk_level"`
		Received  model.UserReport `json:"received"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &reportResp); err != nil {
		t.Fatalf("decode report response: %v", err)
	}
	if reportResp.Status != "ok" || reportResp.RiskLevel != "medium" {
		t.Fatalf("unexpected report response: %+v", reportResp)
	}
	if reportResp.Received.Timestamp.IsZero() {
		t.Fatalf("timestamp not defaulted")
	}

	rec = httptest.NewRecorder()
	srv.handleGeoJSON(rec, httptest.NewRequest(http.MethodGet, "/api/geojson", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("geojson status %d", rec.Code)
	}
	var fc geofeed.FeatureCollection
	if err := json.Unmarshal(rec.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decode collection: %v", err)
	}
	if len(fc.Features) == 0 {
		t.Fatalf("empty feature collection")
	}
	last := fc.Features[len(fc.Features)-1]
	if last.Properties.Source != "user_report" {
		t.Fatalf("last feature source %q", last.Properties.Source)
	}
	if *last.Geometry.Coordinates[0] != -77.3 || *last.Geometry.Coordinates[1] != 38.8 {
		t.Fatalf("last feature geometry %v", last.Geometry.Coordinates)
	}
}

func TestReportMissingCoordinates(t *testing.T) {
	srv := newTestServer(&stubAssessor{})
	rec := httptest.NewRecorder()
	srv.handleReport(rec, httptest.NewRequest(http.MethodPost, "/api/report", strings.NewReader(`{"lat":38.8}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}
