package geoloc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"skimguard/internal/config"
	"skimguard/internal/model"
)

// Selector estimates the scanner position from the strongest access
// points in a batch. Geolocation is best-effort: every failure mode
// degrades to a null estimate and never surfaces to the caller.
type Selector struct {
	endpoint string
	apiKey   string
	maxAPs   int
	http     *http.Client
	logger   *slog.Logger
}

func NewSelector(cfg config.GeolocationConfig, logger *slog.Logger) *Selector {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	maxAPs := cfg.MaxAccessPoints
	if maxAPs <= 0 {
		maxAPs = 3
	}
	return &Selector{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		maxAPs:   maxAPs,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type AccessPoint struct {
	MacAddress     string `json:"macAddress"`
	SignalStrength int    `json:"signalStrength"`
}

type locateRequest struct {
	WifiAccessPoints []AccessPoint `json:"wifiAccessPoints"`
}

type locateResponse struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
	Accuracy float64 `json:"accuracy"`
}

// Locate returns a null estimate without any external call when no
// API key is configured or the signal set is empty.
func (s *Selector) Locate(ctx context.Context, scans []model.ScanRecord) model.LocationEstimate {
	if s.apiKey == "" || len(scans) == 0 {
		return model.LocationEstimate{}
	}
	payload := locateRequest{WifiAccessPoints: SelectStrongest(scans, s.maxAPs)}
	body, err := json.Marshal(payload)
	if err != nil {
		return model.LocationEstimate{}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"?key="+url.QueryEscape(s.apiKey), bytes.NewReader(body))
	if err != nil {
		return model.LocationEstimate{}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("geolocation call failed", "err", err)
		}
		return model.LocationEstimate{}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return model.LocationEstimate{}
	}
	if resp.StatusCode != http.StatusOK {
		if s.logger != nil {
			s.logger.Warn("geolocation status not ok", "status", resp.StatusCode)
		}
		return model.LocationEstimate{}
	}
	var parsed locateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if s.logger != nil {
			s.logger.Warn("geolocation parse failed", "err", err)
		}
		return model.LocationEstimate{}
	}
	lat := parsed.Location.Lat
	lon := parsed.Location.Lng
	return model.LocationEstimate{Lat: &lat, Lon: &lon}
}

// SelectStrongest picks at most max signals ordered by RSSI descending.
// The sort is stable so equal-strength signals keep their scan order.
func SelectStrongest(scans []model.ScanRecord, max int) []AccessPoint {
	sorted := make([]model.ScanRecord, len(scans))
	copy(sorted, scans)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RSSI > sorted[j].RSSI
	})
	if len(sorted) > max {
		sorted = sorted[:max]
	}
	out := make([]AccessPoint, 0, len(sorted))
	for _, s := range sorted {
		out = append(out, AccessPoint{MacAddress: s.BSSID, SignalStrength: s.RSSI})
	}
	return out
}
