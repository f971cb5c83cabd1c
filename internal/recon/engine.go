package recon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"skimguard/internal/detections"
	"skimguard/internal/model"
	"skimguard/internal/reasoning"
	"skimguard/internal/scan"
	"skimguard/internal/storage"
)

var (
	ErrEmptyBatch    = errors.New("empty scan batch")
	ErrNoAssessments = errors.New("reasoning service returned no assessments")
	ErrNoMatch       = errors.New("no assessment matched a scanned device")
)

// Engine drives one reasoning call per batch and reconciles the
// returned assessments against the original scans by device identity.
type Engine struct {
	assessor reasoning.Assessor
	store    *detections.Store
	archive  storage.Store
	logger   *slog.Logger
}

func NewEngine(assessor reasoning.Assessor, store *detections.Store, archive storage.Store, logger *slog.Logger) *Engine {
	return &Engine{
		assessor: assessor,
		store:    store,
		archive:  archive,
		logger:   logger,
	}
}

// Reconcile scores a validated batch. Exactly one external call is
// made; assessments that cannot be tied to a scan are skipped with a
// warning, and one Detection is appended per device that survives.
func (e *Engine) Reconcile(ctx context.Context, scans []model.ScanRecord) ([]model.DeviceRisk, error) {
	if len(scans) == 0 {
		return nil, ErrEmptyBatch
	}
	assessments, err := e.assessor.Assess(ctx, scans)
	if err != nil {
		return nil, fmt.Errorf("assess batch: %w", err)
	}
	if len(assessments) == 0 {
		return nil, ErrNoAssessments
	}

	out := make([]model.DeviceRisk, 0, len(assessments))
	seen := make(map[string]bool, len(assessments))
	for _, assess := range assessments {
		deviceID := scan.CanonicalMAC(assess.DeviceID)
		if deviceID == "" {
			if e.logger != nil {
				e.logger.Warn("assessment missing device_id, skipping")
			}
			continue
		}
		if seen[deviceID] {
			if e.logger != nil {
				e.logger.Warn("duplicate assessment for device, skipping", "device_id", deviceID)
			}
			continue
		}
		matched, ok := matchScan(scans, deviceID)
		if !ok {
			if e.logger != nil {
				e.logger.Warn("no scan found for assessment, skipping", "device_id", deviceID)
			}
			continue
		}
		seen[deviceID] = true

		score := clampScore(assess.RiskScore)
		level := model.RiskLevelFor(score)
		detection := model.Detection{
			ID:         uuid.NewString(),
			MAC:        matched.MAC,
			BSSID:      matched.BSSID,
			SSID:       matched.SSID,
			RSSI:       matched.RSSI,
			Protocol:   matched.Protocol,
			ModelScore: matched.ModelScore,
			RiskScore:  score,
			RiskLevel:  level,
			Timestamp:  matched.Timestamp,
		}
		if matched.Name != "" {
			detection.Extra = map[string]string{"name": matched.Name}
		}
		e.store.Append(detection)
		if e.archive != nil {
			if err := e.archive.SaveDetection(ctx, detection); err != nil && e.logger != nil {
				e.logger.Error("archive detection failed", "detection_id", detection.ID, "err", err)
			}
		}

		out = append(out, model.DeviceRisk{
			DetectionID: detection.ID,
			MAC:         matched.MAC,
			BSSID:       matched.BSSID,
			RiskScore:   score,
			RiskLevel:   level,
			AIComments:  comments(assess),
		})
	}
	if len(out) == 0 {
		return nil, ErrNoMatch
	}
	return out, nil
}

// matchScan finds the first scan whose bssid or mac equals the
// canonical device id.
func matchScan(scans []model.ScanRecord, deviceID string) (model.ScanRecord, bool) {
	for _, s := range scans {
		if s.BSSID == deviceID || s.MAC == deviceID {
			return s, true
		}
	}
	return model.ScanRecord{}, false
}

// clampScore clamps to [0,100] then truncates toward zero.
func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

func comments(a model.RiskAssessment) string {
	explanation := a.Explanation
	if explanation == "" {
		explanation = "No explanation"
	}
	recommendation := a.Recommendation
	if recommendation == "" {
		recommendation = "N/A"
	}
	pct := int(math.Round(a.Confidence * 100))
	return fmt.Sprintf("%s | Recommendation: %s | Confidence: %d%%", explanation, recommendation, pct)
}
