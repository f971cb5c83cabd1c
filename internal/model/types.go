package model

import "time"

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskLevelFor maps a clamped risk score onto the fixed thresholds.
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score >= 70:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ScanRecord is one validated wireless observation. MAC and BSSID are
// canonical lowercase; the reconciliation identity is BSSID, falling
// back to MAC.
type ScanRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	MAC        string    `json:"mac"`
	Name       string    `json:"name,omitempty"`
	BSSID      string    `json:"bssid"`
	SSID       string    `json:"ssid,omitempty"`
	RSSI       int       `json:"rssi"`
	Protocol   string    `json:"protocol"`
	ModelScore *float64  `json:"model_score,omitempty"`
}

// DeviceID returns the reconciliation identity of the scanned device.
func (s ScanRecord) DeviceID() string {
	if s.BSSID != "" {
		return s.BSSID
	}
	return s.MAC
}

// RiskAssessment is one element of the external reasoning response.
// It exists only for the duration of a single reconciliation.
type RiskAssessment struct {
	DeviceID       string  `json:"device_id"`
	RiskScore      float64 `json:"risk_score"`
	Confidence     float64 `json:"confidence"`
	Explanation    string  `json:"explanation"`
	Recommendation string  `json:"recommendation"`
}

// Detection is a reconciled, immutable record of one assessed device.
type Detection struct {
	ID         string            `json:"id"`
	MAC        string            `json:"mac"`
	BSSID      string            `json:"bssid"`
	SSID       string            `json:"ssid,omitempty"`
	RSSI       int               `json:"rssi"`
	Protocol   string            `json:"protocol"`
	ModelScore *float64          `json:"model_score,omitempty"`
	RiskScore  int               `json:"risk_score"`
	RiskLevel  RiskLevel         `json:"risk_level"`
	Timestamp  time.Time         `json:"timestamp"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// DeviceRisk is the per-device reconciliation result returned to the
// caller, in the order assessments came back.
type DeviceRisk struct {
	DetectionID string    `json:"detection_id"`
	MAC         string    `json:"mac"`
	BSSID       string    `json:"bssid"`
	RiskScore   int       `json:"risk_score"`
	RiskLevel   RiskLevel `json:"risk_level"`
	AIComments  string    `json:"ai_comments"`
}

// LocationEstimate is the scanner position derived from the strongest
// access points. Nil coordinates mean no estimate was possible.
type LocationEstimate struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// UserReport is a crowd-submitted sighting at a known position.
type UserReport struct {
	Lat               float64   `json:"lat"`
	Lng               float64   `json:"lng"`
	Timestamp         time.Time `json:"timestamp"`
	LocationAccuracyM *float64  `json:"location_accuracy_m,omitempty"`
	Evidence          string    `json:"evidence,omitempty"`
	RiskLevel         string    `json:"risk_level"`
}
