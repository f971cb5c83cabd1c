package geofeed

import (
	"time"

	"skimguard/internal/model"
)

type Geometry struct {
	Type        string      `json:"type"`
	Coordinates [2]*float64 `json:"coordinates"`
}

type LocationMetadata struct {
	AccuracyM *float64 `json:"accuracy_m"`
}

type Properties struct {
	RiskLevel        string           `json:"risk_level"`
	RiskScore        int              `json:"risk_score"`
	Source           string           `json:"source"`
	Reports          []any            `json:"reports"`
	LastSeenAt       time.Time        `json:"last_seen_at"`
	LocationMetadata LocationMetadata `json:"location_metadata"`
}

type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Build merges stored detections, the latest location estimate, and
// crowd reports into one feature collection. Pure function of its
// inputs: detections come first in insertion order (all sharing the
// single estimated position), then reports at their own coordinates.
func Build(dets []model.Detection, estimate model.LocationEstimate, userReports []model.UserReport) FeatureCollection {
	features := make([]Feature, 0, len(dets)+len(userReports))
	for _, d := range dets {
		features = append(features, Feature{
			Type:     "Feature",
			Geometry: Geometry{Type: "Point", Coordinates: [2]*float64{estimate.Lon, estimate.Lat}},
			Properties: Properties{
				RiskLevel:  string(d.RiskLevel),
				RiskScore:  d.RiskScore,
				Source:     "detection",
				Reports:    []any{d},
				LastSeenAt: d.Timestamp,
			},
		})
	}
	for _, r := range userReports {
		lng := r.Lng
		lat := r.Lat
		level := r.RiskLevel
		if level == "" {
			level = "user"
		}
		features = append(features, Feature{
			Type:     "Feature",
			Geometry: Geometry{Type: "Point", Coordinates: [2]*float64{&lng, &lat}},
			Properties: Properties{
				RiskLevel:        level,
				RiskScore:        1,
				Source:           "user_report",
				Reports:          []any{r},
				LastSeenAt:       r.Timestamp,
				LocationMetadata: LocationMetadata{AccuracyM: r.LocationAccuracyM},
			},
		})
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}
