package geofeed

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"skimguard/internal/model"
)

func floatPtr(v float64) *float64 { return &v }

func sampleInputs() ([]model.Detection, model.LocationEstimate, []model.UserReport) {
	ts := time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC)
	dets := []model.Detection{
		{ID: "d1", MAC: "aa:bb:cc:11:22:33", BSSID: "aa:bb:cc:11:22:33", RSSI: -28, Protocol: "wifi", RiskScore: 95, RiskLevel: model.RiskHigh, Timestamp: ts},
		{ID: "d2", MAC: "dd:ee:ff:99:88:77", BSSID: "dd:ee:ff:99:88:77", RSSI: -65, Protocol: "wifi", RiskScore: 45, RiskLevel: model.RiskMedium, Timestamp: ts},
	}
	est := model.LocationEstimate{Lat: floatPtr(38.834), Lon: floatPtr(-77.3056)}
	rpts := []model.UserReport{
		{Lat: 38.8, Lng: -77.3, Timestamp: ts, RiskLevel: "medium", LocationAccuracyM: floatPtr(12)},
		{Lat: 38.9, Lng: -77.2, Timestamp: ts},
	}
	return dets, est, rpts
}

func TestBuildOrdering(t *testing.T) {
	dets, est, rpts := sampleInputs()
	fc := Build(dets, est, rpts)
	if fc.Type != "FeatureCollection" {
		t.Fatalf("collection type: %q", fc.Type)
	}
	if len(fc.Features) != 4 {
		t.Fatalf("expected 4 features, got %d", len(fc.Features))
	}
	for i, want := range []string{"detection", "detection", "user_report", "user_report"} {
		if fc.Features[i].Properties.Source != want {
			t.Fatalf("feature %d source = %q, want %q", i, fc.Features[i].Properties.Source, want)
		}
	}
}

func TestBuildDetectionsShareEstimate(t *testing.T) {
	dets, est, _ := sampleInputs()
	fc := Build(dets, est, nil)
	for i, f := range fc.Features {
		if f.Geometry.Type != "Point" {
			t.Fatalf("feature %d geometry type: %q", i, f.Geometry.Type)
		}
		if *f.Geometry.Coordinates[0] != -77.3056 || *f.Geometry.Coordinates[1] != 38.834 {
			t.Fatalf("feature %d not at shared estimate: %v", i, f.Geometry.Coordinates)
		}
	}
	if fc.Features[0].Properties.RiskScore != 95 || fc.Features[0].Properties.RiskLevel != "high" {
		t.Fatalf("detection properties not copied: %+v", fc.Features[0].Properties)
	}
}

func TestBuildNullEstimate(t *testing.T) {
	dets, _, _ := sampleInputs()
	fc := Build(dets[:1], model.LocationEstimate{}, nil)
	coords := fc.Features[0].Geometry.Coordinates
	if coords[0] != nil || coords[1] != nil {
		t.Fatalf("expected null coordinates, got %v", coords)
	}
	data, err := json.Marshal(fc.Features[0].Geometry)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"type":"Point","coordinates":[null,null]}` {
		t.Fatalf("geometry encoding: %s", data)
	}
}

func TestBuildUserReportFeatures(t *testing.T) {
	_, est, rpts := sampleInputs()
	fc := Build(nil, est, rpts)
	first := fc.Features[0]
	if *first.Geometry.Coordinates[0] != -77.3 || *first.Geometry.Coordinates[1] != 38.8 {
		t.Fatalf("report geometry wrong: %v", first.Geometry.Coordinates)
	}
	if first.Properties.RiskScore != 1 || first.Properties.RiskLevel != "medium" {
		t.Fatalf("report properties wrong: %+v", first.Properties)
	}
	if first.Properties.LocationMetadata.AccuracyM == nil || *first.Properties.LocationMetadata.AccuracyM != 12 {
		t.Fatalf("accuracy not carried: %+v", first.Properties.LocationMetadata)
	}
	// Report without a level falls back to "user".
	if fc.Features[1].Properties.RiskLevel != "user" {
		t.Fatalf("default level wrong: %q", fc.Features[1].Properties.RiskLevel)
	}
}

func TestBuildIsPure(t *testing.T) {
	dets, est, rpts := sampleInputs()
	first := Build(dets, est, rpts)
	second := Build(dets, est, rpts)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Build is not deterministic for identical inputs")
	}
}

func TestBuildEmptyInputs(t *testing.T) {
	fc := Build(nil, model.LocationEstimate{}, nil)
	if len(fc.Features) != 0 {
		t.Fatalf("expected empty feature list, got %d", len(fc.Features))
	}
	data, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"type":"FeatureCollection","features":[]}` {
		t.Fatalf("empty collection encoding: %s", data)
	}
}
