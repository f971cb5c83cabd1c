package scan

import (
	"errors"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestValidateEmptyBatch(t *testing.T) {
	if _, err := Validate(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
	if _, err := Validate([]RawScan{}); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestValidateMissingFields(t *testing.T) {
	base := RawScan{
		MAC:      "AA:BB:CC:11:22:33",
		BSSID:    "AA:BB:CC:11:22:33",
		RSSI:     intPtr(-40),
		Protocol: "wifi",
	}

	missingMAC := base
	missingMAC.MAC = ""
	if _, err := Validate([]RawScan{missingMAC}); !errors.Is(err, ErrInvalidScan) {
		t.Fatalf("missing mac: expected ErrInvalidScan, got %v", err)
	}

	missingBSSID := base
	missingBSSID.BSSID = "  "
	if _, err := Validate([]RawScan{missingBSSID}); !errors.Is(err, ErrInvalidScan) {
		t.Fatalf("missing bssid: expected ErrInvalidScan, got %v", err)
	}

	missingRSSI := base
	missingRSSI.RSSI = nil
	if _, err := Validate([]RawScan{missingRSSI}); !errors.Is(err, ErrInvalidScan) {
		t.Fatalf("missing rssi: expected ErrInvalidScan, got %v", err)
	}

	missingProtocol := base
	missingProtocol.Protocol = ""
	if _, err := Validate([]RawScan{missingProtocol}); !errors.Is(err, ErrInvalidScan) {
		t.Fatalf("missing protocol: expected ErrInvalidScan, got %v", err)
	}
}

func TestValidateCanonicalizes(t *testing.T) {
	out, err := Validate([]RawScan{{
		Timestamp: "2026-02-23T12:34:56Z",
		MAC:       " AA:BB:CC:11:22:33: ",
		BSSID:     "DD:EE:FF:99:88:77-",
		RSSI:      intPtr(-28),
		Protocol:  "wifi",
	}})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if out[0].MAC != "aa:bb:cc:11:22:33" {
		t.Fatalf("mac not canonical: %q", out[0].MAC)
	}
	if out[0].BSSID != "dd:ee:ff:99:88:77" {
		t.Fatalf("bssid not canonical: %q", out[0].BSSID)
	}
	if out[0].Timestamp.Year() != 2026 {
		t.Fatalf("timestamp not parsed: %v", out[0].Timestamp)
	}
}

func TestValidatePreservesOrder(t *testing.T) {
	out, err := Validate([]RawScan{
		{MAC: "aa:aa:aa:aa:aa:01", BSSID: "aa:aa:aa:aa:aa:01", RSSI: intPtr(-80), Protocol: "wifi"},
		{MAC: "aa:aa:aa:aa:aa:02", BSSID: "aa:aa:aa:aa:aa:02", RSSI: intPtr(-30), Protocol: "ble"},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if out[0].BSSID != "aa:aa:aa:aa:aa:01" || out[1].BSSID != "aa:aa:aa:aa:aa:02" {
		t.Fatalf("order not preserved: %v", out)
	}
}

func TestParseTimestampUnix(t *testing.T) {
	ts, err := ParseTimestamp("1767225600")
	if err != nil {
		t.Fatalf("unix seconds: %v", err)
	}
	if ts.Year() != 2026 {
		t.Fatalf("unexpected year: %d", ts.Year())
	}
	if _, err := ParseTimestamp("not-a-time"); err == nil {
		t.Fatalf("expected error for garbage timestamp")
	}
}
