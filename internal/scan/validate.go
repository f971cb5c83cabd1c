package scan

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"skimguard/internal/model"
)

var (
	ErrEmptyBatch  = errors.New("scan batch is empty")
	ErrInvalidScan = errors.New("invalid scan record")
)

// RawScan is one unvalidated observation as submitted by a scanner.
// RSSI is a pointer so a missing field is distinguishable from 0 dBm.
type RawScan struct {
	Timestamp  string   `json:"timestamp"`
	MAC        string   `json:"mac"`
	Name       string   `json:"name,omitempty"`
	BSSID      string   `json:"bssid"`
	SSID       string   `json:"ssid,omitempty"`
	RSSI       *int     `json:"rssi"`
	Protocol   string   `json:"protocol"`
	ModelScore *float64 `json:"model_score,omitempty"`
}

// Validate normalizes a raw batch into ScanRecords, preserving order.
// The batch must be non-empty and every record must carry mac, bssid,
// rssi and protocol.
func Validate(raw []RawScan) ([]model.ScanRecord, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyBatch
	}
	out := make([]model.ScanRecord, 0, len(raw))
	for i, r := range raw {
		mac := CanonicalMAC(r.MAC)
		bssid := CanonicalMAC(r.BSSID)
		if mac == "" {
			return nil, fmt.Errorf("%w: record %d missing mac", ErrInvalidScan, i)
		}
		if bssid == "" {
			return nil, fmt.Errorf("%w: record %d missing bssid", ErrInvalidScan, i)
		}
		if r.RSSI == nil {
			return nil, fmt.Errorf("%w: record %d missing rssi", ErrInvalidScan, i)
		}
		protocol := strings.TrimSpace(r.Protocol)
		if protocol == "" {
			return nil, fmt.Errorf("%w: record %d missing protocol", ErrInvalidScan, i)
		}
		ts := time.Now().UTC()
		if strings.TrimSpace(r.Timestamp) != "" {
			parsed, err := ParseTimestamp(r.Timestamp)
			if err != nil {
				return nil, fmt.Errorf("%w: record %d: %v", ErrInvalidScan, i, err)
			}
			ts = parsed.UTC()
		}
		out = append(out, model.ScanRecord{
			Timestamp:  ts,
			MAC:        mac,
			Name:       strings.TrimSpace(r.Name),
			BSSID:      bssid,
			SSID:       strings.TrimSpace(r.SSID),
			RSSI:       *r.RSSI,
			Protocol:   protocol,
			ModelScore: r.ModelScore,
		})
	}
	return out, nil
}

// CanonicalMAC lowercases a MAC/BSSID and strips surrounding space and
// trailing separators, so identities compare by exact string equality.
func CanonicalMAC(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	return strings.TrimRight(v, ":-")
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z0700",
}

func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if isNumeric(value) {
		if ts, err := parseUnix(value); err == nil {
			return ts, nil
		}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %q", value)
}

func isNumeric(value string) bool {
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return len(value) > 0
}

func parseUnix(value string) (time.Time, error) {
	if len(value) >= 13 {
		ms, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(0, ms*int64(time.Millisecond)).UTC(), nil
	}
	sec, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0).UTC(), nil
}
