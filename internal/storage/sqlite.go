package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"skimguard/internal/model"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:skimguard.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS detections (
			id TEXT PRIMARY KEY,
			ts TEXT NOT NULL,
			mac TEXT NOT NULL,
			bssid TEXT NOT NULL,
			ssid TEXT,
			rssi INTEGER NOT NULL,
			protocol TEXT NOT NULL,
			model_score REAL,
			risk_score INTEGER NOT NULL,
			risk_level TEXT NOT NULL,
			extra_json TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_bssid ON detections(bssid)`,
		`CREATE TABLE IF NOT EXISTS user_reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			lat REAL NOT NULL,
			lng REAL NOT NULL,
			accuracy_m REAL,
			evidence TEXT,
			risk_level TEXT NOT NULL,
			received_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_reports_ts ON user_reports(ts)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) SaveDetection(ctx context.Context, d model.Detection) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO detections (id, ts, mac, bssid, ssid, rssi, protocol, model_score, risk_score, risk_level, extra_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.Timestamp.UTC(),
		d.MAC,
		d.BSSID,
		d.SSID,
		d.RSSI,
		d.Protocol,
		d.ModelScore,
		d.RiskScore,
		string(d.RiskLevel),
		encodeJSON(d.Extra),
	)
	return err
}

func (s *sqliteStore) SaveReport(ctx context.Context, r model.UserReport) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_reports (ts, lat, lng, accuracy_m, evidence, risk_level, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Timestamp.UTC(),
		r.Lat,
		r.Lng,
		r.LocationAccuracyM,
		r.Evidence,
		r.RiskLevel,
		nowUTC(),
	)
	return err
}
