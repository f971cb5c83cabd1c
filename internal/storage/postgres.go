package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"skimguard/internal/model"
)

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/skimguard?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS detections (
			id UUID PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			mac TEXT NOT NULL,
			bssid TEXT NOT NULL,
			ssid TEXT,
			rssi INTEGER NOT NULL,
			protocol TEXT NOT NULL,
			model_score DOUBLE PRECISION,
			risk_score INTEGER NOT NULL,
			risk_level TEXT NOT NULL,
			extra_json JSONB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_bssid ON detections(bssid)`,
		`CREATE TABLE IF NOT EXISTS user_reports (
			id BIGSERIAL PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			accuracy_m DOUBLE PRECISION,
			evidence TEXT,
			risk_level TEXT NOT NULL,
			received_at TIMESTAMPTZ NOT NULL
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

func (s *postgresStore) SaveDetection(ctx context.Context, d model.Detection) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO detections (id, ts, mac, bssid, ssid, rssi, protocol, model_score, risk_score, risk_level, extra_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
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

func (s *postgresStore) SaveReport(ctx context.Context, r model.UserReport) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_reports (ts, lat, lng, accuracy_m, evidence, risk_level, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
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
