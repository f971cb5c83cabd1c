package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"skimguard/internal/config"
	"skimguard/internal/model"
)

// Store is the optional durable archive behind the in-memory stores.
// The in-memory stores stay authoritative for reads; the archive only
// receives write-through copies.
type Store interface {
	Init(ctx context.Context) error
	Close() error
	SaveDetection(ctx context.Context, d model.Detection) error
	SaveReport(ctx context.Context, r model.UserReport) error
}

func NewStore(cfg config.StorageConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func encodeJSON(value any) string {
	data, _ := json.Marshal(value)
	return string(data)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
