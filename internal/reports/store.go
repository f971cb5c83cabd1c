package reports

import (
	"sync"
	"time"

	"skimguard/internal/model"
)

// Store holds crowd-submitted reports in submission order. Append-only.
type Store struct {
	mu  sync.RWMutex
	buf []model.UserReport
}

func NewStore() *Store {
	return &Store{}
}

// Add normalizes defaults and appends the report, returning the stored
// form. Missing timestamps default to now UTC, missing risk levels to
// "medium".
func (s *Store) Add(r model.UserReport) model.UserReport {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	if r.RiskLevel == "" {
		r.RiskLevel = "medium"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, r)
	return r
}

func (s *Store) List() []model.UserReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.UserReport, len(s.buf))
	copy(out, s.buf)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buf)
}
