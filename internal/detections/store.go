package detections

import (
	"errors"
	"sync"

	"skimguard/internal/model"
)

var ErrNotFound = errors.New("detection not found")

// Store is the process-lifetime record of reconciled detections.
// Append-only: entries are never mutated or removed, and List returns
// them in insertion order. Appends are atomic with respect to reads.
type Store struct {
	mu   sync.RWMutex
	buf  []model.Detection
	byID map[string]int
}

func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

func (s *Store) Append(d model.Detection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[d.ID] = len(s.buf)
	s.buf = append(s.buf, d)
}

func (s *Store) List() []model.Detection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Detection, len(s.buf))
	copy(out, s.buf)
	return out
}

func (s *Store) Get(id string) (model.Detection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return model.Detection{}, ErrNotFound
	}
	return s.buf[idx], nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buf)
}
