package geoloc

import (
	"sync"

	"skimguard/internal/model"
)

// Latest retains the most recent location estimate. Only the newest
// value matters; history is not kept.
type Latest struct {
	mu  sync.RWMutex
	est model.LocationEstimate
}

func NewLatest() *Latest {
	return &Latest{}
}

func (l *Latest) Set(est model.LocationEstimate) {
	l.mu.Lock()
	l.est = est
	l.mu.Unlock()
}

func (l *Latest) Get() model.LocationEstimate {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.est
}
