package web

import (
	"sync"
	"time"

	"codeberg.org/havenmon/sysmond/internal/metric"
)

// Store holds the most recent sample batch for the dashboard. The
// collection loop writes it once per tick; HTTP handlers read it.
type Store struct {
	mu        sync.RWMutex
	samples   []metric.Sample
	updatedAt time.Time
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Update(batch []metric.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = batch
	s.updatedAt = time.Now()
}

// Latest returns the stored batch and its timestamp. The zero time
// means no collection has completed yet.
func (s *Store) Latest() ([]metric.Sample, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.samples, s.updatedAt
}
