package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/competitor-discovery/internal/competitor"
)

// CompetitorStore provides an in-memory upsert store for development/testing.
type CompetitorStore struct {
	mu   sync.RWMutex
	rows map[string]competitor.Competitor
}

// NewCompetitorStore constructs a CompetitorStore.
func NewCompetitorStore() *CompetitorStore {
	return &CompetitorStore{rows: make(map[string]competitor.Competitor)}
}

// Upsert inserts the record or overwrites every field of the existing row
// with the same (handle, platform).
func (s *CompetitorStore) Upsert(_ context.Context, record competitor.Competitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[record.Key()] = record
	return nil
}

// Get fetches a row by its identity.
func (s *CompetitorStore) Get(handle string, platform competitor.Platform) (competitor.Competitor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rows[competitor.Competitor{Handle: handle, Platform: platform}.Key()]
	return rec, ok
}

// Len returns the number of stored rows.
func (s *CompetitorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Close is a no-op.
func (s *CompetitorStore) Close() {}
