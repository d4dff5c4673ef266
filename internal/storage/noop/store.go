// Package noop provides the logging-only store used when no persistence
// backend is configured.
package noop

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/competitor-discovery/internal/competitor"
)

// Store rejects every write with competitor.ErrStoreUnavailable.
type Store struct {
	logger *zap.Logger
}

// New creates a Store.
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger}
}

// Upsert logs the dropped record and returns competitor.ErrStoreUnavailable.
func (s *Store) Upsert(_ context.Context, record competitor.Competitor) error {
	s.logger.Warn("store not configured; dropping competitor",
		zap.String("handle", record.Handle),
		zap.String("platform", string(record.Platform)),
	)
	return competitor.ErrStoreUnavailable
}

// Close does nothing.
func (s *Store) Close() {}
