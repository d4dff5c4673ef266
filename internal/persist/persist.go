// Package persist writes selected competitors to the configured store with
// per-record failure isolation.
package persist

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/competitor-discovery/internal/competitor"
	"github.com/JakeFAU/competitor-discovery/internal/metrics"
)

// RecordError describes one record that could not be written.
type RecordError struct {
	Handle   string              `json:"handle"`
	Platform competitor.Platform `json:"platform"`
	Error    string              `json:"error"`
}

// Result summarizes one Save call.
type Result struct {
	SavedCount int           `json:"savedCount"`
	Skipped    int           `json:"skipped"`
	Errors     []RecordError `json:"errors"`
}

// Upserter saves competitors one at a time.
type Upserter struct {
	store  competitor.Store
	logger *zap.Logger
}

// New constructs an Upserter over store.
func New(store competitor.Store, logger *zap.Logger) *Upserter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Upserter{store: store, logger: logger}
}

// Save upserts every record with a handle. A failed write is logged and
// recorded in Result.Errors; the remaining records are still attempted.
// Records without a handle are skipped and not counted as errors.
func (u *Upserter) Save(ctx context.Context, records []competitor.Competitor) Result {
	res := Result{Errors: []RecordError{}}
	for _, rec := range records {
		if rec.Handle == "" {
			res.Skipped++
			metrics.ObserveUpsert(metrics.UpsertSkipped)
			continue
		}
		if err := u.store.Upsert(ctx, rec); err != nil {
			u.logger.Error("competitor upsert failed",
				zap.String("handle", rec.Handle),
				zap.String("platform", string(rec.Platform)),
				zap.Error(err),
			)
			metrics.ObserveUpsert(metrics.UpsertFailed)
			res.Errors = append(res.Errors, RecordError{
				Handle:   rec.Handle,
				Platform: rec.Platform,
				Error:    err.Error(),
			})
			continue
		}
		metrics.ObserveUpsert(metrics.UpsertSaved)
		res.SavedCount++
	}
	return res
}
