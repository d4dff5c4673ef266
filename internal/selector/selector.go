// Package selector turns a raw actor dataset into the bounded, scored list of
// competitors that gets persisted.
package selector

import (
	"go.uber.org/zap"

	"github.com/JakeFAU/competitor-discovery/internal/competitor"
	"github.com/JakeFAU/competitor-discovery/internal/metrics"
)

// MaxResults caps the number of competitors kept from one dataset.
const MaxResults = 20

// InclusionReason is attached to every selected competitor.
const InclusionReason = "Algorithmically discovered as a related profile in this niche"

// Normalizer converts one raw item into a canonical record.
type Normalizer interface {
	Normalize(item competitor.RawItem) (competitor.Competitor, bool)
}

// Scorer assigns a confidence score to a selected competitor.
type Scorer interface {
	Score(record competitor.Competitor) float64
}

// Selection is the outcome of selecting from one dataset.
type Selection struct {
	Competitors  []competitor.Competitor
	Unrecognized int
	Truncated    int
}

// Selector normalizes, filters, truncates and scores dataset items.
type Selector struct {
	normalizer Normalizer
	scorer     Scorer
	logger     *zap.Logger
}

// New constructs a Selector. A nil scorer falls back to NewRandomScorer(nil).
func New(normalizer Normalizer, scorer Scorer, logger *zap.Logger) *Selector {
	if scorer == nil {
		scorer = NewRandomScorer(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{normalizer: normalizer, scorer: scorer, logger: logger}
}

// Select keeps the first MaxResults recognized items in input order.
// Unrecognized items are counted and skipped.
func (s *Selector) Select(items []competitor.RawItem) Selection {
	var sel Selection
	recognized := 0
	for _, item := range items {
		record, ok := s.normalizer.Normalize(item)
		if !ok {
			sel.Unrecognized++
			continue
		}
		recognized++
		if len(sel.Competitors) >= MaxResults {
			sel.Truncated++
			continue
		}
		record.ConfidenceScore = s.scorer.Score(record)
		record.InclusionReason = InclusionReason
		sel.Competitors = append(sel.Competitors, record)
	}

	metrics.ObserveRecords(metrics.RecordRecognized, recognized)
	metrics.ObserveRecords(metrics.RecordUnrecognized, sel.Unrecognized)
	metrics.ObserveRecords(metrics.RecordTruncated, sel.Truncated)
	s.logger.Debug("dataset selected",
		zap.Int("items", len(items)),
		zap.Int("selected", len(sel.Competitors)),
		zap.Int("unrecognized", sel.Unrecognized),
		zap.Int("truncated", sel.Truncated),
	)
	return sel
}
