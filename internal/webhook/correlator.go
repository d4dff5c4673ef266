// Package webhook turns actor completion callbacks into persisted competitors.
//
// Each event is handled on its own: the payload names the dataset to fetch, so
// no job registry is kept between calls.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/competitor-discovery/internal/clock/system"
	"github.com/JakeFAU/competitor-discovery/internal/competitor"
	"github.com/JakeFAU/competitor-discovery/internal/metrics"
	"github.com/JakeFAU/competitor-discovery/internal/persist"
	"github.com/JakeFAU/competitor-discovery/internal/selector"
)

// Event outcome statuses.
const (
	StatusIgnored   = "ignored"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// Selector bounds and scores a raw dataset.
type Selector interface {
	Select(items []competitor.RawItem) selector.Selection
}

// Saver persists selected competitors.
type Saver interface {
	Save(ctx context.Context, records []competitor.Competitor) persist.Result
}

// Outcome describes how one event was handled.
type Outcome struct {
	Status       string
	DatasetID    string
	RunID        string
	Count        int
	Saved        int
	Failed       int
	Unrecognized int
}

// Notification is published after a dataset has been persisted.
type Notification struct {
	DatasetID    string    `json:"dataset_id"`
	RunID        string    `json:"run_id,omitempty"`
	Processed    int       `json:"processed"`
	Saved        int       `json:"saved"`
	Failed       int       `json:"failed"`
	Unrecognized int       `json:"unrecognized"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// Options holds the optional collaborators of a Correlator.
type Options struct {
	// Runs resolves a dataset from the run id when the event omits it.
	Runs competitor.RunReader
	// Archive receives the raw dataset before normalization.
	Archive       competitor.BlobStore
	ArchivePrefix string
	// Publisher and Topic enable completion notifications.
	Publisher competitor.Publisher
	Topic     string
	Clock     competitor.Clock
	Logger    *zap.Logger
}

// Correlator runs the received → fetched → normalized → persisted pipeline.
type Correlator struct {
	datasets competitor.DatasetReader
	selector Selector
	saver    Saver
	opts     Options
	logger   *zap.Logger
}

// New builds a Correlator.
func New(datasets competitor.DatasetReader, sel Selector, saver Saver, opts Options) *Correlator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = system.New()
	}
	return &Correlator{
		datasets: datasets,
		selector: sel,
		saver:    saver,
		opts:     opts,
		logger:   logger,
	}
}

// Process handles one event. Ignored events return a nil error. Unresolved
// events return competitor.ErrUnresolvedDataset and fetch failures return the
// wrapped fetch error; in both cases Outcome.Status is StatusFailed and
// nothing is persisted. Count is the number of records attempted.
func (c *Correlator) Process(ctx context.Context, evt competitor.WebhookEvent) (out Outcome, err error) {
	out.RunID = evt.RunID()
	defer func() { metrics.ObserveWebhook(out.Status) }()
	logger := c.logger.With(
		zap.String("event_type", evt.EventType),
		zap.String("run_id", out.RunID),
	)

	if evt.EventType != competitor.EventRunSucceeded {
		out.Status = StatusIgnored
		logger.Info("webhook event ignored")
		return out, nil
	}

	datasetID, err := c.resolveDataset(ctx, evt)
	if err != nil {
		out.Status = StatusFailed
		logger.Error("webhook dataset unresolved", zap.Error(err))
		return out, err
	}
	out.DatasetID = datasetID
	logger = logger.With(zap.String("dataset_id", datasetID))

	items, err := c.datasets.ListItems(ctx, datasetID)
	if err != nil {
		out.Status = StatusFailed
		logger.Error("dataset fetch failed", zap.Error(err))
		return out, fmt.Errorf("fetch dataset %s: %w", datasetID, err)
	}
	c.archive(ctx, logger, datasetID, items)

	sel := c.selector.Select(items)
	res := c.saver.Save(ctx, sel.Competitors)

	out.Status = StatusProcessed
	out.Count = len(sel.Competitors)
	out.Saved = res.SavedCount
	out.Failed = len(res.Errors)
	out.Unrecognized = sel.Unrecognized
	logger.Info("webhook dataset processed",
		zap.Int("items", len(items)),
		zap.Int("count", out.Count),
		zap.Int("saved", out.Saved),
		zap.Int("failed", out.Failed),
		zap.Int("unrecognized", out.Unrecognized),
	)
	c.notify(ctx, logger, out)
	return out, nil
}

func (c *Correlator) resolveDataset(ctx context.Context, evt competitor.WebhookEvent) (string, error) {
	if id := evt.Resource.DefaultDatasetID; id != "" {
		return id, nil
	}
	runID := evt.RunID()
	if c.opts.Runs == nil || runID == "" {
		return "", competitor.ErrUnresolvedDataset
	}
	run, err := c.opts.Runs.GetRun(ctx, runID)
	if err != nil {
		return "", errors.Join(competitor.ErrUnresolvedDataset, fmt.Errorf("lookup run %s: %w", runID, err))
	}
	if run.DefaultDatasetID == "" {
		return "", competitor.ErrUnresolvedDataset
	}
	return run.DefaultDatasetID, nil
}

func (c *Correlator) archive(ctx context.Context, logger *zap.Logger, datasetID string, items []competitor.RawItem) {
	if c.opts.Archive == nil {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		logger.Warn("dataset archive encode failed", zap.Error(err))
		return
	}
	key := path.Join(c.opts.ArchivePrefix, datasetID+".json")
	uri, err := c.opts.Archive.PutObject(ctx, key, "application/json", bytes.NewReader(data))
	if err != nil {
		logger.Warn("dataset archive failed", zap.String("path", key), zap.Error(err))
		return
	}
	logger.Debug("dataset archived", zap.String("uri", uri))
}

func (c *Correlator) notify(ctx context.Context, logger *zap.Logger, out Outcome) {
	if c.opts.Publisher == nil || c.opts.Topic == "" {
		return
	}
	msg := Notification{
		DatasetID:    out.DatasetID,
		RunID:        out.RunID,
		Processed:    out.Count,
		Saved:        out.Saved,
		Failed:       out.Failed,
		Unrecognized: out.Unrecognized,
		ProcessedAt:  c.opts.Clock.Now(),
	}
	if _, err := c.opts.Publisher.Publish(ctx, c.opts.Topic, msg); err != nil {
		logger.Warn("completion notification failed", zap.String("topic", c.opts.Topic), zap.Error(err))
	}
}
