// Package dispatcher starts one asynchronous actor run per supported platform
// for a discovery query.
package dispatcher

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/competitor-discovery/internal/competitor"
	"github.com/JakeFAU/competitor-discovery/internal/metrics"
)

// Config controls run inputs and callback registration.
type Config struct {
	// WebhookURL receives run-succeeded callbacks. Empty disables registration.
	WebhookURL   string
	ResultsLimit int
}

// Failure reports a platform whose run could not be started.
type Failure struct {
	Platform competitor.Platform `json:"platform"`
	Error    string              `json:"error"`
}

// Result lists the runs that actually started and the platforms that did not.
type Result struct {
	Runs   []competitor.DispatchedJob `json:"runs"`
	Failed []Failure                  `json:"failed"`
}

// Dispatcher fans a query out to the configured platform targets.
type Dispatcher struct {
	runner  competitor.ActorRunner
	targets []Target
	cfg     Config
	logger  *zap.Logger
}

// New creates a Dispatcher. Empty targets fall back to DefaultTargets.
func New(runner competitor.ActorRunner, targets []Target, cfg Config, logger *zap.Logger) *Dispatcher {
	if len(targets) == 0 {
		targets = DefaultTargets()
	}
	if cfg.ResultsLimit <= 0 {
		cfg.ResultsLimit = DefaultResultsLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		runner:  runner,
		targets: targets,
		cfg:     cfg,
		logger:  logger,
	}
}

type outcome struct {
	job competitor.DispatchedJob
	err error
}

// Dispatch starts every target concurrently and waits for the start calls to
// return. It never waits for the runs themselves. Runs and Failed keep target
// order. When no target started, the error wraps competitor.ErrNoPlatformDispatched.
func (d *Dispatcher) Dispatch(ctx context.Context, q competitor.DiscoveryQuery) (Result, error) {
	search := q.SearchString()
	opts := d.runOptions()

	outcomes := make([]outcome, len(d.targets))
	var wg sync.WaitGroup
	for i, target := range d.targets {
		wg.Add(1)
		go func(i int, target Target) {
			defer wg.Done()
			outcomes[i] = d.start(ctx, target, search, opts)
		}(i, target)
	}
	wg.Wait()

	res := Result{
		Runs:   make([]competitor.DispatchedJob, 0, len(d.targets)),
		Failed: []Failure{},
	}
	var errs []string
	for i, out := range outcomes {
		if out.err != nil {
			res.Failed = append(res.Failed, Failure{Platform: d.targets[i].Platform, Error: out.err.Error()})
			errs = append(errs, out.err.Error())
			continue
		}
		res.Runs = append(res.Runs, out.job)
	}
	if len(res.Runs) == 0 {
		return res, fmt.Errorf("%w: %s", competitor.ErrNoPlatformDispatched, strings.Join(errs, "; "))
	}
	return res, nil
}

func (d *Dispatcher) start(ctx context.Context, target Target, search string, opts competitor.RunOptions) outcome {
	input := target.BuildInput(search, d.cfg.ResultsLimit)
	run, err := d.runner.StartRun(ctx, target.ActorID, input, opts)
	if err != nil {
		metrics.ObserveDispatch(string(target.Platform), "failed")
		d.logger.Error("actor run failed to start",
			zap.String("platform", string(target.Platform)),
			zap.String("actor", target.ActorID),
			zap.Error(err),
		)
		return outcome{err: fmt.Errorf("start %s run: %w", target.Platform, err)}
	}
	metrics.ObserveDispatch(string(target.Platform), "started")
	d.logger.Info("actor run started",
		zap.String("platform", string(target.Platform)),
		zap.String("job_id", run.ID),
		zap.String("query", search),
		zap.Bool("webhook", len(opts.Webhooks) > 0),
	)
	return outcome{job: competitor.DispatchedJob{
		Query:    search,
		Platform: target.Platform,
		JobID:    run.ID,
	}}
}

func (d *Dispatcher) runOptions() competitor.RunOptions {
	if strings.TrimSpace(d.cfg.WebhookURL) == "" {
		return competitor.RunOptions{}
	}
	return competitor.RunOptions{Webhooks: []competitor.Webhook{{
		EventTypes: []string{competitor.EventRunSucceeded},
		RequestURL: d.cfg.WebhookURL,
	}}}
}
