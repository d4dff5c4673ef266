package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/competitor-discovery/internal/competitor"
	"github.com/JakeFAU/competitor-discovery/internal/dispatcher"
	"github.com/JakeFAU/competitor-discovery/internal/metrics"
	"github.com/JakeFAU/competitor-discovery/internal/webhook"
)

// Dispatcher starts actor runs for a discovery query.
type Dispatcher interface {
	Dispatch(ctx context.Context, q competitor.DiscoveryQuery) (dispatcher.Result, error)
}

// Correlator processes one run completion callback.
type Correlator interface {
	Process(ctx context.Context, evt competitor.WebhookEvent) (webhook.Outcome, error)
}

// Options configures optional server behavior.
type Options struct {
	// RequestTimeout bounds each /scraper request; zero means 60s.
	RequestTimeout time.Duration
	// WebhookTimeout bounds one webhook batch; zero means 5m. The batch
	// runs detached from the caller's context.
	WebhookTimeout time.Duration
	// Ready reports downstream readiness for /readyz; nil means always ready.
	Ready func(context.Context) error
}

// Server wires HTTP handlers to the dispatcher, run reader and correlator.
type Server struct {
	router     chi.Router
	dispatcher Dispatcher
	runs       competitor.RunReader
	correlator Correlator
	ready      func(context.Context) error
	hookWait   time.Duration
	logger     *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	dispatcher Dispatcher,
	runs competitor.RunReader,
	correlator Correlator,
	opts Options,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.WebhookTimeout <= 0 {
		opts.WebhookTimeout = 5 * time.Minute
	}
	s := &Server{
		dispatcher: dispatcher,
		runs:       runs,
		correlator: correlator,
		ready:      opts.Ready,
		hookWait:   opts.WebhookTimeout,
		logger:     logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(timeoutMiddleware(opts.RequestTimeout))
		r.Route("/scraper", func(r chi.Router) {
			r.Post("/discover", s.discover)
			r.Get("/runs/{run_id}", s.getRun)
		})
	})
	// Outside the timeout group: the webhook must always answer 200 and
	// a batch must not be cut short by the caller's deadline.
	r.Post("/webhooks/apify/competitors", s.competitorsWebhook)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
