package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/competitor-discovery/internal/competitor"
	"github.com/JakeFAU/competitor-discovery/internal/dispatcher"
	"github.com/JakeFAU/competitor-discovery/internal/webhook"
)

const maxBodyBytes = 1 << 20

// ErrValidation is wrapped by every discovery request validation failure.
var ErrValidation = errors.New("validation failed")

// FieldError is one failed field rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists the failed field rules of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, " ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type discoverRequest struct {
	Niche    any `json:"niche"`
	Location any `json:"location"`
}

func (req discoverRequest) validate() (competitor.DiscoveryQuery, error) {
	var (
		q      competitor.DiscoveryQuery
		fields []FieldError
	)
	switch v := req.Niche.(type) {
	case nil:
		fields = append(fields, FieldError{Field: "niche", Message: "Niche is required."})
	case string:
		if strings.TrimSpace(v) == "" {
			fields = append(fields, FieldError{Field: "niche", Message: "Niche is required."})
		}
		q.Niche = v
	default:
		fields = append(fields, FieldError{Field: "niche", Message: "Niche must be a string."})
	}
	switch v := req.Location.(type) {
	case nil:
	case string:
		q.Location = v
	default:
		fields = append(fields, FieldError{Field: "location", Message: "Location must be a string."})
	}
	if len(fields) > 0 {
		return competitor.DiscoveryQuery{}, &ValidationError{Fields: fields}
	}
	return q, nil
}

type discoverResponse struct {
	Message string            `json:"message"`
	Data    dispatcher.Result `json:"data"`
}

func (s *Server) discover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	q, err := req.validate()
	if err != nil {
		var verr *ValidationError
		errors.As(err, &verr)
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   ErrValidation.Error(),
			"details": verr.Fields,
		})
		return
	}

	res, err := s.dispatcher.Dispatch(r.Context(), q)
	if err != nil {
		s.logger.Error("discovery dispatch failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("query", q.SearchString()),
			zap.Error(err),
		)
		status := http.StatusInternalServerError
		if errors.Is(err, competitor.ErrNoPlatformDispatched) {
			status = http.StatusBadGateway
		}
		s.writeJSON(w, status, map[string]any{"error": err.Error(), "data": res})
		return
	}
	s.writeJSON(w, http.StatusCreated, discoverResponse{
		Message: "Discovery jobs dispatched",
		Data:    res,
	})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	run, err := s.runs.GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, competitor.ErrRunNotFound) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error("run lookup failed", zap.String("run_id", runID), zap.Error(err))
		s.writeError(w, http.StatusBadGateway, "run lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"data": run})
}

type webhookResponse struct {
	Status string `json:"status"`
	Count  *int   `json:"count,omitempty"`
	Error  string `json:"error,omitempty"`
}

// competitorsWebhook always answers 200; the outcome is reported in the body.
func (s *Server) competitorsWebhook(w http.ResponseWriter, r *http.Request) {
	var evt competitor.WebhookEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&evt); err != nil {
		s.logger.Warn("webhook payload rejected", zap.Error(err))
		s.writeJSON(w, http.StatusOK, webhookResponse{Status: webhook.StatusFailed, Error: "invalid JSON"})
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.hookWait)
	defer cancel()
	out, err := s.correlator.Process(ctx, evt)
	resp := webhookResponse{Status: out.Status}
	switch {
	case err != nil:
		resp.Status = webhook.StatusFailed
		resp.Error = err.Error()
	case out.Status == webhook.StatusProcessed:
		count := out.Count
		resp.Count = &count
	}
	s.writeJSON(w, http.StatusOK, resp)
}
