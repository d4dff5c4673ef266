// Package rest provides a competitor store backed by a PostgREST-compatible
// HTTP endpoint (for example a hosted Postgres with a REST gateway).
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/JakeFAU/competitor-discovery/internal/competitor"
)

const (
	defaultTable = "competitors"
	onConflict   = "handle,platform"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config captures the endpoint and credentials of the REST gateway.
type Config struct {
	URL     string
	Key     string
	Table   string
	Timeout time.Duration
}

// CompetitorStore upserts competitors through the REST gateway.
type CompetitorStore struct {
	endpoint string
	key      string
	client   *http.Client
}

// NewCompetitorStore validates cfg and builds a store.
func NewCompetitorStore(cfg Config, client *http.Client) (*CompetitorStore, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, fmt.Errorf("store.url and store.key are required")
	}
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}
	base = base.JoinPath("rest", "v1", table)
	q := base.Query()
	q.Set("on_conflict", onConflict)
	base.RawQuery = q.Encode()

	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &CompetitorStore{endpoint: base.String(), key: cfg.Key, client: client}, nil
}

// Upsert posts the record with merge-duplicates resolution on (handle, platform).
func (s *CompetitorStore) Upsert(ctx context.Context, record competitor.Competitor) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal competitor: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("upsert competitor: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("upsert competitor: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// Close releases idle connections.
func (s *CompetitorStore) Close() {
	s.client.CloseIdleConnections()
}
