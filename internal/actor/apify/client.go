// Package apify talks to the hosted actor platform that performs the actual
// profile scraping. It starts runs, reads run metadata and pages through
// dataset items with offset and limit.
package apify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JakeFAU/competitor-discovery/internal/competitor"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.apify.com"

// DefaultPageSize is the dataset items requested per call.
const DefaultPageSize = 1000

const maxErrorBody = 4 << 10

// Config configures the Client.
type Config struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	PageSize int
}

// Client implements competitor.ActorRunner, competitor.RunReader and
// competitor.DatasetReader over the REST API.
type Client struct {
	baseURL  string
	token    string
	pageSize int
	http     *http.Client
}

var (
	_ competitor.ActorRunner   = (*Client)(nil)
	_ competitor.RunReader     = (*Client)(nil)
	_ competitor.DatasetReader = (*Client)(nil)
)

// New builds a Client. A nil httpClient gets a default with cfg.Timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Client{baseURL: base, token: cfg.Token, pageSize: pageSize, http: httpClient}
}

// StatusError reports a non-2xx response from the API.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

type runEnvelope struct {
	Data competitor.Run `json:"data"`
}

// StartRun launches actorID with input, registering any webhooks in opts.
func (c *Client) StartRun(ctx context.Context, actorID string, input any, opts competitor.RunOptions) (competitor.Run, error) {
	if strings.TrimSpace(actorID) == "" {
		return competitor.Run{}, errors.New("actor id is required")
	}
	body, err := json.Marshal(input)
	if err != nil {
		return competitor.Run{}, fmt.Errorf("marshal actor input: %w", err)
	}
	query := url.Values{}
	if len(opts.Webhooks) > 0 {
		hooks, err := json.Marshal(opts.Webhooks)
		if err != nil {
			return competitor.Run{}, fmt.Errorf("marshal webhooks: %w", err)
		}
		query.Set("webhooks", base64.StdEncoding.EncodeToString(hooks))
	}
	path := "/v2/acts/" + url.PathEscape(strings.ReplaceAll(actorID, "/", "~")) + "/runs"

	var env runEnvelope
	if err := c.do(ctx, http.MethodPost, path, query, body, &env); err != nil {
		return competitor.Run{}, err
	}
	if env.Data.ID == "" {
		return competitor.Run{}, fmt.Errorf("start run %s: response missing run id", actorID)
	}
	return env.Data, nil
}

// GetRun fetches run metadata. A 404 maps to competitor.ErrRunNotFound.
func (c *Client) GetRun(ctx context.Context, runID string) (competitor.Run, error) {
	if strings.TrimSpace(runID) == "" {
		return competitor.Run{}, competitor.ErrRunNotFound
	}
	var env runEnvelope
	err := c.do(ctx, http.MethodGet, "/v2/actor-runs/"+url.PathEscape(runID), nil, nil, &env)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return competitor.Run{}, fmt.Errorf("run %s: %w", runID, competitor.ErrRunNotFound)
		}
		return competitor.Run{}, err
	}
	return env.Data, nil
}

// ListItems returns every clean item in the dataset as raw JSON objects,
// fetching pages until one comes back short.
func (c *Client) ListItems(ctx context.Context, datasetID string) ([]competitor.RawItem, error) {
	if strings.TrimSpace(datasetID) == "" {
		return nil, errors.New("dataset id is required")
	}
	path := "/v2/datasets/" + url.PathEscape(datasetID) + "/items"
	var items []competitor.RawItem
	for offset := 0; ; offset += c.pageSize {
		query := url.Values{}
		query.Set("format", "json")
		query.Set("clean", "true")
		query.Set("offset", strconv.Itoa(offset))
		query.Set("limit", strconv.Itoa(c.pageSize))
		var page []competitor.RawItem
		if err := c.do(ctx, http.MethodGet, path, query, nil, &page); err != nil {
			return nil, fmt.Errorf("dataset %s offset %d: %w", datasetID, offset, err)
		}
		items = append(items, page...)
		// A server that ignores limit returns everything at once.
		if len(page) != c.pageSize {
			return items, nil
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
