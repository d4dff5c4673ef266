// Package competitor defines core types shared across the discovery pipeline.
package competitor

import (
	"errors"
	"strings"
)

// Platform identifies the social network a competitor account lives on.
type Platform string

// Supported platforms.
const (
	PlatformInstagram Platform = "INSTAGRAM"
	PlatformTikTok    Platform = "TIKTOK"
)

// Webhook event types emitted by the actor platform.
const (
	EventRunSucceeded = "ACTOR.RUN.SUCCEEDED"
	EventRunFailed    = "ACTOR.RUN.FAILED"
	EventRunAborted   = "ACTOR.RUN.ABORTED"
	EventRunTimedOut  = "ACTOR.RUN.TIMED_OUT"
)

var (
	// ErrStoreUnavailable is returned by writes when no persistence backend is configured.
	ErrStoreUnavailable = errors.New("competitor store is not configured")
	// ErrUnresolvedDataset means a webhook event carried no usable dataset identifier.
	ErrUnresolvedDataset = errors.New("no dataset id could be resolved from webhook event")
	// ErrNoPlatformDispatched means every platform target failed to start.
	ErrNoPlatformDispatched = errors.New("no platform job could be dispatched")
	// ErrRunNotFound is returned by run lookups for unknown run IDs.
	ErrRunNotFound = errors.New("actor run not found")
)

// DiscoveryQuery is the caller's request to discover competitors.
type DiscoveryQuery struct {
	Niche    string `json:"niche"`
	Location string `json:"location,omitempty"`
}

// SearchString joins niche and location into the single term sent to actors.
func (q DiscoveryQuery) SearchString() string {
	return strings.TrimSpace(strings.TrimSpace(q.Niche) + " " + strings.TrimSpace(q.Location))
}

// DispatchedJob records one actor run started for a query on a platform.
type DispatchedJob struct {
	Query    string   `json:"query"`
	Platform Platform `json:"platform"`
	JobID    string   `json:"jobId"`
}

// RawItem is one untyped record from an actor dataset.
type RawItem map[string]any

// Competitor is the canonical, persisted profile record.
// Handle and Platform together form its identity.
type Competitor struct {
	Handle          string   `json:"handle"`
	Platform        Platform `json:"platform"`
	FullName        *string  `json:"full_name"`
	Biography       *string  `json:"biography"`
	FollowersCount  *int64   `json:"followers_count"`
	FollowingCount  *int64   `json:"following_count"`
	PostsCount      *int64   `json:"posts_count"`
	AvatarURL       *string  `json:"avatar_url"`
	ConfidenceScore float64  `json:"confidence_score"`
	InclusionReason string   `json:"inclusion_reason"`
}

// Key returns the persistence identity of the record.
func (c Competitor) Key() string {
	return string(c.Platform) + ":" + c.Handle
}

// WebhookEvent is the payload delivered by the actor platform on run completion.
type WebhookEvent struct {
	EventType string          `json:"eventType"`
	EventData WebhookData     `json:"eventData"`
	Resource  WebhookResource `json:"resource"`
}

// WebhookData carries the identifiers of the run that triggered the event.
type WebhookData struct {
	ActorID    string `json:"actorId"`
	ActorRunID string `json:"actorRunId"`
}

// WebhookResource is the run object embedded in a webhook event.
type WebhookResource struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

// RunID returns the best available run identifier on the event.
func (e WebhookEvent) RunID() string {
	if e.Resource.ID != "" {
		return e.Resource.ID
	}
	return e.EventData.ActorRunID
}

// Run describes an actor run as reported by the actor platform.
type Run struct {
	ID               string `json:"id"`
	ActorID          string `json:"actId,omitempty"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

// Webhook is a callback registration attached to a run at start time.
type Webhook struct {
	EventTypes []string `json:"eventTypes"`
	RequestURL string   `json:"requestUrl"`
}

// RunOptions are optional parameters for starting an actor run.
type RunOptions struct {
	Webhooks []Webhook
}
