package competitor

import (
	"context"
	"io"
	"time"
)

// ActorRunner starts asynchronous actor runs.
type ActorRunner interface {
	StartRun(ctx context.Context, actorID string, input any, opts RunOptions) (Run, error)
}

// RunReader looks up previously started runs.
type RunReader interface {
	GetRun(ctx context.Context, runID string) (Run, error)
}

// DatasetReader fetches the items produced by a run.
type DatasetReader interface {
	ListItems(ctx context.Context, datasetID string) ([]RawItem, error)
}

// Store upserts competitors keyed by (handle, platform).
type Store interface {
	Upsert(ctx context.Context, record Competitor) error
	Close()
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
