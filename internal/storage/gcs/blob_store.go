// Package gcs archives raw actor datasets to Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"

	"cloud.google.com/go/storage"
)

// Config names the archive bucket and the metadata stamped on every object.
type Config struct {
	Bucket   string
	Metadata map[string]string
}

// BlobStore implements competitor.BlobStore on a single bucket.
type BlobStore struct {
	client   *storage.Client
	bucket   string
	metadata map[string]string
}

// New creates a BlobStore. The store owns client and closes it in Close.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, errors.New("storage client is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	return &BlobStore{
		client:   client,
		bucket:   bucket,
		metadata: maps.Clone(cfg.Metadata),
	}, nil
}

// URI returns the gs:// address of path in the archive bucket.
func (s *BlobStore) URI(path string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, strings.TrimLeft(path, "/"))
}

// PutObject uploads r in a single request and returns the object URI.
// Datasets are small JSON documents, so resumable chunked uploads are disabled.
func (s *BlobStore) PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error) {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return "", errors.New("path is required")
	}
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ChunkSize = 0
	w.ContentType = contentType
	if len(s.metadata) > 0 {
		w.Metadata = maps.Clone(s.metadata)
	}

	if _, err := io.Copy(w, r); err != nil {
		closeErr := w.Close()
		return "", errors.Join(fmt.Errorf("upload %s: %w", path, err), closeErr)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", path, err)
	}
	return s.URI(path), nil
}

// Close releases the storage client.
func (s *BlobStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close storage client: %w", err)
	}
	return nil
}
