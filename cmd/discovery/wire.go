package main

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/competitor-discovery/internal/competitor"
	"github.com/JakeFAU/competitor-discovery/internal/config"
	memorypublisher "github.com/JakeFAU/competitor-discovery/internal/publisher/memory"
	pubsubpublisher "github.com/JakeFAU/competitor-discovery/internal/publisher/pubsub"
	"github.com/JakeFAU/competitor-discovery/internal/storage/gcs"
	"github.com/JakeFAU/competitor-discovery/internal/storage/memory"
	"github.com/JakeFAU/competitor-discovery/internal/storage/noop"
	"github.com/JakeFAU/competitor-discovery/internal/storage/postgres"
	"github.com/JakeFAU/competitor-discovery/internal/storage/rest"
)

type storeHandle struct {
	store competitor.Store
	kind  string
	ready func(context.Context) error
}

// buildStore opens the backend named by cfg.StoreBackend. The memory store
// keeps records for the life of the process and suits local runs.
func buildStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storeHandle, error) {
	switch cfg.StoreBackend() {
	case config.BackendPostgres:
		store, err := postgres.NewCompetitorStore(ctx, postgres.CompetitorStoreConfig{
			DSN:      cfg.Store.DSN,
			Table:    cfg.Store.Table,
			MaxConns: cfg.Store.MaxConns,
		})
		if err != nil {
			return storeHandle{}, fmt.Errorf("init postgres store: %w", err)
		}
		logger.Info("competitor store ready", zap.String("kind", "postgres"), zap.String("table", cfg.Store.Table))
		return storeHandle{store: store, kind: "postgres", ready: store.Ping}, nil
	case config.BackendREST:
		store, err := rest.NewCompetitorStore(rest.Config{
			URL:     cfg.Store.URL,
			Key:     cfg.Store.Key,
			Table:   cfg.Store.Table,
			Timeout: cfg.ActorTimeout(),
		}, nil)
		if err != nil {
			return storeHandle{}, fmt.Errorf("init rest store: %w", err)
		}
		logger.Info("competitor store ready", zap.String("kind", "rest"), zap.String("table", cfg.Store.Table))
		return storeHandle{store: store, kind: "rest"}, nil
	case config.BackendMemory:
		logger.Warn("competitor store is in memory; records are lost on restart")
		return storeHandle{store: memory.NewCompetitorStore(), kind: "memory"}, nil
	default:
		logger.Error("competitor store is not configured; set STORE_URL and STORE_KEY or store.dsn")
		return storeHandle{store: noop.New(logger), kind: "noop"}, nil
	}
}

func buildArchive(ctx context.Context, cfg config.Config, logger *zap.Logger) (competitor.BlobStore, func(), error) {
	switch cfg.ArchiveBackend() {
	case "":
		return nil, func() {}, nil
	case config.BackendMemory:
		logger.Info("dataset archive enabled", zap.String("kind", "memory"), zap.String("prefix", cfg.Archive.Prefix))
		return memory.NewBlobStore(), func() {}, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("init gcs client: %w", err)
	}
	blobs, err := gcs.New(client, gcs.Config{
		Bucket:   cfg.Archive.GCSBucket,
		Metadata: map[string]string{"source": "actor-dataset"},
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("init gcs archive: %w", err)
	}
	logger.Info("dataset archive enabled", zap.String("kind", "gcs"), zap.String("bucket", cfg.Archive.GCSBucket), zap.String("prefix", cfg.Archive.Prefix))
	return blobs, func() {
		if err := blobs.Close(); err != nil {
			logger.Warn("close gcs archive", zap.Error(err))
		}
	}, nil
}

func buildPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (competitor.Publisher, func(), error) {
	switch cfg.PublisherBackend() {
	case "":
		return nil, func() {}, nil
	case config.BackendMemory:
		logger.Info("completion notifications enabled", zap.String("kind", "memory"), zap.String("topic", cfg.PubSub.TopicName))
		return memorypublisher.New(), func() {}, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("init pubsub client: %w", err)
	}
	pub := pubsubpublisher.New(client)
	logger.Info("completion notifications enabled", zap.String("kind", "pubsub"), zap.String("topic", cfg.PubSub.TopicName))
	return pub, func() {
		if err := pub.Close(); err != nil {
			logger.Warn("close pubsub publisher", zap.Error(err))
		}
	}, nil
}
