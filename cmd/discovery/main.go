package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/competitor-discovery/internal/actor/apify"
	"github.com/JakeFAU/competitor-discovery/internal/api"
	"github.com/JakeFAU/competitor-discovery/internal/clock/system"
	"github.com/JakeFAU/competitor-discovery/internal/config"
	"github.com/JakeFAU/competitor-discovery/internal/dispatcher"
	"github.com/JakeFAU/competitor-discovery/internal/logging"
	"github.com/JakeFAU/competitor-discovery/internal/normalizer"
	"github.com/JakeFAU/competitor-discovery/internal/persist"
	"github.com/JakeFAU/competitor-discovery/internal/selector"
	"github.com/JakeFAU/competitor-discovery/internal/webhook"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, cfg, logger); err != nil {
		logger.Error("service exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg config.Config, logger *zap.Logger) error {
	if cfg.Actor.APIToken == "" {
		logger.Warn("actor API token is not set; actor calls will be rejected upstream")
	}
	if cfg.Actor.WebhookCallbackURL == "" {
		logger.Warn("webhook callback URL is not set; runs will dispatch without a completion callback")
	}

	actors := apify.New(apify.Config{
		BaseURL: cfg.Actor.BaseURL,
		Token:   cfg.Actor.APIToken,
		Timeout: cfg.ActorTimeout(),
	}, nil)

	stores, err := buildStore(ctx, cfg, logger.Named("store"))
	if err != nil {
		return err
	}
	defer stores.store.Close()

	archive, closeArchive, err := buildArchive(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeArchive()

	pub, closePub, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePub()

	dispatch := dispatcher.New(actors, []dispatcher.Target{
		dispatcher.InstagramTarget(cfg.Actor.InstagramActor, cfg.Actor.InstagramSearchType),
		dispatcher.TikTokTarget(cfg.Actor.TikTokActor),
	}, dispatcher.Config{
		WebhookURL:   cfg.Actor.WebhookCallbackURL,
		ResultsLimit: cfg.Actor.ResultsLimit,
	}, logger.Named("dispatcher"))

	sel := selector.New(normalizer.New(logger.Named("normalizer")), nil, logger.Named("selector"))
	correlator := webhook.New(actors, sel, persist.New(stores.store, logger.Named("persist")), webhook.Options{
		Runs:          actors,
		Archive:       archive,
		ArchivePrefix: cfg.Archive.Prefix,
		Publisher:     pub,
		Topic:         cfg.PubSub.TopicName,
		Clock:         system.New(),
		Logger:        logger.Named("webhook"),
	})

	apiServer := api.NewServer(dispatch, actors, correlator, api.Options{
		RequestTimeout: cfg.RequestTimeout(),
		WebhookTimeout: cfg.WebhookTimeout(),
		Ready:          stores.ready,
	}, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}
