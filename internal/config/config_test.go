package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  request_timeout_seconds: 20
logging:
  development: true
  level: debug
actor:
  api_token: tok
  webhook_callback_url: https://svc.example/webhooks/apify/competitors
  timeout_seconds: 45
  results_limit: 30
  instagram_search_type: hashtag
store:
  dsn: postgres://localhost/discovery
  table: rivals
archive:
  gcs_bucket: bucket
  prefix: raw
pubsub:
  project_id: proj
  topic_name: competitors
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Logging.Development || cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging overrides: %+v", cfg.Logging)
	}
	if cfg.Actor.APIToken != "tok" || cfg.Actor.ResultsLimit != 30 || cfg.Actor.InstagramSearchType != "hashtag" {
		t.Fatalf("expected actor overrides: %+v", cfg.Actor)
	}
	if cfg.Actor.TikTokActor != "clockworks/tiktok-scraper" {
		t.Fatalf("expected tiktok actor default, got %q", cfg.Actor.TikTokActor)
	}
	if cfg.Store.Table != "rivals" || cfg.StoreBackend() != BackendPostgres {
		t.Fatalf("expected store overrides: %+v", cfg.Store)
	}
	if cfg.ArchiveBackend() != BackendGCS || cfg.PublisherBackend() != BackendPubSub {
		t.Fatalf("expected archive and pubsub overrides: %+v %+v", cfg.Archive, cfg.PubSub)
	}
	if got := cfg.ActorTimeout(); got != 45*time.Second {
		t.Fatalf("expected actor timeout 45s, got %v", got)
	}
	if got := cfg.RequestTimeout(); got != 20*time.Second {
		t.Fatalf("expected request timeout 20s, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Actor.ResultsLimit != 15 || cfg.Store.Table != "competitors" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Actor.BaseURL != "https://api.apify.com" || cfg.Archive.Prefix != "datasets" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if got := cfg.WebhookTimeout(); got != 5*time.Minute {
		t.Fatalf("expected webhook timeout 5m, got %v", got)
	}
	if cfg.StoreBackend() != BackendNoop || cfg.ArchiveBackend() != "" || cfg.PublisherBackend() != "" {
		t.Fatalf("expected optional backends disabled by default")
	}
}

func TestLoadMemoryBackends(t *testing.T) {
	t.Setenv("DISCOVERY_STORE_KIND", "memory")
	t.Setenv("DISCOVERY_ARCHIVE_KIND", "memory")
	t.Setenv("DISCOVERY_PUBSUB_KIND", "memory")
	t.Setenv("DISCOVERY_PUBSUB_TOPIC_NAME", "competitors")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoreBackend() != BackendMemory || cfg.ArchiveBackend() != BackendMemory || cfg.PublisherBackend() != BackendMemory {
		t.Fatalf("expected memory backends: %+v %+v %+v", cfg.Store, cfg.Archive, cfg.PubSub)
	}
}

func TestStoreBackendResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		store StoreConfig
		want  string
	}{
		{name: "nothing configured", store: StoreConfig{}, want: BackendNoop},
		{name: "url without key", store: StoreConfig{URL: "https://db.example"}, want: BackendNoop},
		{name: "rest credentials", store: StoreConfig{URL: "https://db.example", Key: "k"}, want: BackendREST},
		{name: "dsn wins", store: StoreConfig{URL: "https://db.example", Key: "k", DSN: "postgres://h/db"}, want: BackendPostgres},
		{name: "explicit kind wins", store: StoreConfig{Kind: BackendMemory, DSN: "postgres://h/db"}, want: BackendMemory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := (Config{Store: tt.store}).StoreBackend(); got != tt.want {
				t.Fatalf("StoreBackend() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadPlainEnvAliases(t *testing.T) {
	t.Setenv("API_TOKEN", "plain-token")
	t.Setenv("WEBHOOK_CALLBACK_URL", "https://cb.example/hook")
	t.Setenv("STORE_URL", "https://db.example")
	t.Setenv("STORE_KEY", "service-key")
	t.Setenv("PORT", "7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Actor.APIToken != "plain-token" || cfg.Actor.WebhookCallbackURL != "https://cb.example/hook" {
		t.Fatalf("expected actor aliases to apply: %+v", cfg.Actor)
	}
	if cfg.Store.URL != "https://db.example" || cfg.Store.Key != "service-key" {
		t.Fatalf("expected store aliases to apply: %+v", cfg.Store)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("expected PORT alias, got %d", cfg.Server.Port)
	}
}

func TestLoadPrefixedEnvWinsOverAlias(t *testing.T) {
	t.Setenv("API_TOKEN", "plain")
	t.Setenv("DISCOVERY_ACTOR_API_TOKEN", "prefixed")
	t.Setenv("DISCOVERY_ACTOR_RESULTS_LIMIT", "8")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Actor.APIToken != "prefixed" {
		t.Fatalf("expected prefixed token, got %q", cfg.Actor.APIToken)
	}
	if cfg.Actor.ResultsLimit != 8 {
		t.Fatalf("expected results limit 8, got %d", cfg.Actor.ResultsLimit)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server: ServerConfig{Port: 8080, RequestTimeoutSeconds: 60, WebhookTimeoutSeconds: 300},
		Actor:  ActorConfig{TimeoutSeconds: 30, ResultsLimit: 15},
		Store:  StoreConfig{Table: "competitors"},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected base config to validate, got %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "invalid request timeout",
			cfg: func() Config {
				c := base
				c.Server.RequestTimeoutSeconds = 0
				return c
			}(),
			want: "server.request_timeout_seconds",
		},
		{
			name: "invalid webhook timeout",
			cfg: func() Config {
				c := base
				c.Server.WebhookTimeoutSeconds = 0
				return c
			}(),
			want: "server.webhook_timeout_seconds",
		},
		{
			name: "invalid actor timeout",
			cfg: func() Config {
				c := base
				c.Actor.TimeoutSeconds = 0
				return c
			}(),
			want: "actor.timeout_seconds",
		},
		{
			name: "invalid results limit",
			cfg: func() Config {
				c := base
				c.Actor.ResultsLimit = -1
				return c
			}(),
			want: "actor.results_limit",
		},
		{
			name: "invalid table",
			cfg: func() Config {
				c := base
				c.Store.Table = "competitors; drop table x"
				return c
			}(),
			want: "store.table",
		},
		{
			name: "topic without project",
			cfg: func() Config {
				c := base
				c.PubSub.TopicName = "competitors"
				return c
			}(),
			want: "pubsub.project_id",
		},
		{
			name: "unknown store kind",
			cfg: func() Config {
				c := base
				c.Store.Kind = "redis"
				return c
			}(),
			want: "store.kind",
		},
		{
			name: "postgres kind without dsn",
			cfg: func() Config {
				c := base
				c.Store.Kind = BackendPostgres
				return c
			}(),
			want: "store.dsn",
		},
		{
			name: "rest kind without key",
			cfg: func() Config {
				c := base
				c.Store.Kind = BackendREST
				c.Store.URL = "https://db.example"
				return c
			}(),
			want: "store.url and store.key",
		},
		{
			name: "gcs archive without bucket",
			cfg: func() Config {
				c := base
				c.Archive.Kind = BackendGCS
				return c
			}(),
			want: "archive.gcs_bucket",
		},
		{
			name: "unknown archive kind",
			cfg: func() Config {
				c := base
				c.Archive.Kind = "s3"
				return c
			}(),
			want: "archive.kind",
		},
		{
			name: "memory publisher without topic",
			cfg: func() Config {
				c := base
				c.PubSub.Kind = BackendMemory
				return c
			}(),
			want: "pubsub.topic_name",
		},
		{
			name: "unknown pubsub kind",
			cfg: func() Config {
				c := base
				c.PubSub.Kind = "kafka"
				return c
			}(),
			want: "pubsub.kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
