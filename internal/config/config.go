// Package config loads and validates discovery service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Actor   ActorConfig   `mapstructure:"actor"`
	Store   StoreConfig   `mapstructure:"store"`
	Archive ArchiveConfig `mapstructure:"archive"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
	WebhookTimeoutSeconds int `mapstructure:"webhook_timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// ActorConfig configures the actor platform client and dispatch inputs.
type ActorConfig struct {
	APIToken            string `mapstructure:"api_token"`
	BaseURL             string `mapstructure:"base_url"`
	WebhookCallbackURL  string `mapstructure:"webhook_callback_url"`
	TimeoutSeconds      int    `mapstructure:"timeout_seconds"`
	ResultsLimit        int    `mapstructure:"results_limit"`
	InstagramActor      string `mapstructure:"instagram_actor"`
	InstagramSearchType string `mapstructure:"instagram_search_type"`
	TikTokActor         string `mapstructure:"tiktok_actor"`
}

// Backend names accepted by the kind keys.
const (
	BackendPostgres = "postgres"
	BackendREST     = "rest"
	BackendNoop     = "noop"
	BackendMemory   = "memory"
	BackendGCS      = "gcs"
	BackendPubSub   = "pubsub"
)

// StoreConfig selects and configures the competitor store. An empty Kind
// picks a backend from whichever credentials are present.
type StoreConfig struct {
	Kind     string `mapstructure:"kind"`
	URL      string `mapstructure:"url"`
	Key      string `mapstructure:"key"`
	Table    string `mapstructure:"table"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// ArchiveConfig enables raw dataset archiving to GCS.
type ArchiveConfig struct {
	Kind      string `mapstructure:"kind"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for completion notifications.
type PubSubConfig struct {
	Kind      string `mapstructure:"kind"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Plain environment names accepted alongside the DISCOVERY_ prefixed ones.
var envAliases = map[string]string{
	"actor.api_token":            "API_TOKEN",
	"actor.webhook_callback_url": "WEBHOOK_CALLBACK_URL",
	"store.url":                  "STORE_URL",
	"store.key":                  "STORE_KEY",
	"server.port":                "PORT",
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DISCOVERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, alias := range envAliases {
		if err := v.BindEnv(key, "DISCOVERY_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), alias); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("server.webhook_timeout_seconds", 300)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("actor.base_url", "https://api.apify.com")
	v.SetDefault("actor.timeout_seconds", 30)
	v.SetDefault("actor.results_limit", 15)
	v.SetDefault("actor.instagram_actor", "apify/instagram-scraper")
	v.SetDefault("actor.instagram_search_type", "user")
	v.SetDefault("actor.tiktok_actor", "clockworks/tiktok-scraper")
	v.SetDefault("store.kind", "")
	v.SetDefault("store.table", "competitors")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("archive.kind", "")
	v.SetDefault("archive.prefix", "datasets")
	v.SetDefault("pubsub.kind", "")
	v.SetDefault("pubsub.topic_name", "")
}

// Validate enforces required values and reasonable limits. Missing
// credentials are not errors; the affected collaborator degrades at startup.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return errors.New("server.request_timeout_seconds must be > 0")
	}
	if c.Server.WebhookTimeoutSeconds <= 0 {
		return errors.New("server.webhook_timeout_seconds must be > 0")
	}
	if c.Actor.TimeoutSeconds <= 0 {
		return errors.New("actor.timeout_seconds must be > 0")
	}
	if c.Actor.ResultsLimit <= 0 {
		return errors.New("actor.results_limit must be > 0")
	}
	if !tableName.MatchString(c.Store.Table) {
		return fmt.Errorf("store.table %q is not a valid identifier", c.Store.Table)
	}
	return c.validateBackends()
}

func (c Config) validateBackends() error {
	switch c.Store.Kind {
	case "", BackendNoop, BackendMemory:
	case BackendPostgres:
		if c.Store.DSN == "" {
			return errors.New("store.dsn must be set when store.kind is postgres")
		}
	case BackendREST:
		if c.Store.URL == "" || c.Store.Key == "" {
			return errors.New("store.url and store.key must be set when store.kind is rest")
		}
	default:
		return fmt.Errorf("store.kind %q is not one of postgres, rest, memory, noop", c.Store.Kind)
	}
	switch c.Archive.Kind {
	case "", BackendMemory:
	case BackendGCS:
		if c.Archive.GCSBucket == "" {
			return errors.New("archive.gcs_bucket must be set when archive.kind is gcs")
		}
	default:
		return fmt.Errorf("archive.kind %q is not one of gcs, memory", c.Archive.Kind)
	}
	switch c.PubSub.Kind {
	case "", BackendPubSub:
		if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
			return errors.New("pubsub.project_id must be set when pubsub.topic_name is set")
		}
	case BackendMemory:
		if c.PubSub.TopicName == "" {
			return errors.New("pubsub.topic_name must be set when pubsub.kind is memory")
		}
	default:
		return fmt.Errorf("pubsub.kind %q is not one of pubsub, memory", c.PubSub.Kind)
	}
	return nil
}

// ActorTimeout returns the per-call actor client timeout.
func (c Config) ActorTimeout() time.Duration {
	return time.Duration(c.Actor.TimeoutSeconds) * time.Second
}

// RequestTimeout returns the /scraper handler timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// WebhookTimeout bounds one webhook batch.
func (c Config) WebhookTimeout() time.Duration {
	return time.Duration(c.Server.WebhookTimeoutSeconds) * time.Second
}

// StoreBackend resolves the competitor store kind. Without an explicit kind
// a DSN wins over REST credentials, and neither yields noop.
func (c Config) StoreBackend() string {
	switch {
	case c.Store.Kind != "":
		return c.Store.Kind
	case c.Store.DSN != "":
		return BackendPostgres
	case c.Store.URL != "" && c.Store.Key != "":
		return BackendREST
	default:
		return BackendNoop
	}
}

// ArchiveBackend resolves the dataset archive kind; empty means disabled.
func (c Config) ArchiveBackend() string {
	if c.Archive.Kind == "" && c.Archive.GCSBucket != "" {
		return BackendGCS
	}
	return c.Archive.Kind
}

// PublisherBackend resolves the notification publisher kind; empty means
// disabled.
func (c Config) PublisherBackend() string {
	if c.PubSub.TopicName == "" {
		return ""
	}
	if c.PubSub.Kind == "" {
		return BackendPubSub
	}
	return c.PubSub.Kind
}
