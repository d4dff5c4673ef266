// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/competitor-discovery/internal/competitor"
)

const defaultTable = "competitors"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// CompetitorStoreConfig controls the Postgres connection pool used for competitor rows.
type CompetitorStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Ping(context.Context) error
	Close()
}

// CompetitorStore upserts competitor rows into Postgres.
//
// Expected schema:
//
//	CREATE TABLE competitors (
//		handle           TEXT NOT NULL,
//		platform         TEXT NOT NULL,
//		full_name        TEXT,
//		biography        TEXT,
//		followers_count  BIGINT,
//		following_count  BIGINT,
//		posts_count      BIGINT,
//		avatar_url       TEXT,
//		confidence_score NUMERIC(4,1) NOT NULL,
//		inclusion_reason TEXT NOT NULL,
//		PRIMARY KEY (handle, platform)
//	);
type CompetitorStore struct {
	pool  execCloser
	query string
}

// NewCompetitorStore creates a Postgres-backed CompetitorStore using the provided config.
func NewCompetitorStore(ctx context.Context, cfg CompetitorStoreConfig) (*CompetitorStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &CompetitorStore{pool: pool, query: upsertQuery(table)}, nil
}

// NewCompetitorStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewCompetitorStoreWithPool(pool execCloser, table string) (*CompetitorStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	table, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &CompetitorStore{pool: pool, query: upsertQuery(table)}, nil
}

// Close releases the underlying pool resources.
func (s *CompetitorStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping checks that the pool can reach the database.
func (s *CompetitorStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return competitor.ErrStoreUnavailable
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Upsert inserts the competitor or overwrites the row with the same (handle, platform).
func (s *CompetitorStore) Upsert(ctx context.Context, record competitor.Competitor) error {
	if s == nil || s.pool == nil {
		return competitor.ErrStoreUnavailable
	}
	if record.Handle == "" {
		return fmt.Errorf("record handle is required")
	}
	args := []any{
		record.Handle,
		string(record.Platform),
		record.FullName,
		record.Biography,
		record.FollowersCount,
		record.FollowingCount,
		record.PostsCount,
		record.AvatarURL,
		record.ConfidenceScore,
		record.InclusionReason,
	}
	if _, err := s.pool.Exec(ctx, s.query, args...); err != nil {
		return fmt.Errorf("upsert competitor: %w", err)
	}
	return nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

func upsertQuery(table string) string {
	return fmt.Sprintf(`
INSERT INTO %s (
	handle,
	platform,
	full_name,
	biography,
	followers_count,
	following_count,
	posts_count,
	avatar_url,
	confidence_score,
	inclusion_reason
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)
ON CONFLICT (handle, platform) DO UPDATE SET
	full_name = EXCLUDED.full_name,
	biography = EXCLUDED.biography,
	followers_count = EXCLUDED.followers_count,
	following_count = EXCLUDED.following_count,
	posts_count = EXCLUDED.posts_count,
	avatar_url = EXCLUDED.avatar_url,
	confidence_score = EXCLUDED.confidence_score,
	inclusion_reason = EXCLUDED.inclusion_reason`, table)
}
