package database

import (
	"context"
	"fmt"
	"time"

	zerologadapter "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"

	"github.com/naramarket/naramarket-mcp/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS upstream_calls (
	id          UUID PRIMARY KEY,
	endpoint    TEXT        NOT NULL,
	method      TEXT        NOT NULL,
	url         TEXT        NOT NULL,
	params      JSONB       NOT NULL DEFAULT '{}'::jsonb,
	status_code INTEGER     NOT NULL DEFAULT 0,
	attempts    INTEGER     NOT NULL DEFAULT 0,
	duration_ms BIGINT      NOT NULL DEFAULT 0,
	cached      BOOLEAN     NOT NULL DEFAULT FALSE,
	error       TEXT        NOT NULL DEFAULT '',
	called_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS upstream_calls_called_at_idx ON upstream_calls (called_at DESC);
`

func ConnectDB(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MaxConnLifetime = 5 * time.Minute
	poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   zerologadapter.NewLogger(logger.With().Str("component", "postgres").Logger()),
		LogLevel: tracelog.LogLevelWarn,
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err = pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the call log table when it does not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
