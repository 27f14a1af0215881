package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of *pgxpool.Pool the repositories use.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS archived_pages (
	url         TEXT PRIMARY KEY,
	html        TEXT NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS failed_urls (
	url             TEXT PRIMARY KEY,
	failure_reason  TEXT NOT NULL,
	retry_count     BIGINT NOT NULL DEFAULT 1,
	last_attempt_at TIMESTAMPTZ NOT NULL
);`

// Connect opens a pool and makes sure both tables exist.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return pool, nil
}
