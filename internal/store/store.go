// Package store is the persistence layer: pgx-backed upserts into the
// shared relational schema keyed by the natural identifiers, so re-running
// a crawl range converges instead of duplicating rows.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"aspingest/logger"
)

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// New connects to Postgres and returns a Store.
func New(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.ForStore(),
	}, nil
}

// NewWithPool wraps an existing pool, used by tests.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		log:  logger.ForStore(),
	}
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
