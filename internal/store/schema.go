package store

import (
	"context"
	"fmt"
)

// schema holds the DDL for the shared relational schema. Statements are
// idempotent so Migrate can run at startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		normalized_product_id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		release_date DATE,
		duration_min INT NOT NULL DEFAULT 0,
		default_thumbnail_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS product_sources (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id),
		asp_name TEXT NOT NULL,
		original_product_id TEXT NOT NULL,
		affiliate_url TEXT NOT NULL DEFAULT '',
		price INT NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'JPY',
		is_subscription BOOLEAN NOT NULL DEFAULT FALSE,
		data_source TEXT NOT NULL DEFAULT 'crawl',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (asp_name, original_product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS product_sales (
		id BIGSERIAL PRIMARY KEY,
		product_source_id BIGINT NOT NULL REFERENCES product_sources(id),
		sale_price INT NOT NULL,
		regular_price INT NOT NULL,
		discount_percent INT NOT NULL DEFAULT 0,
		end_at TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (product_source_id)
	)`,
	`CREATE TABLE IF NOT EXISTS product_images (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id),
		url TEXT NOT NULL,
		position INT NOT NULL DEFAULT 0,
		UNIQUE (product_id, url)
	)`,
	`CREATE TABLE IF NOT EXISTS product_videos (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id),
		url TEXT NOT NULL,
		UNIQUE (product_id, url)
	)`,
	`CREATE TABLE IF NOT EXISTS performers (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		name_kana TEXT NOT NULL DEFAULT '',
		name_en TEXT NOT NULL DEFAULT '',
		height_cm INT,
		cup TEXT NOT NULL DEFAULT '',
		is_retired BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS performer_aliases (
		id BIGSERIAL PRIMARY KEY,
		performer_id BIGINT NOT NULL REFERENCES performers(id),
		alias TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT 'crawl',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (performer_id, alias)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_performer_aliases_alias ON performer_aliases (alias)`,
	`CREATE TABLE IF NOT EXISTS product_performers (
		product_id BIGINT NOT NULL REFERENCES products(id),
		performer_id BIGINT NOT NULL REFERENCES performers(id),
		PRIMARY KEY (product_id, performer_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'genre',
		UNIQUE (name, category)
	)`,
	`CREATE TABLE IF NOT EXISTS product_tags (
		product_id BIGINT NOT NULL REFERENCES products(id),
		tag_id BIGINT NOT NULL REFERENCES tags(id),
		PRIMARY KEY (product_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS crawl_cursors (
		site TEXT NOT NULL,
		job TEXT NOT NULL,
		position INT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (site, job)
	)`,
}

// Migrate applies the schema.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	s.log.Info().Int("statements", len(schema)).Msg("Schema migrated")
	return nil
}
