package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Product is the canonical work shared by all its sources.
type Product struct {
	ID                  int64
	NormalizedProductID string
	Title               string
	Description         string
	ReleaseDate         *time.Time
	DurationMin         int
	DefaultThumbnailURL string
}

// ProductSource is one ASP's listing of a product.
type ProductSource struct {
	ID                int64
	ProductID         int64
	ASPName           string
	OriginalProductID string
	AffiliateURL      string
	Price             int
	Currency          string
	IsSubscription    bool
	DataSource        string
}

// UpsertProduct inserts or updates the product keyed by its normalized id.
// Existing non-empty fields are preserved when the crawl carries less detail
// than a previous source did. Returns the row id and whether it was created.
func (s *Store) UpsertProduct(ctx context.Context, p Product) (int64, bool, error) {
	const q = `
		INSERT INTO products
			(normalized_product_id, title, description, release_date, duration_min, default_thumbnail_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (normalized_product_id) DO UPDATE SET
			title = CASE WHEN EXCLUDED.title <> '' THEN EXCLUDED.title ELSE products.title END,
			description = CASE WHEN EXCLUDED.description <> '' THEN EXCLUDED.description ELSE products.description END,
			release_date = COALESCE(EXCLUDED.release_date, products.release_date),
			duration_min = CASE WHEN EXCLUDED.duration_min > 0 THEN EXCLUDED.duration_min ELSE products.duration_min END,
			default_thumbnail_url = CASE WHEN products.default_thumbnail_url = '' THEN EXCLUDED.default_thumbnail_url ELSE products.default_thumbnail_url END,
			updated_at = now()
		RETURNING id, (xmax = 0)`

	var id int64
	var created bool
	err := s.pool.QueryRow(ctx, q,
		p.NormalizedProductID, p.Title, p.Description, p.ReleaseDate, p.DurationMin, p.DefaultThumbnailURL,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, err
	}
	return id, created, nil
}

// GetProductByNormalizedID looks up a product by its deduplication key.
func (s *Store) GetProductByNormalizedID(ctx context.Context, normalizedID string) (Product, bool, error) {
	const q = `
		SELECT id, normalized_product_id, title, description, release_date, duration_min, default_thumbnail_url
		FROM products WHERE normalized_product_id = $1`

	var p Product
	err := s.pool.QueryRow(ctx, q, normalizedID).Scan(
		&p.ID, &p.NormalizedProductID, &p.Title, &p.Description, &p.ReleaseDate, &p.DurationMin, &p.DefaultThumbnailURL,
	)
	if err == pgx.ErrNoRows {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

// UpsertSource attaches or refreshes one ASP listing of a product. The
// (asp_name, original_product_id) pair is unique, so re-crawls overwrite the
// existing row instead of drifting.
func (s *Store) UpsertSource(ctx context.Context, src ProductSource) (int64, bool, error) {
	const q = `
		INSERT INTO product_sources
			(product_id, asp_name, original_product_id, affiliate_url, price, currency, is_subscription, data_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (asp_name, original_product_id) DO UPDATE SET
			product_id = EXCLUDED.product_id,
			affiliate_url = EXCLUDED.affiliate_url,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			is_subscription = EXCLUDED.is_subscription,
			updated_at = now()
		RETURNING id, (xmax = 0)`

	var id int64
	var created bool
	err := s.pool.QueryRow(ctx, q,
		src.ProductID, src.ASPName, src.OriginalProductID, src.AffiliateURL,
		src.Price, src.Currency, src.IsSubscription, src.DataSource,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, err
	}
	return id, created, nil
}

// AddImages records product images, skipping duplicates.
func (s *Store) AddImages(ctx context.Context, productID int64, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for i, u := range urls {
		if u == "" {
			continue
		}
		b.Queue(`INSERT INTO product_images (product_id, url, position) VALUES ($1, $2, $3)
			ON CONFLICT (product_id, url) DO NOTHING`, productID, u, i)
	}
	return s.pool.SendBatch(ctx, b).Close()
}

// AddVideos records sample video URLs, skipping duplicates.
func (s *Store) AddVideos(ctx context.Context, productID int64, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, u := range urls {
		if u == "" {
			continue
		}
		b.Queue(`INSERT INTO product_videos (product_id, url) VALUES ($1, $2)
			ON CONFLICT (product_id, url) DO NOTHING`, productID, u)
	}
	return s.pool.SendBatch(ctx, b).Close()
}

// LinkPerformers attaches performer rows to a product.
func (s *Store) LinkPerformers(ctx context.Context, productID int64, performerIDs []int64) error {
	if len(performerIDs) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, pid := range performerIDs {
		b.Queue(`INSERT INTO product_performers (product_id, performer_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, productID, pid)
	}
	return s.pool.SendBatch(ctx, b).Close()
}

// UpsertTags records tags under one category and links them to a product.
func (s *Store) UpsertTags(ctx context.Context, productID int64, names []string, category string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		const q = `
			INSERT INTO tags (name, category) VALUES ($1, $2)
			ON CONFLICT (name, category) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`
		var tagID int64
		if err := s.pool.QueryRow(ctx, q, name, category).Scan(&tagID); err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO product_tags (product_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			productID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// CountSources returns the number of source rows for a product, used by
// operational checks.
func (s *Store) CountSources(ctx context.Context, productID int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM product_sources WHERE product_id = $1`, productID).Scan(&n)
	return n, err
}
