package store

import (
	"context"
	"time"
)

// Sale is a time-bounded discount attached to one product source.
type Sale struct {
	ID              int64
	ProductSourceID int64
	SalePrice       int
	RegularPrice    int
	DiscountPercent int
	EndAt           *time.Time
	IsActive        bool
}

// UpsertSale records or refreshes the sale attached to a source.
func (s *Store) UpsertSale(ctx context.Context, sale Sale) error {
	const q = `
		INSERT INTO product_sales
			(product_source_id, sale_price, regular_price, discount_percent, end_at, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (product_source_id) DO UPDATE SET
			sale_price = EXCLUDED.sale_price,
			regular_price = EXCLUDED.regular_price,
			discount_percent = EXCLUDED.discount_percent,
			end_at = EXCLUDED.end_at,
			is_active = TRUE,
			updated_at = now()`

	_, err := s.pool.Exec(ctx, q,
		sale.ProductSourceID, sale.SalePrice, sale.RegularPrice, sale.DiscountPercent, sale.EndAt)
	return err
}

// DeactivateExpiredSales flips sales whose window has passed. Run as a
// cleanup pass, not by the crawl itself.
func (s *Store) DeactivateExpiredSales(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE product_sales SET is_active = FALSE, updated_at = now()
		 WHERE is_active AND end_at IS NOT NULL AND end_at <= now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeactivateSaleForSource flips the sale for one source, used when a crawl
// no longer sees the discount.
func (s *Store) DeactivateSaleForSource(ctx context.Context, sourceID int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE product_sales SET is_active = FALSE, updated_at = now()
		 WHERE product_source_id = $1 AND is_active`, sourceID)
	return err
}

// ActiveSales returns sales that are flagged active and whose window has not
// passed as of now.
func (s *Store) ActiveSales(ctx context.Context) ([]Sale, error) {
	const q = `
		SELECT id, product_source_id, sale_price, regular_price, discount_percent, end_at, is_active
		FROM product_sales
		WHERE is_active AND (end_at IS NULL OR end_at > now())
		ORDER BY id`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(&sale.ID, &sale.ProductSourceID, &sale.SalePrice,
			&sale.RegularPrice, &sale.DiscountPercent, &sale.EndAt, &sale.IsActive); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}
