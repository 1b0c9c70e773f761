package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Performer is a person appearing in products.
type Performer struct {
	ID        int64
	Name      string
	NameKana  string
	NameEn    string
	HeightCm  int
	Cup       string
	IsRetired bool
}

// GetPerformer loads one performer row.
func (s *Store) GetPerformer(ctx context.Context, id int64) (Performer, bool, error) {
	const q = `
		SELECT id, name, name_kana, name_en, COALESCE(height_cm, 0), cup, is_retired
		FROM performers WHERE id = $1`

	var p Performer
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.NameKana, &p.NameEn, &p.HeightCm, &p.Cup, &p.IsRetired)
	if err == pgx.ErrNoRows {
		return Performer{}, false, nil
	}
	if err != nil {
		return Performer{}, false, err
	}
	return p, true, nil
}

// FindPerformerByName matches the canonical name or a kana/en variant.
func (s *Store) FindPerformerByName(ctx context.Context, name string) (int64, bool, error) {
	const q = `
		SELECT id FROM performers
		WHERE name = $1 OR (name_kana <> '' AND name_kana = $1) OR (name_en <> '' AND name_en = $1)
		LIMIT 1`

	var id int64
	err := s.pool.QueryRow(ctx, q, name).Scan(&id)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// FindPerformerByAlias matches a registered alias string.
func (s *Store) FindPerformerByAlias(ctx context.Context, alias string) (int64, bool, error) {
	const q = `SELECT performer_id FROM performer_aliases WHERE alias = $1 LIMIT 1`

	var id int64
	err := s.pool.QueryRow(ctx, q, alias).Scan(&id)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// CreatePerformer inserts a new performer row, returning the existing id if
// another crawl created the same name concurrently.
func (s *Store) CreatePerformer(ctx context.Context, name string) (int64, error) {
	const q = `
		INSERT INTO performers (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, q, name).Scan(&id)
	return id, err
}

// AddPerformerAlias records an alias with the source that produced it.
func (s *Store) AddPerformerAlias(ctx context.Context, performerID int64, alias, source string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO performer_aliases (performer_id, alias, source) VALUES ($1, $2, $3)
		 ON CONFLICT (performer_id, alias) DO NOTHING`,
		performerID, alias, source)
	return err
}

// UpdatePerformerProfile fills enrichment fields when present, keeping
// existing values otherwise.
func (s *Store) UpdatePerformerProfile(ctx context.Context, performerID int64, nameKana, nameEn string, heightCm int, cup string) error {
	const q = `
		UPDATE performers SET
			name_kana = CASE WHEN $2 <> '' THEN $2 ELSE name_kana END,
			name_en = CASE WHEN $3 <> '' THEN $3 ELSE name_en END,
			height_cm = COALESCE(NULLIF($4, 0), height_cm),
			cup = CASE WHEN $5 <> '' THEN $5 ELSE cup END
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, q, performerID, nameKana, nameEn, heightCm, cup)
	return err
}
