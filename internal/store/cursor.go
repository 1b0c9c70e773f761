package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// GetCursor returns the persisted crawl position for (site, job), or 0 when
// no checkpoint exists yet.
func (s *Store) GetCursor(ctx context.Context, site, job string) (int, error) {
	var pos int
	err := s.pool.QueryRow(ctx,
		`SELECT position FROM crawl_cursors WHERE site = $1 AND job = $2`, site, job).Scan(&pos)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return pos, nil
}

// SetCursor checkpoints the crawl position for (site, job) so an aborted run
// resumes instead of re-scanning from its configured offset.
func (s *Store) SetCursor(ctx context.Context, site, job string, position int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO crawl_cursors (site, job, position) VALUES ($1, $2, $3)
		 ON CONFLICT (site, job) DO UPDATE SET position = EXCLUDED.position, updated_at = now()`,
		site, job, position)
	return err
}
