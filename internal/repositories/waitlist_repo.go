package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/validator/backend/internal/models"
)

type WaitlistRepo struct {
	pool *pgxpool.Pool
}

func NewWaitlistRepo(pool *pgxpool.Pool) *WaitlistRepo {
	return &WaitlistRepo{pool: pool}
}

func (r *WaitlistRepo) Create(ctx context.Context, w *models.WaitlistEntry) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO waitlist_entries (slug, name, email)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, w.Slug, w.Name, w.Email).Scan(&w.ID, &w.CreatedAt)
}

func (r *WaitlistRepo) ListBySlug(ctx context.Context, slug string) ([]models.WaitlistEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, slug, name, email, created_at
		FROM waitlist_entries WHERE slug = $1
		ORDER BY created_at DESC
	`, slug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.WaitlistEntry
	for rows.Next() {
		var w models.WaitlistEntry
		if err := rows.Scan(&w.ID, &w.Slug, &w.Name, &w.Email, &w.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, w)
	}
	return entries, nil
}

func (r *WaitlistRepo) CountBySlug(ctx context.Context, slug string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM waitlist_entries WHERE slug = $1`, slug).Scan(&n)
	return n, err
}

// DeleteBySlug removes all signups for a slug; used as the cascade of
// experiment deletion.
func (r *WaitlistRepo) DeleteBySlug(ctx context.Context, slug string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM waitlist_entries WHERE slug = $1`, slug)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
