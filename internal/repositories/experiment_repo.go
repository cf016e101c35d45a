package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/validator/backend/internal/models"
)

type ExperimentRepo struct {
	pool *pgxpool.Pool
}

func NewExperimentRepo(pool *pgxpool.Pool) *ExperimentRepo {
	return &ExperimentRepo{pool: pool}
}

const experimentColumns = `
	id, slug, user_id, idea_name, idea_description, landing,
	campaign_settings, ad_creative, campaign_id, adset_id, ad_id,
	created_at, updated_at
`

func (r *ExperimentRepo) scanRow(row interface{ Scan(dest ...any) error }) (*models.Experiment, error) {
	var e models.Experiment
	err := row.Scan(
		&e.ID, &e.Slug, &e.UserID, &e.IdeaName, &e.IdeaDescription, &e.Landing,
		&e.CampaignSettings, &e.AdCreative, &e.CampaignID, &e.AdSetID, &e.AdID,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExperimentRepo) Create(ctx context.Context, e *models.Experiment) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO experiments (slug, user_id, idea_name, idea_description, landing, campaign_settings, ad_creative)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, e.Slug, e.UserID, e.IdeaName, e.IdeaDescription, e.Landing,
		e.CampaignSettings, e.AdCreative,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *ExperimentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Experiment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE id = $1`, id)
	return r.scanRow(row)
}

func (r *ExperimentRepo) GetBySlug(ctx context.Context, slug string) (*models.Experiment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE slug = $1`, slug)
	return r.scanRow(row)
}

func (r *ExperimentRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Experiment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+experimentColumns+` FROM experiments
		WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var experiments []models.Experiment
	for rows.Next() {
		e, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		experiments = append(experiments, *e)
	}
	return experiments, nil
}

// SetRemoteIDs stores the full remote chain in one write. Called only after
// all four remote creations succeeded.
func (r *ExperimentRepo) SetRemoteIDs(ctx context.Context, id uuid.UUID, campaignID, adsetID, adID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE experiments
		SET campaign_id = $1, adset_id = $2, ad_id = $3, updated_at = now()
		WHERE id = $4
	`, campaignID, adsetID, adID, id)
	return err
}

func (r *ExperimentRepo) SetAdID(ctx context.Context, id uuid.UUID, userID uuid.UUID, adID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE experiments SET ad_id = $1, updated_at = now()
		WHERE id = $2 AND user_id = $3
	`, adID, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteByIDAndUser removes the row scoped by both id and owner, guarding
// against ownership changing between lookup and delete.
func (r *ExperimentRepo) DeleteByIDAndUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM experiments WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
