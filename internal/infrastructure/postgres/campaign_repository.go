package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	"github.com/collabmarket/settlement-hub/internal/domain/campaign"
)

// CampaignRepository implements campaign.Repository.
type CampaignRepository struct {
	pool *pgxpool.Pool
}

func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

const campaignColumns = `id, brand_id, title, category, budget_min, budget_max, status, review_enabled, influencer_completed, influencer_completed_at, max_influencers, created_at, updated_at`

func (r *CampaignRepository) GetByID(ctx context.Context, campaignID uuid.UUID) (*campaign.Campaign, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id=$1`, campaignID)
	return scanCampaign(row)
}

func (r *CampaignRepository) Transition(ctx context.Context, change campaign.StatusChange) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns
		SET status=$1, review_enabled=$2, updated_at=$3,
		    influencer_completed=CASE WHEN $4::boolean THEN FALSE ELSE influencer_completed END,
		    influencer_completed_at=CASE WHEN $4::boolean THEN NULL ELSE influencer_completed_at END
		WHERE id=$5 AND status=$6
	`, change.To, change.To == campaign.StatusCompleted, change.At, change.ResetCompletion, change.CampaignID, change.From)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.transitionMiss(ctx, change)
	}
	return nil
}

// transitionMiss tells a missing campaign apart from one whose status moved on.
func (r *CampaignRepository) transitionMiss(ctx context.Context, change campaign.StatusChange) error {
	var current campaign.Status
	err := r.pool.QueryRow(ctx, `SELECT status FROM campaigns WHERE id=$1`, change.CampaignID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: campaign %s", apperr.ErrNotFound, change.CampaignID)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: campaign is %s, expected %s", apperr.ErrPrecondition, current, change.From)
}

func (r *CampaignRepository) MarkInfluencersDone(ctx context.Context, campaignID uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns
		SET influencer_completed=TRUE, influencer_completed_at=$1, updated_at=$1
		WHERE id=$2 AND status='active' AND influencer_completed=FALSE
	`, at, campaignID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanCampaign(row pgx.Row) (*campaign.Campaign, error) {
	var c campaign.Campaign
	if err := row.Scan(&c.ID, &c.BrandID, &c.Title, &c.Category, &c.BudgetMin, &c.BudgetMax, &c.Status, &c.ReviewEnabled, &c.InfluencerCompleted, &c.InfluencerCompletedAt, &c.MaxInfluencers, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
