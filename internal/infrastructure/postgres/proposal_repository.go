package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	"github.com/collabmarket/settlement-hub/internal/domain/proposal"
)

// ProposalRepository implements proposal.Repository. Every write is a targeted
// conditional UPDATE so concurrent requests cannot undo each other's columns.
type ProposalRepository struct {
	pool *pgxpool.Pool
}

func NewProposalRepository(pool *pgxpool.Pool) *ProposalRepository {
	return &ProposalRepository{pool: pool}
}

const proposalColumns = `id, campaign_id, influencer_id, amount, delivery_days, status, influencer_marked_complete, influencer_completed_at, admin_approved_completion, admin_completion_approved_at, payment_status, payment_intent_id, brand_transaction_id, payout_transaction_id, created_at, updated_at`

func (r *ProposalRepository) GetByID(ctx context.Context, proposalID uuid.UUID) (*proposal.Proposal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id=$1`, proposalID)
	return scanProposal(row)
}

func (r *ProposalRepository) GetForInfluencer(ctx context.Context, campaignID, influencerID uuid.UUID) (*proposal.Proposal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE campaign_id=$1 AND influencer_id=$2`, campaignID, influencerID)
	return scanProposal(row)
}

func (r *ProposalRepository) ListByCampaign(ctx context.Context, filter proposal.Filter) ([]*proposal.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE campaign_id=$1`
	args := []interface{}{filter.CampaignID}
	idx := 2
	if filter.Status != nil {
		query += addWhere(query) + " status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.MarkedComplete != nil {
		query += addWhere(query) + " influencer_marked_complete=$" + itoa(idx)
		args = append(args, *filter.MarkedComplete)
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*proposal.Proposal, 0)
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProposalRepository) AttachPaymentIntent(ctx context.Context, proposalID uuid.UUID, intentID string, brandTxnID uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE proposals
		SET payment_intent_id=$1, brand_transaction_id=$2, payment_status='pending', updated_at=$3
		WHERE id=$4 AND payment_status NOT IN ('paid', 'released')
	`, intentID, brandTxnID, at, proposalID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ProposalRepository) SetPaymentStatus(ctx context.Context, proposalID uuid.UUID, from, to proposal.PaymentStatus, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE proposals SET payment_status=$1, updated_at=$2
		WHERE id=$3 AND payment_status=$4
	`, to, at, proposalID, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ProposalRepository) MarkInfluencerComplete(ctx context.Context, proposalID uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE proposals
		SET influencer_marked_complete=TRUE, influencer_completed_at=$1, updated_at=$1
		WHERE id=$2 AND influencer_marked_complete=FALSE
	`, at, proposalID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ProposalRepository) CountCompleted(ctx context.Context, campaignID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM proposals
		WHERE campaign_id=$1 AND status='accepted' AND influencer_marked_complete=TRUE
	`, campaignID).Scan(&n)
	return n, err
}

func (r *ProposalRepository) ApproveCompletion(ctx context.Context, proposalID uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE proposals
		SET admin_approved_completion=TRUE, admin_completion_approved_at=$1, updated_at=$1
		WHERE id=$2 AND admin_approved_completion=FALSE
	`, at, proposalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.approvalMiss(ctx, proposalID)
	}
	return nil
}

// approvalMiss treats an already approved proposal as success.
func (r *ProposalRepository) approvalMiss(ctx context.Context, proposalID uuid.UUID) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM proposals WHERE id=$1)`, proposalID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: proposal %s", apperr.ErrNotFound, proposalID)
	}
	return nil
}

func (r *ProposalRepository) ResetCompletion(ctx context.Context, campaignID uuid.UUID, influencerIDs []uuid.UUID) (int64, error) {
	if len(influencerIDs) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE proposals
		SET influencer_marked_complete=FALSE, influencer_completed_at=NULL,
		    admin_approved_completion=FALSE, admin_completion_approved_at=NULL, updated_at=NOW()
		WHERE campaign_id=$1 AND influencer_id = ANY($2)
	`, campaignID, influencerIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *ProposalRepository) SetPayoutTransaction(ctx context.Context, proposalID, transactionID uuid.UUID, status proposal.PaymentStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE proposals
		SET payout_transaction_id=$1, payment_status=$2, updated_at=NOW()
		WHERE id=$3 AND payout_transaction_id IS NULL
	`, transactionID, status, proposalID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanProposal(row pgx.Row) (*proposal.Proposal, error) {
	var p proposal.Proposal
	if err := row.Scan(&p.ID, &p.CampaignID, &p.InfluencerID, &p.Amount, &p.DeliveryDays, &p.Status, &p.InfluencerMarkedComplete, &p.InfluencerCompletedAt, &p.AdminApprovedCompletion, &p.AdminCompletionApprovedAt, &p.PaymentStatus, &p.PaymentIntentID, &p.BrandTransactionID, &p.PayoutTransactionID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
