package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	"github.com/collabmarket/settlement-hub/internal/domain/ledger"
)

// TransactionRepository implements ledger.Repository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, user_id, campaign_id, proposal_id, amount, type, status, is_payout, app_fee, influencer_amount, source_transaction_id, stripe_payment_intent_id, stripe_charge_id, stripe_transfer_id, currency, description, created_at, updated_at`

// Create inserts a transaction. A second payout row for the same proposal violates
// uq_transactions_payout_per_proposal and is reported as apperr.ErrConflict.
func (r *TransactionRepository) Create(ctx context.Context, t *ledger.Transaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`, t.ID, t.UserID, t.CampaignID, t.ProposalID, t.Amount, t.Type, t.Status, t.IsPayout, t.AppFee, t.InfluencerAmount, t.SourceTransactionID, t.StripePaymentIntentID, t.StripeChargeID, t.StripeTransferID, t.Currency, t.Description, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: proposal %s already has a payout transaction", apperr.ErrConflict, t.ProposalID)
		}
		return err
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, transactionID uuid.UUID) (*ledger.Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id=$1`, transactionID)
	return scanTransaction(row)
}

func (r *TransactionRepository) Update(ctx context.Context, t *ledger.Transaction) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions
		SET amount=$1, status=$2, app_fee=$3, influencer_amount=$4, stripe_payment_intent_id=$5, stripe_charge_id=$6, stripe_transfer_id=$7, description=$8, updated_at=$9
		WHERE id=$10
	`, t.Amount, t.Status, t.AppFee, t.InfluencerAmount, t.StripePaymentIntentID, t.StripeChargeID, t.StripeTransferID, t.Description, t.UpdatedAt, t.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s", apperr.ErrNotFound, t.ID)
	}
	return nil
}

func (r *TransactionRepository) GetPayoutForProposal(ctx context.Context, proposalID uuid.UUID) (*ledger.Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE proposal_id=$1 AND is_payout`, proposalID)
	return scanTransaction(row)
}

func (r *TransactionRepository) ListByCampaigns(ctx context.Context, campaignIDs []uuid.UUID) ([]*ledger.Transaction, error) {
	return r.list(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE campaign_id = ANY($1) ORDER BY created_at ASC`, campaignIDs)
}

func (r *TransactionRepository) ListByProposals(ctx context.Context, proposalIDs []uuid.UUID) ([]*ledger.Transaction, error) {
	return r.list(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE proposal_id = ANY($1) ORDER BY created_at ASC`, proposalIDs)
}

func (r *TransactionRepository) list(ctx context.Context, query string, ids []uuid.UUID) ([]*ledger.Transaction, error) {
	out := make([]*ledger.Transaction, 0)
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (*ledger.Transaction, error) {
	var t ledger.Transaction
	if err := row.Scan(&t.ID, &t.UserID, &t.CampaignID, &t.ProposalID, &t.Amount, &t.Type, &t.Status, &t.IsPayout, &t.AppFee, &t.InfluencerAmount, &t.SourceTransactionID, &t.StripePaymentIntentID, &t.StripeChargeID, &t.StripeTransferID, &t.Currency, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}
