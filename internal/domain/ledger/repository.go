package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the ledger store. Create returns apperr.ErrConflict when a second payout
// transaction is inserted for the same proposal. Lookups return nil, nil when absent.
type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByID(ctx context.Context, transactionID uuid.UUID) (*Transaction, error)
	Update(ctx context.Context, txn *Transaction) error
	GetPayoutForProposal(ctx context.Context, proposalID uuid.UUID) (*Transaction, error)
	ListByCampaigns(ctx context.Context, campaignIDs []uuid.UUID) ([]*Transaction, error)
	ListByProposals(ctx context.Context, proposalIDs []uuid.UUID) ([]*Transaction, error)
}
