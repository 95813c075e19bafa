package proposal

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence for proposals. Lookups return nil, nil when absent.
type Repository interface {
	GetByID(ctx context.Context, proposalID uuid.UUID) (*Proposal, error)
	GetForInfluencer(ctx context.Context, campaignID, influencerID uuid.UUID) (*Proposal, error)
	ListByCampaign(ctx context.Context, filter Filter) ([]*Proposal, error)

	// AttachPaymentIntent records a brand payment intent unless the proposal is already paid.
	AttachPaymentIntent(ctx context.Context, proposalID uuid.UUID, intentID string, brandTxnID uuid.UUID, at time.Time) (bool, error)
	// SetPaymentStatus moves the payment status only while it still equals from.
	SetPaymentStatus(ctx context.Context, proposalID uuid.UUID, from, to PaymentStatus, at time.Time) (bool, error)
	// MarkInfluencerComplete sets the completion flag only if it is unset; false means another request won.
	MarkInfluencerComplete(ctx context.Context, proposalID uuid.UUID, at time.Time) (bool, error)
	// CountCompleted counts accepted proposals of a campaign with the completion flag set.
	CountCompleted(ctx context.Context, campaignID uuid.UUID) (int, error)
	// ApproveCompletion is a no-op for a proposal that is already approved.
	ApproveCompletion(ctx context.Context, proposalID uuid.UUID, at time.Time) error
	ResetCompletion(ctx context.Context, campaignID uuid.UUID, influencerIDs []uuid.UUID) (int64, error)
	// SetPayoutTransaction links a payout transaction only if none is linked yet.
	SetPayoutTransaction(ctx context.Context, proposalID, transactionID uuid.UUID, status PaymentStatus) (bool, error)
}
