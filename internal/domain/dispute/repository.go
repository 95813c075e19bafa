package dispute

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for disputes.
type Repository interface {
	// Create returns apperr.ErrConflict if the campaign already has an open dispute.
	Create(ctx context.Context, dispute *Dispute) error
	GetByID(ctx context.Context, disputeID uuid.UUID) (*Dispute, error)
	HasOpenForCampaign(ctx context.Context, campaignID uuid.UUID) (bool, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Dispute, int, error)

	// Append operations only apply to open disputes and trim the log to MaxLogEntries.
	AppendEvidence(ctx context.Context, disputeID uuid.UUID, evidence []Evidence) (bool, error)
	AppendMessage(ctx context.Context, disputeID uuid.UUID, message Message) (bool, error)

	// Resolve records the decision only if none exists yet; false means it was already decided.
	Resolve(ctx context.Context, disputeID uuid.UUID, status Status, resolution Resolution) (bool, error)
}
