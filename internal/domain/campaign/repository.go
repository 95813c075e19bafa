package campaign

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence for campaigns. GetByID returns nil, nil when absent.
//
// Writes never replace the whole row: every change is conditioned on the state the
// caller observed, so a dispute raised mid-request is never overwritten.
type Repository interface {
	GetByID(ctx context.Context, campaignID uuid.UUID) (*Campaign, error)
	// Transition applies change only while the stored status equals change.From and
	// returns apperr.ErrPrecondition otherwise.
	Transition(ctx context.Context, change StatusChange) error
	// MarkInfluencersDone sets the completion flag of an active campaign. False means the
	// campaign is no longer active or the flag was already set.
	MarkInfluencersDone(ctx context.Context, campaignID uuid.UUID, at time.Time) (bool, error)
}
