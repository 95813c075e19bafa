package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	"github.com/collabmarket/settlement-hub/internal/domain/campaign"
	"github.com/collabmarket/settlement-hub/internal/domain/proposal"
	"github.com/collabmarket/settlement-hub/internal/domain/user"
)

const (
	msgWaitingForAdmin  = "Campaign marked as completed. All collaborating influencers have completed; waiting for admin to finalize."
	msgWaitingForOthers = "Campaign marked as completed by you. Waiting for other influencers to complete."
	msgAlreadyMarked    = "You have already marked this campaign as completed."
)

// Result is the completion aggregate after a mark request.
type Result struct {
	CampaignID       uuid.UUID `json:"campaignId"`
	ThresholdReached bool      `json:"thresholdReached"`
	CompletedCount   int       `json:"completedCount"`
	Required         int       `json:"required"`
	AlreadyMarked    bool      `json:"alreadyMarked"`
	Message          string    `json:"message"`
}

// Coordinator records influencer self-reported completion and tracks the campaign threshold.
type Coordinator struct {
	campaignRepo campaign.Repository
	proposalRepo proposal.Repository
	policy       *Policy
	logger       zerolog.Logger
	now          func() time.Time
}

// NewCoordinator creates a completion coordinator. A nil policy uses DefaultRule.
func NewCoordinator(
	campaignRepo campaign.Repository,
	proposalRepo proposal.Repository,
	policy *Policy,
	logger zerolog.Logger,
) *Coordinator {
	if policy == nil {
		policy, _ = NewPolicy(DefaultRule)
	}
	return &Coordinator{
		campaignRepo: campaignRepo,
		proposalRepo: proposalRepo,
		policy:       policy,
		logger:       logger.With().Str("service", "completion").Logger(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// MarkInfluencerComplete flags the actor's accepted proposal as complete. Repeated calls are
// no-ops that report the current aggregate.
func (c *Coordinator) MarkInfluencerComplete(ctx context.Context, actor user.Actor, campaignID uuid.UUID) (*Result, error) {
	if err := actor.Require(user.RoleInfluencer); err != nil {
		return nil, err
	}
	camp, err := c.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if camp == nil {
		return nil, fmt.Errorf("%w: campaign %s", apperr.ErrNotFound, campaignID)
	}
	if camp.Status != campaign.StatusActive {
		return nil, fmt.Errorf("%w: only active campaigns can be marked as completed by influencer", apperr.ErrPrecondition)
	}

	prop, err := c.proposalRepo.GetForInfluencer(ctx, campaignID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if prop == nil || !prop.IsAccepted() {
		return nil, fmt.Errorf("%w: you do not have an accepted proposal for this campaign", apperr.ErrForbidden)
	}

	now := c.now()
	alreadyMarked := prop.InfluencerMarkedComplete
	if !alreadyMarked {
		updated, err := c.proposalRepo.MarkInfluencerComplete(ctx, prop.ID, now)
		if err != nil {
			return nil, fmt.Errorf("mark proposal complete: %w", err)
		}
		alreadyMarked = !updated
	}

	// Recount after the write so concurrent marks converge on the same aggregate.
	count, err := c.proposalRepo.CountCompleted(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("count completed proposals: %w", err)
	}
	required := camp.RequiredCompletions()
	reached, err := c.policy.Reached(count, required)
	if err != nil {
		return nil, fmt.Errorf("evaluate completion rule: %w", err)
	}

	if reached && !camp.InfluencerCompleted {
		flagged, err := c.campaignRepo.MarkInfluencersDone(ctx, campaignID, now)
		if err != nil {
			return nil, fmt.Errorf("flag campaign completion: %w", err)
		}
		if flagged {
			c.logger.Info().
				Str("campaignId", campaignID.String()).
				Int("completed", count).
				Int("required", required).
				Msg("campaign ready for admin finalization")
		} else if err := c.ensureActive(ctx, campaignID); err != nil {
			return nil, err
		}
	}

	res := &Result{
		CampaignID:       campaignID,
		ThresholdReached: reached,
		CompletedCount:   count,
		Required:         required,
		AlreadyMarked:    alreadyMarked,
	}
	switch {
	case alreadyMarked:
		res.Message = msgAlreadyMarked
	case reached:
		res.Message = msgWaitingForAdmin
	default:
		res.Message = msgWaitingForOthers
	}
	return res, nil
}

// ensureActive re-reads a campaign whose completion flag could not be set; a campaign
// that left the active state in the meantime (for example through a dispute) fails the mark.
func (c *Coordinator) ensureActive(ctx context.Context, campaignID uuid.UUID) error {
	camp, err := c.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if camp == nil || camp.Status != campaign.StatusActive {
		return fmt.Errorf("%w: campaign is no longer active", apperr.ErrPrecondition)
	}
	return nil
}
