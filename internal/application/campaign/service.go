package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/collabmarket/settlement-hub/internal/application/audit"
	"github.com/collabmarket/settlement-hub/internal/application/completion"
	appOutbox "github.com/collabmarket/settlement-hub/internal/application/outbox"
	"github.com/collabmarket/settlement-hub/internal/application/payout"
	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	"github.com/collabmarket/settlement-hub/internal/domain/audit"
	"github.com/collabmarket/settlement-hub/internal/domain/campaign"
	"github.com/collabmarket/settlement-hub/internal/domain/proposal"
	"github.com/collabmarket/settlement-hub/internal/domain/user"
)

// Result is the campaign after a status change plus the payouts it triggered.
type Result struct {
	Campaign *campaign.Campaign `json:"campaign"`
	Payouts  []*payout.Outcome  `json:"payouts,omitempty"`
}

// Service finalizes campaigns on behalf of admins.
type Service struct {
	campaignRepo campaign.Repository
	proposalRepo proposal.Repository
	users        user.Directory
	payouts      *payout.Engine
	dispatcher   *appOutbox.Dispatcher
	auditSvc     *appAudit.Service
	policy       *completion.Policy
	logger       zerolog.Logger
	now          func() time.Time
}

// NewService creates a campaign finalization service.
func NewService(
	campaignRepo campaign.Repository,
	proposalRepo proposal.Repository,
	users user.Directory,
	payouts *payout.Engine,
	dispatcher *appOutbox.Dispatcher,
	auditSvc *appAudit.Service,
	policy *completion.Policy,
	logger zerolog.Logger,
) *Service {
	if policy == nil {
		policy, _ = completion.NewPolicy(completion.DefaultRule)
	}
	return &Service{
		campaignRepo: campaignRepo,
		proposalRepo: proposalRepo,
		users:        users,
		payouts:      payouts,
		dispatcher:   dispatcher,
		auditSvc:     auditSvc,
		policy:       policy,
		logger:       logger.With().Str("service", "campaign").Logger(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetStatus moves a campaign to status. Completing a campaign approves every marked
// proposal and pays each of them out; payout problems are reported per proposal and
// never fail the status change.
func (s *Service) SetStatus(ctx context.Context, actor user.Actor, campaignID uuid.UUID, status campaign.Status) (*Result, error) {
	if err := actor.Require(user.RoleAdmin); err != nil {
		return nil, err
	}
	if !campaign.AdminSettable(status) {
		return nil, fmt.Errorf("%w: invalid status %q", apperr.ErrInvalidInput, status)
	}
	camp, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if camp == nil {
		return nil, fmt.Errorf("%w: campaign %s", apperr.ErrNotFound, campaignID)
	}
	if camp.Status == campaign.StatusDisputed {
		return nil, fmt.Errorf("%w: campaign is under dispute; only a dispute decision can change its status", apperr.ErrPrecondition)
	}

	previous := camp.Status
	if status != campaign.StatusCompleted {
		if err := s.transition(ctx, camp, status, s.now()); err != nil {
			return nil, err
		}
		s.record(ctx, actor, camp, previous)
		return &Result{Campaign: camp}, nil
	}

	accepted := proposal.StatusAccepted
	marked := true
	done, err := s.proposalRepo.ListByCampaign(ctx, proposal.Filter{
		CampaignID:     campaignID,
		Status:         &accepted,
		MarkedComplete: &marked,
	})
	if err != nil {
		return nil, fmt.Errorf("list completed proposals: %w", err)
	}
	if len(done) == 0 {
		return nil, fmt.Errorf("%w: at least one influencer must mark the campaign as completed", apperr.ErrPrecondition)
	}
	required := camp.RequiredCompletions()
	reached, err := s.policy.Reached(len(done), required)
	if err != nil {
		return nil, fmt.Errorf("evaluate completion rule: %w", err)
	}
	if !reached {
		return nil, fmt.Errorf("%w: All %d influencers must mark the campaign as completed before it can be completed (%d so far)",
			apperr.ErrPrecondition, required, len(done))
	}

	now := s.now()
	if err := s.transition(ctx, camp, campaign.StatusCompleted, now); err != nil {
		return nil, err
	}
	for _, p := range done {
		if err := s.proposalRepo.ApproveCompletion(ctx, p.ID, now); err != nil {
			return nil, fmt.Errorf("approve proposal %s: %w", p.ID, err)
		}
	}
	s.record(ctx, actor, camp, previous)

	res := &Result{Campaign: camp, Payouts: make([]*payout.Outcome, 0, len(done))}
	for _, p := range done {
		out, err := s.payouts.Execute(ctx, p.ID, payout.PolicySkip)
		if err != nil {
			s.logger.Error().Err(err).
				Str("campaignId", campaignID.String()).
				Str("proposalId", p.ID.String()).
				Msg("payout failed during campaign finalization")
			out = &payout.Outcome{ProposalID: p.ID, Status: payout.OutcomeSkipped, Reason: "internal_error"}
		}
		res.Payouts = append(res.Payouts, out)
	}

	s.announce(ctx, campaignID, done)
	return res, nil
}

// transition moves camp to status unless its stored status changed since it was read.
func (s *Service) transition(ctx context.Context, camp *campaign.Campaign, status campaign.Status, now time.Time) error {
	change := campaign.StatusChange{CampaignID: camp.ID, From: camp.Status, To: status, At: now}
	if err := s.campaignRepo.Transition(ctx, change); err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	camp.Apply(change)
	return nil
}

// announce posts the completion notice to the campaign chat; delivery is best-effort.
func (s *Service) announce(ctx context.Context, campaignID uuid.UUID, done []*proposal.Proposal) {
	if s.dispatcher == nil {
		return
	}
	names := make([]string, 0, len(done))
	for _, p := range done {
		u, err := s.users.GetByID(ctx, p.InfluencerID)
		if err != nil || u == nil {
			names = append(names, p.InfluencerID.String())
			continue
		}
		names = append(names, u.DisplayName())
	}
	text := "Campaign completed by: " + strings.Join(names, ", ")
	if _, err := s.dispatcher.EnqueueChatMessage(ctx, campaignID, text); err != nil {
		s.logger.Warn().Err(err).Str("campaignId", campaignID.String()).Msg("failed to enqueue completion message")
		return
	}
	s.dispatcher.Flush(ctx)
}

func (s *Service) record(ctx context.Context, actor user.Actor, camp *campaign.Campaign, previous campaign.Status) {
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityCampaign,
		EntityID:   camp.ID.String(),
		Action:     audit.ActionCampaignStatusChanged,
		Actor:      actor.String(),
		ActorRole:  string(actor.Role),
		OldValues:  map[string]string{"status": string(previous)},
		NewValues:  map[string]any{"status": string(camp.Status), "reviewEnabled": camp.ReviewEnabled},
		RiskLevel:  audit.RiskLevelMedium,
	})
	s.logger.Info().
		Str("campaignId", camp.ID.String()).
		Str("from", string(previous)).
		Str("to", string(camp.Status)).
		Str("actor", actor.String()).
		Msg("campaign status changed")
}
