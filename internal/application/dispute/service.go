package dispute

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/collabmarket/settlement-hub/internal/application/audit"
	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	"github.com/collabmarket/settlement-hub/internal/domain/audit"
	"github.com/collabmarket/settlement-hub/internal/domain/campaign"
	"github.com/collabmarket/settlement-hub/internal/domain/dispute"
	"github.com/collabmarket/settlement-hub/internal/domain/proposal"
	"github.com/collabmarket/settlement-hub/internal/domain/user"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service raises and resolves campaign disputes.
type Service struct {
	disputeRepo  dispute.Repository
	campaignRepo campaign.Repository
	proposalRepo proposal.Repository
	auditSvc     *appAudit.Service
	logger       zerolog.Logger
	now          func() time.Time
}

// NewService creates a dispute service.
func NewService(
	disputeRepo dispute.Repository,
	campaignRepo campaign.Repository,
	proposalRepo proposal.Repository,
	auditSvc *appAudit.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		disputeRepo:  disputeRepo,
		campaignRepo: campaignRepo,
		proposalRepo: proposalRepo,
		auditSvc:     auditSvc,
		logger:       logger.With().Str("service", "dispute").Logger(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type CreateInput struct {
	CampaignID    uuid.UUID
	Reason        string
	Description   string
	Evidence      []dispute.Evidence
	AgainstUserID *uuid.UUID
}

// Create opens a dispute and puts the campaign into the disputed state.
func (s *Service) Create(ctx context.Context, actor user.Actor, in CreateInput) (*dispute.Dispute, error) {
	if err := actor.Require(user.RoleBrand, user.RoleInfluencer); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if in.CampaignID == uuid.Nil || description == "" {
		return nil, fmt.Errorf("%w: campaignId and description are required", apperr.ErrInvalidInput)
	}

	camp, err := s.campaignRepo.GetByID(ctx, in.CampaignID)
	if err != nil {
		return nil, err
	}
	if camp == nil {
		return nil, fmt.Errorf("%w: campaign %s", apperr.ErrNotFound, in.CampaignID)
	}

	open, err := s.disputeRepo.HasOpenForCampaign(ctx, camp.ID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, fmt.Errorf("%w: an open dispute already exists for this campaign", apperr.ErrConflict)
	}

	against, err := s.counterparty(ctx, actor, camp, in.AgainstUserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	d := &dispute.Dispute{
		ID:           uuid.New(),
		CampaignID:   camp.ID,
		RaisedBy:     actor.UserID,
		Against:      against,
		RoleOfRaiser: string(actor.Role),
		Reason:       dispute.NormalizeReason(in.Reason),
		Description:  description,
		Status:       dispute.StatusPending,
		Evidence:     dispute.NormalizeEvidence(in.Evidence, actor.UserID, now),
		Messages:     []dispute.Message{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Freeze the campaign first; an open dispute never coexists with a payable campaign.
	freeze := campaign.StatusChange{CampaignID: camp.ID, From: camp.Status, To: campaign.StatusDisputed, At: now}
	if err := s.campaignRepo.Transition(ctx, freeze); err != nil {
		return nil, fmt.Errorf("mark campaign disputed: %w", err)
	}
	if err := s.disputeRepo.Create(ctx, d); err != nil {
		if !errors.Is(err, apperr.ErrConflict) {
			s.unfreeze(ctx, freeze)
		}
		return nil, err
	}

	s.logger.Info().
		Str("disputeId", d.ID.String()).
		Str("campaignId", camp.ID.String()).
		Str("raisedBy", actor.String()).
		Str("reason", string(d.Reason)).
		Msg("dispute opened")
	return d, nil
}

// unfreeze restores the status a campaign had before a dispute that failed to persist.
func (s *Service) unfreeze(ctx context.Context, freeze campaign.StatusChange) {
	if freeze.From == campaign.StatusDisputed {
		return
	}
	restore := campaign.StatusChange{CampaignID: freeze.CampaignID, From: campaign.StatusDisputed, To: freeze.From, At: s.now()}
	if err := s.campaignRepo.Transition(ctx, restore); err != nil {
		s.logger.Error().Err(err).
			Str("campaignId", freeze.CampaignID.String()).
			Str("status", string(freeze.From)).
			Msg("failed to restore campaign after dispute create failed")
	}
}

// counterparty validates the raiser's standing and resolves who the dispute is against.
func (s *Service) counterparty(ctx context.Context, actor user.Actor, camp *campaign.Campaign, explicit *uuid.UUID) (*uuid.UUID, error) {
	switch actor.Role {
	case user.RoleBrand:
		if camp.BrandID != actor.UserID {
			return nil, fmt.Errorf("%w: you do not own this campaign", apperr.ErrForbidden)
		}
		if explicit != nil {
			return explicit, nil
		}
		accepted := proposal.StatusAccepted
		props, err := s.proposalRepo.ListByCampaign(ctx, proposal.Filter{CampaignID: camp.ID, Status: &accepted})
		if err != nil {
			return nil, err
		}
		if len(props) == 0 {
			return nil, nil
		}
		id := props[0].InfluencerID
		return &id, nil
	default:
		prop, err := s.proposalRepo.GetForInfluencer(ctx, camp.ID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if prop == nil || !prop.CanRaiseDispute() {
			return nil, fmt.Errorf("%w: you are not part of this campaign", apperr.ErrForbidden)
		}
		if explicit != nil {
			return explicit, nil
		}
		id := camp.BrandID
		return &id, nil
	}
}

type ListInput struct {
	Status     *dispute.Status
	CampaignID *uuid.UUID
	Page       int
	Limit      int
}

type ListResult struct {
	Disputes []*dispute.Dispute `json:"disputes"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	Limit    int                `json:"limit"`
}

// List returns disputes visible to the actor: all for admins, otherwise those the actor is party to.
func (s *Service) List(ctx context.Context, actor user.Actor, in ListInput) (*ListResult, error) {
	if err := actor.Require(user.RoleAdmin, user.RoleBrand, user.RoleInfluencer); err != nil {
		return nil, err
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := in.Page
	if page < 1 {
		page = 1
	}
	filter := dispute.Filter{Status: in.Status, CampaignID: in.CampaignID}
	if !actor.IsAdmin() {
		id := actor.UserID
		filter.Participant = &id
	}
	items, total, err := s.disputeRepo.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list disputes: %w", err)
	}
	return &ListResult{Disputes: items, Total: total, Page: page, Limit: limit}, nil
}

// Get returns one dispute if the actor may see it.
func (s *Service) Get(ctx context.Context, actor user.Actor, disputeID uuid.UUID) (*dispute.Dispute, error) {
	return s.load(ctx, actor, disputeID, "view")
}

func (s *Service) load(ctx context.Context, actor user.Actor, disputeID uuid.UUID, verb string) (*dispute.Dispute, error) {
	if err := actor.Require(user.RoleAdmin, user.RoleBrand, user.RoleInfluencer); err != nil {
		return nil, err
	}
	d, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: dispute %s", apperr.ErrNotFound, disputeID)
	}
	if !actor.IsAdmin() && !d.IsParticipant(actor.UserID) {
		return nil, fmt.Errorf("%w: not allowed to %s this dispute", apperr.ErrForbidden, verb)
	}
	return d, nil
}

// AddEvidence appends evidence to an open dispute.
func (s *Service) AddEvidence(ctx context.Context, actor user.Actor, disputeID uuid.UUID, evidence []dispute.Evidence) (*dispute.Dispute, error) {
	d, err := s.load(ctx, actor, disputeID, "add evidence to")
	if err != nil {
		return nil, err
	}
	if !d.Status.IsOpen() {
		return nil, fmt.Errorf("%w: dispute is closed and cannot accept new evidence", apperr.ErrPrecondition)
	}
	entries := dispute.NormalizeEvidence(evidence, actor.UserID, s.now())
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: evidence requires a url or text", apperr.ErrInvalidInput)
	}
	ok, err := s.disputeRepo.AppendEvidence(ctx, disputeID, entries)
	if err != nil {
		return nil, fmt.Errorf("append evidence: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: dispute is closed and cannot accept new evidence", apperr.ErrPrecondition)
	}
	return s.disputeRepo.GetByID(ctx, disputeID)
}

type MessageInput struct {
	Message     string
	Attachments []string
}

// AddMessage appends a participant message to an open dispute.
func (s *Service) AddMessage(ctx context.Context, actor user.Actor, disputeID uuid.UUID, in MessageInput) (*dispute.Dispute, error) {
	text := strings.TrimSpace(in.Message)
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", apperr.ErrInvalidInput)
	}
	d, err := s.load(ctx, actor, disputeID, "post messages to")
	if err != nil {
		return nil, err
	}
	if !d.Status.IsOpen() {
		return nil, fmt.Errorf("%w: dispute is closed and cannot accept new messages", apperr.ErrPrecondition)
	}
	msg := dispute.Message{
		SenderID:    actor.UserID,
		Message:     text,
		Attachments: append([]string{}, in.Attachments...),
		CreatedAt:   s.now(),
	}
	ok, err := s.disputeRepo.AppendMessage(ctx, disputeID, msg)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: dispute is closed and cannot accept new messages", apperr.ErrPrecondition)
	}
	return s.disputeRepo.GetByID(ctx, disputeID)
}

type DecisionInput struct {
	Decision dispute.Decision
	Notes    string
	Amount   *float64
}

// Decide records the final admin ruling and applies its effect to the campaign.
func (s *Service) Decide(ctx context.Context, actor user.Actor, disputeID uuid.UUID, in DecisionInput) (*dispute.Dispute, error) {
	if err := actor.Require(user.RoleAdmin); err != nil {
		return nil, err
	}
	if !in.Decision.Valid() {
		return nil, fmt.Errorf("%w: invalid decision %q", apperr.ErrInvalidInput, in.Decision)
	}
	if in.Decision.RequiresAmount() && (in.Amount == nil || *in.Amount <= 0) {
		return nil, fmt.Errorf("%w: amount is required and must be greater than 0 for this decision", apperr.ErrInvalidInput)
	}

	d, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: dispute %s", apperr.ErrNotFound, disputeID)
	}
	if d.Decided() {
		return nil, errDecisionFinal
	}

	now := s.now()
	resolution := dispute.Resolution{
		Decision:   in.Decision,
		DecisionBy: actor.UserID,
		Notes:      strings.TrimSpace(in.Notes),
		Amount:     in.Amount,
		DecidedAt:  now,
	}
	ok, err := s.disputeRepo.Resolve(ctx, disputeID, in.Decision.ResultingStatus(), resolution)
	if err != nil {
		return nil, fmt.Errorf("resolve dispute: %w", err)
	}
	if !ok {
		return nil, errDecisionFinal
	}

	if err := s.applyToCampaign(ctx, d, in.Decision, now); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityDispute,
		EntityID:   disputeID.String(),
		Action:     audit.ActionDisputeDecided,
		Actor:      actor.String(),
		ActorRole:  string(actor.Role),
		OldValues:  map[string]string{"status": string(d.Status)},
		NewValues:  resolution,
		Reason:     resolution.Notes,
		RiskLevel:  audit.RiskLevelHigh,
	})
	s.logger.Info().
		Str("disputeId", disputeID.String()).
		Str("campaignId", d.CampaignID.String()).
		Str("decision", string(in.Decision)).
		Msg("dispute decided")

	return s.disputeRepo.GetByID(ctx, disputeID)
}

var errDecisionFinal = fmt.Errorf("%w: admin decision is final and cannot be changed", apperr.ErrPrecondition)

func (s *Service) applyToCampaign(ctx context.Context, d *dispute.Dispute, decision dispute.Decision, now time.Time) error {
	camp, err := s.campaignRepo.GetByID(ctx, d.CampaignID)
	if err != nil {
		return err
	}
	if camp == nil {
		s.logger.Warn().Str("disputeId", d.ID.String()).Msg("dispute campaign no longer exists")
		return nil
	}
	change := campaign.StatusChange{
		CampaignID:      camp.ID,
		From:            camp.Status,
		To:              decision.CampaignStatus(),
		ResetCompletion: decision == dispute.DecisionRedoWork,
		At:              now,
	}
	if change.ResetCompletion {
		n, err := s.proposalRepo.ResetCompletion(ctx, camp.ID, d.Parties())
		if err != nil {
			return fmt.Errorf("reset proposal completion: %w", err)
		}
		s.logger.Debug().Int64("proposals", n).Str("campaignId", camp.ID.String()).Msg("completion reset for redo")
	}
	if err := s.campaignRepo.Transition(ctx, change); err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	return nil
}

// IsCampaignDisputed reports whether the campaign has an open dispute.
func (s *Service) IsCampaignDisputed(ctx context.Context, campaignID uuid.UUID) (bool, error) {
	return s.disputeRepo.HasOpenForCampaign(ctx, campaignID)
}
