package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/collabmarket/settlement-hub/internal/application/audit"
	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	"github.com/collabmarket/settlement-hub/internal/domain/audit"
	"github.com/collabmarket/settlement-hub/internal/domain/campaign"
	"github.com/collabmarket/settlement-hub/internal/domain/ledger"
	"github.com/collabmarket/settlement-hub/internal/domain/payment"
	"github.com/collabmarket/settlement-hub/internal/domain/proposal"
	"github.com/collabmarket/settlement-hub/internal/domain/user"
)

// Service records brand payments that later fund influencer payouts.
type Service struct {
	proposalRepo proposal.Repository
	campaignRepo campaign.Repository
	ledgerRepo   ledger.Repository
	processor    payment.Processor
	auditSvc     *appAudit.Service
	currency     string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewService creates a brand payment service.
func NewService(
	proposalRepo proposal.Repository,
	campaignRepo campaign.Repository,
	ledgerRepo ledger.Repository,
	processor payment.Processor,
	auditSvc *appAudit.Service,
	currency string,
	logger zerolog.Logger,
) *Service {
	if currency == "" {
		currency = "usd"
	}
	return &Service{
		proposalRepo: proposalRepo,
		campaignRepo: campaignRepo,
		ledgerRepo:   ledgerRepo,
		processor:    processor,
		auditSvc:     auditSvc,
		currency:     currency,
		logger:       logger.With().Str("service", "payment").Logger(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type IntentResult struct {
	ProposalID      uuid.UUID `json:"proposalId"`
	TransactionID   uuid.UUID `json:"transactionId"`
	PaymentIntentID string    `json:"paymentIntentId"`
	ClientSecret    string    `json:"clientSecret"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
}

// CreateIntent starts the brand payment for an accepted proposal.
func (s *Service) CreateIntent(ctx context.Context, actor user.Actor, proposalID uuid.UUID) (*IntentResult, error) {
	if err := actor.Require(user.RoleBrand); err != nil {
		return nil, err
	}
	prop, camp, err := s.load(ctx, actor, proposalID)
	if err != nil {
		return nil, err
	}
	if !prop.IsAccepted() {
		return nil, fmt.Errorf("%w: proposal must be accepted before payment", apperr.ErrPrecondition)
	}
	if prop.Amount <= 0 {
		return nil, fmt.Errorf("%w: proposal amount must be greater than 0", apperr.ErrInvalidInput)
	}
	if prop.PaymentStatus == proposal.PaymentPaid || prop.PaymentStatus == proposal.PaymentReleased {
		return nil, fmt.Errorf("%w: proposal is already paid", apperr.ErrPrecondition)
	}

	intent, err := s.processor.CreatePaymentIntent(ctx, payment.IntentRequest{
		AmountCents: ledger.Cents(prop.Amount),
		Currency:    s.currency,
		Metadata: map[string]string{
			"proposalId": prop.ID.String(),
			"campaignId": camp.ID.String(),
			"brandId":    actor.UserID.String(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create payment intent: %v", apperr.ErrExternal, err)
	}

	txn := ledger.NewBrandPayment(actor.UserID, camp.ID, prop.ID, prop.Amount, s.currency, intent.ID)
	if err := s.ledgerRepo.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("record brand payment: %w", err)
	}

	attached, err := s.proposalRepo.AttachPaymentIntent(ctx, prop.ID, intent.ID, txn.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("update proposal: %w", err)
	}
	if !attached {
		return nil, fmt.Errorf("%w: proposal is already paid", apperr.ErrPrecondition)
	}

	s.logger.Info().
		Str("proposalId", prop.ID.String()).
		Str("paymentIntentId", intent.ID).
		Float64("amount", prop.Amount).
		Msg("payment intent created")
	return &IntentResult{
		ProposalID:      prop.ID,
		TransactionID:   txn.ID,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          prop.Amount,
		Currency:        s.currency,
	}, nil
}

type ConfirmInput struct {
	PaymentIntentID string
	ChargeID        string
}

// Confirm marks the brand payment as settled so the proposal can be paid out.
func (s *Service) Confirm(ctx context.Context, actor user.Actor, proposalID uuid.UUID, in ConfirmInput) (*ledger.Transaction, error) {
	if err := actor.Require(user.RoleBrand, user.RoleAdmin); err != nil {
		return nil, err
	}
	chargeID := strings.TrimSpace(in.ChargeID)
	if chargeID == "" {
		return nil, fmt.Errorf("%w: chargeId is required", apperr.ErrInvalidInput)
	}
	prop, _, err := s.load(ctx, actor, proposalID)
	if err != nil {
		return nil, err
	}
	if prop.PaymentIntentID == nil || prop.BrandTransactionID == nil {
		return nil, fmt.Errorf("%w: payment intent has not been created", apperr.ErrPrecondition)
	}
	if in.PaymentIntentID != "" && in.PaymentIntentID != *prop.PaymentIntentID {
		return nil, fmt.Errorf("%w: payment intent does not match proposal", apperr.ErrInvalidInput)
	}

	txn, err := s.ledgerRepo.GetByID(ctx, *prop.BrandTransactionID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, fmt.Errorf("%w: brand payment transaction missing", apperr.ErrPrecondition)
	}
	if txn.Status == ledger.StatusApproved {
		return txn, nil
	}

	now := s.now()
	txn.Status = ledger.StatusApproved
	txn.StripeChargeID = &chargeID
	txn.UpdatedAt = now
	if err := s.ledgerRepo.Update(ctx, txn); err != nil {
		return nil, fmt.Errorf("approve brand payment: %w", err)
	}
	if _, err := s.proposalRepo.SetPaymentStatus(ctx, prop.ID, proposal.PaymentPending, proposal.PaymentPaid, now); err != nil {
		return nil, fmt.Errorf("update proposal: %w", err)
	}

	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityProposal,
		EntityID:   prop.ID.String(),
		Action:     audit.ActionPaymentConfirmed,
		Actor:      actor.String(),
		ActorRole:  string(actor.Role),
		NewValues:  map[string]string{"transactionId": txn.ID.String(), "chargeId": chargeID},
		RiskLevel:  audit.RiskLevelMedium,
	})
	return txn, nil
}

func (s *Service) load(ctx context.Context, actor user.Actor, proposalID uuid.UUID) (*proposal.Proposal, *campaign.Campaign, error) {
	prop, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, nil, err
	}
	if prop == nil {
		return nil, nil, fmt.Errorf("%w: proposal %s", apperr.ErrNotFound, proposalID)
	}
	camp, err := s.campaignRepo.GetByID(ctx, prop.CampaignID)
	if err != nil {
		return nil, nil, err
	}
	if camp == nil {
		return nil, nil, fmt.Errorf("%w: campaign %s", apperr.ErrNotFound, prop.CampaignID)
	}
	if !actor.IsAdmin() && camp.BrandID != actor.UserID {
		return nil, nil, fmt.Errorf("%w: you do not own this campaign", apperr.ErrForbidden)
	}
	return prop, camp, nil
}
