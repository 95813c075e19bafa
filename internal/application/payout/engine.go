package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	appAudit "github.com/collabmarket/settlement-hub/internal/application/audit"
	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	"github.com/collabmarket/settlement-hub/internal/domain/audit"
	"github.com/collabmarket/settlement-hub/internal/domain/campaign"
	"github.com/collabmarket/settlement-hub/internal/domain/ledger"
	"github.com/collabmarket/settlement-hub/internal/domain/payment"
	"github.com/collabmarket/settlement-hub/internal/domain/proposal"
	"github.com/collabmarket/settlement-hub/internal/domain/user"
)

// Policy controls how a payout reacts to an unmet precondition.
type Policy int

const (
	// PolicySkip reports problems in the Outcome and, for processor failures, leaves a
	// pending payout transaction behind. Used by campaign finalization.
	PolicySkip Policy = iota
	// PolicyFail returns problems as errors and persists nothing on failure. Used by manual payouts.
	PolicyFail
)

func (p Policy) String() string {
	if p == PolicyFail {
		return "fail"
	}
	return "skip"
}

type OutcomeStatus string

const (
	OutcomePaid    OutcomeStatus = "paid"
	OutcomePending OutcomeStatus = "pending"
	OutcomeSkipped OutcomeStatus = "skipped"
)

const (
	ReasonAlreadyPaid        = "already_paid"
	ReasonProposalNotFound   = "proposal_not_found"
	ReasonCampaignNotPayable = "campaign_not_payable"
	ReasonNoBrandPayment     = "no_brand_payment"
	ReasonPaymentNotPaid     = "payment_not_paid"
	ReasonInvalidSource      = "invalid_payment_source"
	ReasonAmountTooSmall     = "amount_too_small"
	ReasonMissingDestination = "missing_destination"
	ReasonNotPayoutCapable   = "destination_not_payout_capable"
	ReasonAccountCheckFailed = "account_check_failed"
	ReasonTransferFailed     = "transfer_failed"
	ReasonPayoutRejected     = "payout_rejected"
)

// Outcome describes what a payout attempt did for one proposal.
type Outcome struct {
	ProposalID       uuid.UUID     `json:"proposalId"`
	Status           OutcomeStatus `json:"status"`
	Reason           string        `json:"reason,omitempty"`
	TransactionID    *uuid.UUID    `json:"transactionId,omitempty"`
	TransferID       string        `json:"transferId,omitempty"`
	AppFee           float64       `json:"appFee,omitempty"`
	InfluencerAmount float64       `json:"influencerAmount,omitempty"`
}

// Config holds the money settings of the engine.
type Config struct {
	Currency string
	Fees     ledger.FeePolicy
}

// Engine pays influencers out of approved brand payments.
type Engine struct {
	proposals proposal.Repository
	campaigns campaign.Repository
	ledger    ledger.Repository
	users     user.Directory
	processor payment.Processor
	locker    Locker
	auditSvc  *appAudit.Service
	cfg       Config
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEngine creates a payout engine. A nil locker falls back to an in-process lock.
func NewEngine(
	proposals proposal.Repository,
	campaigns campaign.Repository,
	ledgerRepo ledger.Repository,
	users user.Directory,
	processor payment.Processor,
	locker Locker,
	auditSvc *appAudit.Service,
	cfg Config,
	logger zerolog.Logger,
) *Engine {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &Engine{
		proposals: proposals,
		campaigns: campaigns,
		ledger:    ledgerRepo,
		users:     users,
		processor: processor,
		locker:    locker,
		auditSvc:  auditSvc,
		cfg:       cfg,
		tracer:    otel.Tracer("github.com/collabmarket/settlement-hub/internal/application/payout"),
		logger:    logger.With().Str("service", "payout").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Execute runs the payout for one proposal under policy. Re-invocation never creates a
// second payout transaction: an approved payout is reported as already paid and a pending
// one is retried in place.
func (e *Engine) Execute(ctx context.Context, proposalID uuid.UUID, policy Policy) (out *Outcome, err error) {
	ctx, span := e.tracer.Start(ctx, "payout.Execute", trace.WithAttributes(
		attribute.String("proposal.id", proposalID.String()),
		attribute.String("payout.policy", policy.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else if out != nil {
			span.SetAttributes(
				attribute.String("payout.status", string(out.Status)),
				attribute.String("payout.reason", out.Reason),
			)
		}
		span.End()
	}()

	unlock, err := e.locker.Lock(ctx, "payout:"+proposalID.String())
	if err != nil {
		return nil, fmt.Errorf("acquire payout lock: %w", err)
	}
	defer unlock()

	return e.execute(ctx, proposalID, policy)
}

func (e *Engine) execute(ctx context.Context, proposalID uuid.UUID, policy Policy) (*Outcome, error) {
	out := &Outcome{ProposalID: proposalID}

	prop, err := e.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return e.reject(policy, out, ReasonProposalNotFound, apperr.ErrNotFound, "proposal not found")
	}

	existing, err := e.existingPayout(ctx, prop)
	if err != nil {
		return nil, err
	}
	if existing != nil && (existing.Status == ledger.StatusApproved || existing.Transferred()) {
		id := existing.ID
		out.Status = OutcomeSkipped
		out.Reason = ReasonAlreadyPaid
		out.TransactionID = &id
		return out, nil
	}
	if existing != nil && existing.Status == ledger.StatusRejected {
		return e.reject(policy, out, ReasonPayoutRejected, apperr.ErrPrecondition, "payout transaction was rejected")
	}

	camp, err := e.campaigns.GetByID(ctx, prop.CampaignID)
	if err != nil {
		return nil, err
	}
	if camp == nil || camp.Status != campaign.StatusCompleted {
		return e.reject(policy, out, ReasonCampaignNotPayable, apperr.ErrPrecondition, notPayable(camp))
	}

	if prop.BrandTransactionID == nil {
		return e.reject(policy, out, ReasonNoBrandPayment, apperr.ErrPrecondition, "proposal has no brand payment")
	}
	if prop.PaymentStatus != proposal.PaymentPaid {
		return e.reject(policy, out, ReasonPaymentNotPaid, apperr.ErrPrecondition, "brand payment is not completed")
	}
	source, err := e.ledger.GetByID(ctx, *prop.BrandTransactionID)
	if err != nil {
		return nil, err
	}
	if source == nil || !source.CanFundPayout() {
		return e.reject(policy, out, ReasonInvalidSource, apperr.ErrPrecondition, "brand payment transaction is not an approved payment")
	}

	split := e.cfg.Fees.Split(source.Amount)
	out.AppFee = split.AppFee.InexactFloat64()
	out.InfluencerAmount = split.InfluencerAmount.InexactFloat64()
	if split.InfluencerCents() <= 0 {
		return e.reject(policy, out, ReasonAmountTooSmall, apperr.ErrPrecondition, "payout amount rounds to zero")
	}

	payout := existing
	if payout == nil {
		payout = ledger.NewPayout(prop.InfluencerID, source, split, e.cfg.Currency)
	}

	destination, reason, cause := e.checkDestination(ctx, prop.InfluencerID)
	if reason != "" {
		if policy == PolicyFail {
			return nil, fmt.Errorf("%w: %s", apperr.ErrPrecondition, describe(reason, cause))
		}
		return e.leavePending(ctx, prop, payout, existing != nil, out, reason, cause)
	}

	req := payment.TransferRequest{
		AmountCents:    split.InfluencerCents(),
		Currency:       e.cfg.Currency,
		Destination:    destination,
		IdempotencyKey: "payout:" + payout.ID.String(),
		Metadata: map[string]string{
			"proposalId":          prop.ID.String(),
			"campaignId":          prop.CampaignID.String(),
			"influencerId":        prop.InfluencerID.String(),
			"sourceTransactionId": source.ID.String(),
		},
	}
	if source.StripeChargeID != nil {
		req.SourceChargeID = *source.StripeChargeID
	}
	transfer, err := e.processor.CreateTransfer(ctx, req)
	if err != nil {
		if policy == PolicyFail {
			return nil, fmt.Errorf("%w: transfer failed: %v", apperr.ErrExternal, err)
		}
		return e.leavePending(ctx, prop, payout, existing != nil, out, ReasonTransferFailed, err)
	}

	now := e.now()
	payout.MarkTransferred(transfer.ID, now)
	if existing != nil {
		if err := e.ledger.Update(ctx, payout); err != nil {
			e.logger.Error().Err(err).
				Str("proposalId", prop.ID.String()).
				Str("transferId", transfer.ID).
				Msg("transfer issued but payout transaction update failed")
			return nil, fmt.Errorf("update payout transaction: %w", err)
		}
	} else if err := e.ledger.Create(ctx, payout); err != nil {
		e.logger.Error().Err(err).
			Str("proposalId", prop.ID.String()).
			Str("transferId", transfer.ID).
			Msg("transfer issued but payout transaction insert failed")
		if errors.Is(err, apperr.ErrConflict) {
			out.Status = OutcomeSkipped
			out.Reason = ReasonAlreadyPaid
			return out, nil
		}
		return nil, fmt.Errorf("create payout transaction: %w", err)
	}
	if err := e.link(ctx, prop, payout.ID, proposal.PaymentReleased); err != nil {
		return nil, err
	}

	id := payout.ID
	out.Status = OutcomePaid
	out.TransactionID = &id
	out.TransferID = transfer.ID
	e.logger.Info().
		Str("proposalId", prop.ID.String()).
		Str("transactionId", id.String()).
		Str("transferId", transfer.ID).
		Float64("influencerAmount", out.InfluencerAmount).
		Float64("appFee", out.AppFee).
		Msg("payout transferred")
	return out, nil
}

// existingPayout returns the payout already recorded for the proposal, by link or by lookup.
func (e *Engine) existingPayout(ctx context.Context, prop *proposal.Proposal) (*ledger.Transaction, error) {
	if prop.PayoutTransactionID != nil {
		txn, err := e.ledger.GetByID(ctx, *prop.PayoutTransactionID)
		if err != nil {
			return nil, err
		}
		if txn != nil {
			return txn, nil
		}
	}
	return e.ledger.GetPayoutForProposal(ctx, prop.ID)
}

func (e *Engine) checkDestination(ctx context.Context, influencerID uuid.UUID) (string, string, error) {
	influencer, err := e.users.GetByID(ctx, influencerID)
	if err != nil {
		return "", ReasonAccountCheckFailed, err
	}
	if influencer == nil || influencer.StripeAccountID == "" {
		return "", ReasonMissingDestination, nil
	}
	acct, err := e.processor.RetrieveAccount(ctx, influencer.StripeAccountID)
	if err != nil {
		return "", ReasonAccountCheckFailed, err
	}
	if !acct.PayoutCapable() {
		return "", ReasonNotPayoutCapable, nil
	}
	return influencer.StripeAccountID, "", nil
}

// leavePending records (or keeps) a pending payout without transfer id so a later run can finish it.
func (e *Engine) leavePending(ctx context.Context, prop *proposal.Proposal, payout *ledger.Transaction, persisted bool, out *Outcome, reason string, cause error) (*Outcome, error) {
	e.logger.Warn().Err(cause).
		Str("proposalId", prop.ID.String()).
		Str("reason", reason).
		Msg("payout left pending")

	if !persisted {
		if err := e.ledger.Create(ctx, payout); err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				out.Status = OutcomeSkipped
				out.Reason = ReasonAlreadyPaid
				return out, nil
			}
			return nil, fmt.Errorf("create pending payout transaction: %w", err)
		}
	}
	if err := e.link(ctx, prop, payout.ID, prop.PaymentStatus); err != nil {
		return nil, err
	}
	id := payout.ID
	out.Status = OutcomePending
	out.Reason = reason
	out.TransactionID = &id
	return out, nil
}

func (e *Engine) link(ctx context.Context, prop *proposal.Proposal, txnID uuid.UUID, status proposal.PaymentStatus) error {
	if prop.PayoutTransactionID != nil && *prop.PayoutTransactionID == txnID {
		if prop.PaymentStatus == status {
			return nil
		}
		if _, err := e.proposals.SetPaymentStatus(ctx, prop.ID, prop.PaymentStatus, status, e.now()); err != nil {
			return fmt.Errorf("update proposal payment status: %w", err)
		}
		return nil
	}
	linked, err := e.proposals.SetPayoutTransaction(ctx, prop.ID, txnID, status)
	if err != nil {
		return fmt.Errorf("link payout transaction: %w", err)
	}
	if !linked {
		e.logger.Warn().
			Str("proposalId", prop.ID.String()).
			Str("transactionId", txnID.String()).
			Msg("proposal already linked to another payout transaction")
	}
	return nil
}

func (e *Engine) reject(policy Policy, out *Outcome, reason string, sentinel error, msg string) (*Outcome, error) {
	if policy == PolicyFail {
		return nil, fmt.Errorf("%w: %s", sentinel, msg)
	}
	out.Status = OutcomeSkipped
	out.Reason = reason
	return out, nil
}

func notPayable(camp *campaign.Campaign) string {
	if camp == nil {
		return "campaign not found"
	}
	return fmt.Sprintf("campaign is %s; only completed campaigns can be paid out", camp.Status)
}

func describe(reason string, cause error) string {
	switch reason {
	case ReasonMissingDestination:
		return "influencer has no connected payout account"
	case ReasonNotPayoutCapable:
		return "influencer payout account cannot receive payouts yet"
	}
	if cause != nil {
		return "payout account check failed: " + cause.Error()
	}
	return reason
}

// ManualPayout lets an admin pay out one approved proposal, surfacing every failure.
func (e *Engine) ManualPayout(ctx context.Context, actor user.Actor, proposalID uuid.UUID) (*Outcome, error) {
	if err := actor.Require(user.RoleAdmin); err != nil {
		return nil, err
	}
	prop, err := e.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, fmt.Errorf("%w: proposal %s", apperr.ErrNotFound, proposalID)
	}
	if !prop.AdminApprovedCompletion {
		return nil, fmt.Errorf("%w: campaign completion must be approved by admin before payout", apperr.ErrPrecondition)
	}

	out, err := e.Execute(ctx, proposalID, PolicyFail)
	if err != nil {
		return nil, err
	}
	e.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityProposal,
		EntityID:   proposalID.String(),
		Action:     audit.ActionManualPayout,
		Actor:      actor.String(),
		ActorRole:  string(actor.Role),
		NewValues:  out,
		RiskLevel:  audit.RiskLevelHigh,
	})
	return out, nil
}

// AccountStatus is the influencer's payout account onboarding state.
type AccountStatus struct {
	Connected        bool   `json:"connected"`
	AccountID        string `json:"accountId,omitempty"`
	DetailsSubmitted bool   `json:"detailsSubmitted"`
	PayoutsEnabled   bool   `json:"payoutsEnabled"`
	ChargesEnabled   bool   `json:"chargesEnabled"`
}

// AccountStatus reports whether the calling influencer can receive payouts.
func (e *Engine) AccountStatus(ctx context.Context, actor user.Actor) (*AccountStatus, error) {
	if err := actor.Require(user.RoleInfluencer); err != nil {
		return nil, err
	}
	u, err := e.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, actor.UserID)
	}
	if u.StripeAccountID == "" {
		return &AccountStatus{}, nil
	}
	acct, err := e.processor.RetrieveAccount(ctx, u.StripeAccountID)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve payout account: %v", apperr.ErrExternal, err)
	}
	return &AccountStatus{
		Connected:        acct.Connected(),
		AccountID:        u.StripeAccountID,
		DetailsSubmitted: acct.DetailsSubmitted,
		PayoutsEnabled:   acct.PayoutsEnabled,
		ChargesEnabled:   acct.ChargesEnabled,
	}, nil
}
