package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	"github.com/collabmarket/settlement-hub/internal/domain/ledger"
	"github.com/collabmarket/settlement-hub/internal/domain/user"
)

const maxSummaryCampaigns = 100

// CampaignSummary aggregates the money flow of one campaign.
type CampaignSummary struct {
	CampaignID      *uuid.UUID `json:"campaignId,omitempty"`
	BrandSpend      float64    `json:"brandSpend"`
	PlatformFees    float64    `json:"platformFees"`
	InfluencerShare float64    `json:"influencerShare"`
	PaidOut         float64    `json:"paidOut"`
	PendingPayouts  float64    `json:"pendingPayouts"`
	Payments        int        `json:"payments"`
	Payouts         int        `json:"payouts"`
}

type Summary struct {
	Campaigns []CampaignSummary `json:"campaigns"`
	Totals    CampaignSummary   `json:"totals"`
}

// Service produces admin reporting over the ledger.
type Service struct {
	repo   ledger.Repository
	fees   ledger.FeePolicy
	logger zerolog.Logger
}

// NewService creates a ledger reporting service.
func NewService(repo ledger.Repository, fees ledger.FeePolicy, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		fees:   fees,
		logger: logger.With().Str("service", "ledger").Logger(),
	}
}

type accumulator struct {
	spend, fees, share, paid, pending decimal.Decimal
	payments, payouts                 int
}

func (a *accumulator) add(o *accumulator) {
	a.spend = a.spend.Add(o.spend)
	a.fees = a.fees.Add(o.fees)
	a.share = a.share.Add(o.share)
	a.paid = a.paid.Add(o.paid)
	a.pending = a.pending.Add(o.pending)
	a.payments += o.payments
	a.payouts += o.payouts
}

func (a *accumulator) summary(id *uuid.UUID) CampaignSummary {
	return CampaignSummary{
		CampaignID:      id,
		BrandSpend:      a.spend.Round(2).InexactFloat64(),
		PlatformFees:    a.fees.Round(2).InexactFloat64(),
		InfluencerShare: a.share.Round(2).InexactFloat64(),
		PaidOut:         a.paid.Round(2).InexactFloat64(),
		PendingPayouts:  a.pending.Round(2).InexactFloat64(),
		Payments:        a.payments,
		Payouts:         a.payouts,
	}
}

// Summary totals brand payments and payouts per campaign. Brand payments count while
// pending or approved; platform fees use the stored split or, when it is zero, the
// configured rate.
func (s *Service) Summary(ctx context.Context, actor user.Actor, campaignIDs []uuid.UUID) (*Summary, error) {
	if err := actor.Require(user.RoleAdmin); err != nil {
		return nil, err
	}
	if len(campaignIDs) == 0 {
		return nil, fmt.Errorf("%w: campaignIds is required", apperr.ErrInvalidInput)
	}
	if len(campaignIDs) > maxSummaryCampaigns {
		return nil, fmt.Errorf("%w: at most %d campaigns per summary", apperr.ErrInvalidInput, maxSummaryCampaigns)
	}

	txns, err := s.repo.ListByCampaigns(ctx, campaignIDs)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	byCampaign := make(map[uuid.UUID]*accumulator, len(campaignIDs))
	for _, id := range campaignIDs {
		byCampaign[id] = &accumulator{}
	}
	for _, t := range txns {
		acc, ok := byCampaign[t.CampaignID]
		if !ok {
			continue
		}
		if t.IsPayout {
			switch t.Status {
			case ledger.StatusApproved:
				acc.paid = acc.paid.Add(decimal.NewFromFloat(t.Amount))
				acc.payouts++
			case ledger.StatusPending:
				acc.pending = acc.pending.Add(decimal.NewFromFloat(t.Amount))
			}
			continue
		}
		if t.Status == ledger.StatusRejected {
			continue
		}
		fee, share := s.fees.EffectiveFee(t, t.Amount)
		acc.spend = acc.spend.Add(decimal.NewFromFloat(t.Amount))
		acc.fees = acc.fees.Add(decimal.NewFromFloat(fee))
		acc.share = acc.share.Add(decimal.NewFromFloat(share))
		acc.payments++
	}

	out := &Summary{Campaigns: make([]CampaignSummary, 0, len(campaignIDs))}
	total := &accumulator{}
	seen := make(map[uuid.UUID]struct{}, len(campaignIDs))
	for _, id := range campaignIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		id := id
		acc := byCampaign[id]
		out.Campaigns = append(out.Campaigns, acc.summary(&id))
		total.add(acc)
	}
	out.Totals = total.summary(nil)
	return out, nil
}
