package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Type is the direction of a transaction relative to the user.
type Type string

const (
	TypeCredit Type = "credit"
	TypeDebit  Type = "debit"
)

// Status represents the settlement state of a transaction.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Transaction is a ledger entry: a brand payment (debit) or an influencer payout (credit).
type Transaction struct {
	ID                    uuid.UUID  `json:"id"`
	UserID                uuid.UUID  `json:"userId"`
	CampaignID            uuid.UUID  `json:"campaignId"`
	ProposalID            uuid.UUID  `json:"proposalId"`
	Amount                float64    `json:"amount"`
	Type                  Type       `json:"type"`
	Status                Status     `json:"status"`
	IsPayout              bool       `json:"isPayout"`
	AppFee                float64    `json:"appFee"`
	InfluencerAmount      float64    `json:"influencerAmount"`
	SourceTransactionID   *uuid.UUID `json:"sourceTransactionId,omitempty"`
	StripePaymentIntentID *string    `json:"stripePaymentIntentId,omitempty"`
	StripeChargeID        *string    `json:"stripeChargeId,omitempty"`
	StripeTransferID      *string    `json:"stripeTransferId,omitempty"`
	Currency              string     `json:"currency"`
	Description           string     `json:"description,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// CanFundPayout reports whether the transaction is a valid payout source.
func (t *Transaction) CanFundPayout() bool {
	return t.Status == StatusApproved && !t.IsPayout && t.Amount > 0
}

// Transferred reports whether a payout transaction reached the processor.
func (t *Transaction) Transferred() bool {
	return t.IsPayout && t.StripeTransferID != nil && *t.StripeTransferID != ""
}

// NewBrandPayment creates the pending debit recorded when a brand starts paying for a proposal.
func NewBrandPayment(brandID, campaignID, proposalID uuid.UUID, amount float64, currency, intentID string) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		ID:                    uuid.New(),
		UserID:                brandID,
		CampaignID:            campaignID,
		ProposalID:            proposalID,
		Amount:                amount,
		Type:                  TypeDebit,
		Status:                StatusPending,
		StripePaymentIntentID: &intentID,
		Currency:              currency,
		Description:           "Campaign payment",
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// NewPayout creates a pending payout credit for an influencer funded by source.
func NewPayout(influencerID uuid.UUID, source *Transaction, split Split, currency string) *Transaction {
	now := time.Now().UTC()
	sourceID := source.ID
	return &Transaction{
		ID:                  uuid.New(),
		UserID:              influencerID,
		CampaignID:          source.CampaignID,
		ProposalID:          source.ProposalID,
		Amount:              split.InfluencerAmount.InexactFloat64(),
		Type:                TypeCredit,
		Status:              StatusPending,
		IsPayout:            true,
		AppFee:              split.AppFee.InexactFloat64(),
		InfluencerAmount:    split.InfluencerAmount.InexactFloat64(),
		SourceTransactionID: &sourceID,
		Currency:            currency,
		Description:         "Influencer payout",
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// MarkTransferred approves a payout once the processor accepted the transfer.
func (t *Transaction) MarkTransferred(transferID string, now time.Time) {
	t.StripeTransferID = &transferID
	t.Status = StatusApproved
	t.UpdatedAt = now
}
