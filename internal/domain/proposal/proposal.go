package proposal

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the brand's decision on a proposal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// PaymentStatus tracks the money flow attached to a proposal.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentReleased PaymentStatus = "released"
	PaymentFailed   PaymentStatus = "failed"
)

// Proposal is one influencer's offer on a campaign.
type Proposal struct {
	ID                        uuid.UUID     `json:"id"`
	CampaignID                uuid.UUID     `json:"campaignId"`
	InfluencerID              uuid.UUID     `json:"influencerId"`
	Amount                    float64       `json:"amount"`
	DeliveryDays              int           `json:"deliveryDays"`
	Status                    Status        `json:"status"`
	InfluencerMarkedComplete  bool          `json:"influencerMarkedComplete"`
	InfluencerCompletedAt     *time.Time    `json:"influencerCompletedAt,omitempty"`
	AdminApprovedCompletion   bool          `json:"adminApprovedCompletion"`
	AdminCompletionApprovedAt *time.Time    `json:"adminCompletionApprovedAt,omitempty"`
	PaymentStatus             PaymentStatus `json:"paymentStatus"`
	PaymentIntentID           *string       `json:"paymentIntentId,omitempty"`
	BrandTransactionID        *uuid.UUID    `json:"brandTransactionId,omitempty"`
	PayoutTransactionID       *uuid.UUID    `json:"payoutTransactionId,omitempty"`
	CreatedAt                 time.Time     `json:"createdAt"`
	UpdatedAt                 time.Time     `json:"updatedAt"`
}

func (p *Proposal) IsAccepted() bool {
	return p.Status == StatusAccepted
}

// CountsTowardCompletion reports whether the proposal is part of the completion aggregate.
func (p *Proposal) CountsTowardCompletion() bool {
	return p.Status == StatusAccepted && p.InfluencerMarkedComplete
}

// CanRaiseDispute reports whether the influencer holding this proposal may open a dispute.
func (p *Proposal) CanRaiseDispute() bool {
	switch p.Status {
	case StatusAccepted, StatusPending, StatusRejected:
		return true
	}
	return false
}

// Filter controls proposal listing within a campaign.
type Filter struct {
	CampaignID     uuid.UUID
	Status         *Status
	MarkedComplete *bool
}
