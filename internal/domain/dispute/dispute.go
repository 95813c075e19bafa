package dispute

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/collabmarket/settlement-hub/internal/domain/campaign"
)

// Status represents the dispute lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusNeedsInfo Status = "needs_info"
	StatusResolved  Status = "resolved"
	StatusRejected  Status = "rejected"
	StatusEscalated Status = "escalated"
)

// OpenStatuses are the statuses under which a dispute blocks its campaign.
var OpenStatuses = []Status{StatusPending, StatusNeedsInfo, StatusEscalated}

// IsOpen reports whether s is one of OpenStatuses.
func (s Status) IsOpen() bool {
	for _, o := range OpenStatuses {
		if s == o {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	return s.IsOpen() || s == StatusResolved || s == StatusRejected
}

// Reason classifies a dispute.
type Reason string

const (
	ReasonQuality Reason = "quality"
	ReasonDelay   Reason = "delay"
	ReasonPayment Reason = "payment"
	ReasonFraud   Reason = "fraud"
	ReasonOther   Reason = "other"
)

// NormalizeReason maps unknown or empty reasons to ReasonOther.
func NormalizeReason(raw string) Reason {
	switch r := Reason(strings.ToLower(strings.TrimSpace(raw))); r {
	case ReasonQuality, ReasonDelay, ReasonPayment, ReasonFraud:
		return r
	}
	return ReasonOther
}

// Decision is the admin's ruling.
type Decision string

const (
	DecisionRefundFull    Decision = "refund_full"
	DecisionRefundPartial Decision = "refund_partial"
	DecisionReleaseFunds  Decision = "release_funds"
	DecisionRedoWork      Decision = "redo_work"
	DecisionReject        Decision = "reject"
)

func (d Decision) Valid() bool {
	switch d {
	case DecisionRefundFull, DecisionRefundPartial, DecisionReleaseFunds, DecisionRedoWork, DecisionReject:
		return true
	}
	return false
}

// RequiresAmount reports whether the decision must carry a positive amount.
func (d Decision) RequiresAmount() bool {
	return d == DecisionRefundPartial || d == DecisionReleaseFunds
}

// ResultingStatus is the dispute status after the decision.
func (d Decision) ResultingStatus() Status {
	if d == DecisionReject {
		return StatusRejected
	}
	return StatusResolved
}

// CampaignStatus is the campaign status the decision moves the campaign to.
func (d Decision) CampaignStatus() campaign.Status {
	switch d {
	case DecisionRefundFull, DecisionRefundPartial, DecisionReject:
		return campaign.StatusCancelled
	case DecisionRedoWork:
		return campaign.StatusActive
	default:
		return campaign.StatusCompleted
	}
}

// EvidenceType classifies an evidence entry.
type EvidenceType string

const (
	EvidenceImage EvidenceType = "image"
	EvidenceVideo EvidenceType = "video"
	EvidenceFile  EvidenceType = "file"
	EvidenceLink  EvidenceType = "link"
	EvidenceText  EvidenceType = "text"
)

// MaxLogEntries caps the evidence log and the message thread.
const MaxLogEntries = 500

type Evidence struct {
	Type       EvidenceType `json:"type"`
	URL        string       `json:"url,omitempty"`
	Text       string       `json:"text,omitempty"`
	Caption    string       `json:"caption,omitempty"`
	UploadedBy uuid.UUID    `json:"uploadedBy"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// NormalizeEvidence drops entries with neither url nor text and fills the default type.
func NormalizeEvidence(in []Evidence, uploadedBy uuid.UUID, now time.Time) []Evidence {
	out := make([]Evidence, 0, len(in))
	for _, e := range in {
		e.URL = strings.TrimSpace(e.URL)
		e.Text = strings.TrimSpace(e.Text)
		if e.URL == "" && e.Text == "" {
			continue
		}
		switch e.Type {
		case EvidenceImage, EvidenceVideo, EvidenceFile, EvidenceLink, EvidenceText:
		default:
			if e.URL != "" {
				e.Type = EvidenceFile
			} else {
				e.Type = EvidenceText
			}
		}
		e.UploadedBy = uploadedBy
		e.CreatedAt = now
		out = append(out, e)
	}
	return out
}

type Message struct {
	SenderID    uuid.UUID `json:"senderId"`
	Message     string    `json:"message"`
	Attachments []string  `json:"attachments,omitempty"`
	IsSystem    bool      `json:"isSystem"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Resolution struct {
	Decision   Decision  `json:"decision"`
	DecisionBy uuid.UUID `json:"decisionBy"`
	Notes      string    `json:"notes,omitempty"`
	Amount     *float64  `json:"amount,omitempty"`
	DecidedAt  time.Time `json:"decidedAt"`
}

// Dispute is a formal complaint about a campaign by one of its parties.
type Dispute struct {
	ID           uuid.UUID   `json:"id"`
	CampaignID   uuid.UUID   `json:"campaignId"`
	RaisedBy     uuid.UUID   `json:"raisedBy"`
	Against      *uuid.UUID  `json:"against,omitempty"`
	RoleOfRaiser string      `json:"roleOfRaiser"`
	Reason       Reason      `json:"reason"`
	Description  string      `json:"description"`
	Status       Status      `json:"status"`
	Evidence     []Evidence  `json:"evidence"`
	Messages     []Message   `json:"messages"`
	Resolution   *Resolution `json:"resolution,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// IsParticipant reports whether userID raised the dispute or is its counterparty.
func (d *Dispute) IsParticipant(userID uuid.UUID) bool {
	if d.RaisedBy == userID {
		return true
	}
	return d.Against != nil && *d.Against == userID
}

// Parties returns the raiser and, if set, the counterparty.
func (d *Dispute) Parties() []uuid.UUID {
	ids := []uuid.UUID{d.RaisedBy}
	if d.Against != nil && *d.Against != d.RaisedBy {
		ids = append(ids, *d.Against)
	}
	return ids
}

func (d *Dispute) Decided() bool {
	return d.Resolution != nil
}

// Filter controls dispute listing.
type Filter struct {
	Status      *Status
	CampaignID  *uuid.UUID
	Participant *uuid.UUID
}
