package memory

import (
	"time"

	"github.com/google/uuid"

	"github.com/collabmarket/settlement-hub/internal/domain/campaign"
	"github.com/collabmarket/settlement-hub/internal/domain/dispute"
	"github.com/collabmarket/settlement-hub/internal/domain/ledger"
	"github.com/collabmarket/settlement-hub/internal/domain/proposal"
)

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneCampaign(c campaign.Campaign) campaign.Campaign {
	c.InfluencerCompletedAt = cloneTime(c.InfluencerCompletedAt)
	return c
}

func cloneProposal(p proposal.Proposal) proposal.Proposal {
	p.InfluencerCompletedAt = cloneTime(p.InfluencerCompletedAt)
	p.AdminCompletionApprovedAt = cloneTime(p.AdminCompletionApprovedAt)
	p.PaymentIntentID = cloneString(p.PaymentIntentID)
	p.BrandTransactionID = cloneID(p.BrandTransactionID)
	p.PayoutTransactionID = cloneID(p.PayoutTransactionID)
	return p
}

func cloneTxn(t ledger.Transaction) ledger.Transaction {
	t.SourceTransactionID = cloneID(t.SourceTransactionID)
	t.StripePaymentIntentID = cloneString(t.StripePaymentIntentID)
	t.StripeChargeID = cloneString(t.StripeChargeID)
	t.StripeTransferID = cloneString(t.StripeTransferID)
	return t
}

func cloneDispute(d dispute.Dispute) dispute.Dispute {
	d.Against = cloneID(d.Against)
	d.Evidence = append([]dispute.Evidence(nil), d.Evidence...)
	msgs := make([]dispute.Message, len(d.Messages))
	for i, m := range d.Messages {
		m.Attachments = append([]string(nil), m.Attachments...)
		msgs[i] = m
	}
	d.Messages = msgs
	if d.Resolution != nil {
		r := *d.Resolution
		if r.Amount != nil {
			a := *r.Amount
			r.Amount = &a
		}
		d.Resolution = &r
	}
	return d
}
