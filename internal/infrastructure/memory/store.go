// Package memory is a process-local implementation of every repository, used for
// single-node development (STORE=memory) and end-to-end tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	"github.com/collabmarket/settlement-hub/internal/domain/audit"
	"github.com/collabmarket/settlement-hub/internal/domain/campaign"
	"github.com/collabmarket/settlement-hub/internal/domain/dispute"
	"github.com/collabmarket/settlement-hub/internal/domain/ledger"
	"github.com/collabmarket/settlement-hub/internal/domain/outbox"
	"github.com/collabmarket/settlement-hub/internal/domain/proposal"
	"github.com/collabmarket/settlement-hub/internal/domain/user"
)

// Store holds all rows behind one mutex so conditional updates are atomic.
type Store struct {
	mu        sync.Mutex
	users     map[uuid.UUID]user.User
	campaigns map[uuid.UUID]campaign.Campaign
	proposals map[uuid.UUID]proposal.Proposal
	txns      map[uuid.UUID]ledger.Transaction
	disputes  map[uuid.UUID]dispute.Dispute
	outbox    map[uuid.UUID]outbox.Message
	outboxSeq []uuid.UUID
	audit     []audit.AuditLog
}

func NewStore() *Store {
	return &Store{
		users:     map[uuid.UUID]user.User{},
		campaigns: map[uuid.UUID]campaign.Campaign{},
		proposals: map[uuid.UUID]proposal.Proposal{},
		txns:      map[uuid.UUID]ledger.Transaction{},
		disputes:  map[uuid.UUID]dispute.Dispute{},
		outbox:    map[uuid.UUID]outbox.Message{},
	}
}

func (s *Store) Users() *UserDirectory                { return &UserDirectory{s} }
func (s *Store) Campaigns() *CampaignRepository       { return &CampaignRepository{s} }
func (s *Store) Proposals() *ProposalRepository       { return &ProposalRepository{s} }
func (s *Store) Transactions() *TransactionRepository { return &TransactionRepository{s} }
func (s *Store) Disputes() *DisputeRepository         { return &DisputeRepository{s} }
func (s *Store) Outbox() *OutboxRepository            { return &OutboxRepository{s} }
func (s *Store) Audit() *AuditRepository              { return &AuditRepository{s} }

// SeedUser inserts or replaces a directory entry.
func (s *Store) SeedUser(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// SeedCampaign inserts or replaces a campaign.
func (s *Store) SeedCampaign(c campaign.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.MaxInfluencers == 0 {
		c.MaxInfluencers = campaign.DefaultMaxInfluencers
	}
	s.campaigns[c.ID] = cloneCampaign(c)
}

// SeedProposal inserts a proposal, enforcing one proposal per campaign and influencer.
func (s *Store) SeedProposal(p proposal.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.proposals {
		if row.ID != p.ID && row.CampaignID == p.CampaignID && row.InfluencerID == p.InfluencerID {
			return fmt.Errorf("%w: influencer already has a proposal for this campaign", apperr.ErrConflict)
		}
	}
	if p.PaymentStatus == "" {
		p.PaymentStatus = proposal.PaymentUnpaid
	}
	s.proposals[p.ID] = cloneProposal(p)
	return nil
}

// SeedTransaction inserts a ledger row as-is.
func (s *Store) SeedTransaction(t ledger.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns[t.ID] = cloneTxn(t)
}

// UserDirectory serves user.Directory.
type UserDirectory struct{ s *Store }

func (r *UserDirectory) GetByID(_ context.Context, userID uuid.UUID) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type CampaignRepository struct{ s *Store }

func (r *CampaignRepository) GetByID(_ context.Context, campaignID uuid.UUID) (*campaign.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[campaignID]
	if !ok {
		return nil, nil
	}
	c = cloneCampaign(c)
	return &c, nil
}

func (r *CampaignRepository) Transition(_ context.Context, change campaign.StatusChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[change.CampaignID]
	if !ok {
		return fmt.Errorf("%w: campaign %s", apperr.ErrNotFound, change.CampaignID)
	}
	if c.Status != change.From {
		return fmt.Errorf("%w: campaign is %s, expected %s", apperr.ErrPrecondition, c.Status, change.From)
	}
	c.Apply(change)
	r.s.campaigns[c.ID] = c
	return nil
}

func (r *CampaignRepository) MarkInfluencersDone(_ context.Context, campaignID uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[campaignID]
	if !ok || c.Status != campaign.StatusActive || c.InfluencerCompleted {
		return false, nil
	}
	c.MarkInfluencersDone(at)
	r.s.campaigns[campaignID] = c
	return true, nil
}

type ProposalRepository struct{ s *Store }

func (r *ProposalRepository) GetByID(_ context.Context, proposalID uuid.UUID) (*proposal.Proposal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.proposals[proposalID]
	if !ok {
		return nil, nil
	}
	p = cloneProposal(p)
	return &p, nil
}

func (r *ProposalRepository) GetForInfluencer(_ context.Context, campaignID, influencerID uuid.UUID) (*proposal.Proposal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.proposals {
		if p.CampaignID == campaignID && p.InfluencerID == influencerID {
			p = cloneProposal(p)
			return &p, nil
		}
	}
	return nil, nil
}

func (r *ProposalRepository) ListByCampaign(_ context.Context, filter proposal.Filter) ([]*proposal.Proposal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*proposal.Proposal, 0)
	for _, p := range r.s.proposals {
		if p.CampaignID != filter.CampaignID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.MarkedComplete != nil && p.InfluencerMarkedComplete != *filter.MarkedComplete {
			continue
		}
		c := cloneProposal(p)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ProposalRepository) AttachPaymentIntent(_ context.Context, proposalID uuid.UUID, intentID string, brandTxnID uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.proposals[proposalID]
	if !ok || p.PaymentStatus == proposal.PaymentPaid || p.PaymentStatus == proposal.PaymentReleased {
		return false, nil
	}
	p.PaymentIntentID = &intentID
	p.BrandTransactionID = &brandTxnID
	p.PaymentStatus = proposal.PaymentPending
	p.UpdatedAt = at
	r.s.proposals[proposalID] = p
	return true, nil
}

func (r *ProposalRepository) SetPaymentStatus(_ context.Context, proposalID uuid.UUID, from, to proposal.PaymentStatus, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.proposals[proposalID]
	if !ok || p.PaymentStatus != from {
		return false, nil
	}
	p.PaymentStatus = to
	p.UpdatedAt = at
	r.s.proposals[proposalID] = p
	return true, nil
}

func (r *ProposalRepository) MarkInfluencerComplete(_ context.Context, proposalID uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.proposals[proposalID]
	if !ok || p.InfluencerMarkedComplete {
		return false, nil
	}
	p.InfluencerMarkedComplete = true
	p.InfluencerCompletedAt = &at
	p.UpdatedAt = at
	r.s.proposals[proposalID] = p
	return true, nil
}

func (r *ProposalRepository) CountCompleted(_ context.Context, campaignID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, p := range r.s.proposals {
		if p.CampaignID == campaignID && p.CountsTowardCompletion() {
			n++
		}
	}
	return n, nil
}

func (r *ProposalRepository) ApproveCompletion(_ context.Context, proposalID uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.proposals[proposalID]
	if !ok {
		return fmt.Errorf("%w: proposal %s", apperr.ErrNotFound, proposalID)
	}
	if p.AdminApprovedCompletion {
		return nil
	}
	p.AdminApprovedCompletion = true
	p.AdminCompletionApprovedAt = &at
	p.UpdatedAt = at
	r.s.proposals[proposalID] = p
	return nil
}

func (r *ProposalRepository) ResetCompletion(_ context.Context, campaignID uuid.UUID, influencerIDs []uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	targets := make(map[uuid.UUID]struct{}, len(influencerIDs))
	for _, id := range influencerIDs {
		targets[id] = struct{}{}
	}
	var n int64
	now := time.Now().UTC()
	for id, p := range r.s.proposals {
		if p.CampaignID != campaignID {
			continue
		}
		if _, ok := targets[p.InfluencerID]; !ok {
			continue
		}
		p.InfluencerMarkedComplete = false
		p.InfluencerCompletedAt = nil
		p.AdminApprovedCompletion = false
		p.AdminCompletionApprovedAt = nil
		p.UpdatedAt = now
		r.s.proposals[id] = p
		n++
	}
	return n, nil
}

func (r *ProposalRepository) SetPayoutTransaction(_ context.Context, proposalID, transactionID uuid.UUID, status proposal.PaymentStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.proposals[proposalID]
	if !ok || p.PayoutTransactionID != nil {
		return false, nil
	}
	p.PayoutTransactionID = &transactionID
	p.PaymentStatus = status
	p.UpdatedAt = time.Now().UTC()
	r.s.proposals[proposalID] = p
	return true, nil
}

type TransactionRepository struct{ s *Store }

func (r *TransactionRepository) Create(_ context.Context, t *ledger.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.txns[t.ID]; ok {
		return fmt.Errorf("%w: transaction %s exists", apperr.ErrConflict, t.ID)
	}
	if t.IsPayout {
		for _, row := range r.s.txns {
			if row.IsPayout && row.ProposalID == t.ProposalID {
				return fmt.Errorf("%w: proposal %s already has a payout transaction", apperr.ErrConflict, t.ProposalID)
			}
		}
	}
	r.s.txns[t.ID] = cloneTxn(*t)
	return nil
}

func (r *TransactionRepository) GetByID(_ context.Context, transactionID uuid.UUID) (*ledger.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.txns[transactionID]
	if !ok {
		return nil, nil
	}
	t = cloneTxn(t)
	return &t, nil
}

func (r *TransactionRepository) Update(_ context.Context, t *ledger.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.txns[t.ID]; !ok {
		return fmt.Errorf("%w: transaction %s", apperr.ErrNotFound, t.ID)
	}
	r.s.txns[t.ID] = cloneTxn(*t)
	return nil
}

func (r *TransactionRepository) GetPayoutForProposal(_ context.Context, proposalID uuid.UUID) (*ledger.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.txns {
		if t.IsPayout && t.ProposalID == proposalID {
			t = cloneTxn(t)
			return &t, nil
		}
	}
	return nil, nil
}

func (r *TransactionRepository) ListByCampaigns(_ context.Context, campaignIDs []uuid.UUID) ([]*ledger.Transaction, error) {
	return r.list(func(t ledger.Transaction) uuid.UUID { return t.CampaignID }, campaignIDs), nil
}

func (r *TransactionRepository) ListByProposals(_ context.Context, proposalIDs []uuid.UUID) ([]*ledger.Transaction, error) {
	return r.list(func(t ledger.Transaction) uuid.UUID { return t.ProposalID }, proposalIDs), nil
}

func (r *TransactionRepository) list(key func(ledger.Transaction) uuid.UUID, ids []uuid.UUID) []*ledger.Transaction {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]*ledger.Transaction, 0)
	for _, t := range r.s.txns {
		if _, ok := want[key(t)]; ok {
			c := cloneTxn(t)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

type DisputeRepository struct{ s *Store }

func (r *DisputeRepository) Create(_ context.Context, d *dispute.Dispute) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d.Status.IsOpen() {
		for _, row := range r.s.disputes {
			if row.CampaignID == d.CampaignID && row.Status.IsOpen() {
				return fmt.Errorf("%w: an open dispute already exists for this campaign", apperr.ErrConflict)
			}
		}
	}
	r.s.disputes[d.ID] = cloneDispute(*d)
	return nil
}

func (r *DisputeRepository) GetByID(_ context.Context, disputeID uuid.UUID) (*dispute.Dispute, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.disputes[disputeID]
	if !ok {
		return nil, nil
	}
	d = cloneDispute(d)
	return &d, nil
}

func (r *DisputeRepository) HasOpenForCampaign(_ context.Context, campaignID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.disputes {
		if d.CampaignID == campaignID && d.Status.IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

func (r *DisputeRepository) List(_ context.Context, filter dispute.Filter, limit, offset int) ([]*dispute.Dispute, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	matched := make([]*dispute.Dispute, 0)
	for _, d := range r.s.disputes {
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		if filter.CampaignID != nil && d.CampaignID != *filter.CampaignID {
			continue
		}
		if filter.Participant != nil && !d.IsParticipant(*filter.Participant) {
			continue
		}
		c := cloneDispute(d)
		matched = append(matched, &c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := len(matched)
	if offset >= total {
		return []*dispute.Dispute{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

func (r *DisputeRepository) AppendEvidence(_ context.Context, disputeID uuid.UUID, evidence []dispute.Evidence) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.disputes[disputeID]
	if !ok || !d.Status.IsOpen() {
		return false, nil
	}
	d.Evidence = capLog(append(append([]dispute.Evidence(nil), d.Evidence...), evidence...))
	d.UpdatedAt = time.Now().UTC()
	r.s.disputes[disputeID] = d
	return true, nil
}

func (r *DisputeRepository) AppendMessage(_ context.Context, disputeID uuid.UUID, message dispute.Message) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.disputes[disputeID]
	if !ok || !d.Status.IsOpen() {
		return false, nil
	}
	d.Messages = capLog(append(append([]dispute.Message(nil), d.Messages...), message))
	d.UpdatedAt = time.Now().UTC()
	r.s.disputes[disputeID] = d
	return true, nil
}

func (r *DisputeRepository) Resolve(_ context.Context, disputeID uuid.UUID, status dispute.Status, resolution dispute.Resolution) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.disputes[disputeID]
	if !ok || d.Resolution != nil {
		return false, nil
	}
	res := resolution
	d.Resolution = &res
	d.Status = status
	d.UpdatedAt = resolution.DecidedAt
	r.s.disputes[disputeID] = d
	return true, nil
}

type OutboxRepository struct{ s *Store }

func (r *OutboxRepository) Create(_ context.Context, msg *outbox.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.outbox[msg.ID]; ok {
		return fmt.Errorf("%w: outbox message %s", apperr.ErrConflict, msg.ID)
	}
	r.s.outbox[msg.ID] = *msg
	r.s.outboxSeq = append(r.s.outboxSeq, msg.ID)
	return nil
}

func (r *OutboxRepository) Update(_ context.Context, msg *outbox.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.outbox[msg.ID]; !ok {
		return fmt.Errorf("%w: outbox message %s", apperr.ErrNotFound, msg.ID)
	}
	r.s.outbox[msg.ID] = *msg
	return nil
}

func (r *OutboxRepository) ListDeliverable(_ context.Context, limit int) ([]*outbox.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	out := make([]*outbox.Message, 0, limit)
	for _, id := range r.s.outboxSeq {
		m := r.s.outbox[id]
		if m.Status != outbox.StatusPending && !m.CanRetry() {
			continue
		}
		c := m
		out = append(out, &c)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Messages returns every outbox message in insertion order.
func (r *OutboxRepository) Messages() []outbox.Message {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]outbox.Message, 0, len(r.s.outboxSeq))
	for _, id := range r.s.outboxSeq {
		out = append(out, r.s.outbox[id])
	}
	return out
}

type AuditRepository struct{ s *Store }

func (r *AuditRepository) Create(_ context.Context, log *audit.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, *log)
	return nil
}

func (r *AuditRepository) GetByEntityID(_ context.Context, entityType audit.EntityType, entityID string) ([]*audit.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*audit.AuditLog, 0)
	for _, l := range r.s.audit {
		if l.EntityType == entityType && l.EntityID == entityID {
			c := l
			out = append(out, &c)
		}
	}
	return out, nil
}

func capLog[T any](entries []T) []T {
	if len(entries) <= dispute.MaxLogEntries {
		return entries
	}
	return entries[len(entries)-dispute.MaxLogEntries:]
}
