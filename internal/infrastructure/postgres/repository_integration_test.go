//go:build integration
// +build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	"github.com/collabmarket/settlement-hub/internal/domain/campaign"
	"github.com/collabmarket/settlement-hub/internal/domain/dispute"
	"github.com/collabmarket/settlement-hub/internal/domain/ledger"
	"github.com/collabmarket/settlement-hub/internal/domain/proposal"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration tests")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	wd, err := os.Getwd()
	require.NoError(t, err)
	migrations := filepath.Join(wd, "..", "..", "migrations")
	require.NoError(t, RunMigrations(ctx, pool, migrations, zerolog.Nop()))

	_, err = pool.Exec(ctx, `TRUNCATE TABLE audit_logs, outbox_messages, disputes, proposals, transactions, campaigns, users CASCADE`)
	require.NoError(t, err)
	return pool
}

type seeded struct {
	brandID, influencerID, campaignID, proposalID uuid.UUID
}

func seedCampaign(t *testing.T, pool *pgxpool.Pool) seeded {
	t.Helper()
	ctx := context.Background()
	s := seeded{brandID: uuid.New(), influencerID: uuid.New(), campaignID: uuid.New(), proposalID: uuid.New()}
	_, err := pool.Exec(ctx, `INSERT INTO users (id, name, role) VALUES ($1,'Acme','brand'), ($2,'Ada','influencer')`, s.brandID, s.influencerID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO campaigns (id, brand_id, title, status, max_influencers) VALUES ($1,$2,'Launch','active',1)`, s.campaignID, s.brandID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO proposals (id, campaign_id, influencer_id, amount, status, payment_status) VALUES ($1,$2,$3,500,'accepted','paid')`, s.proposalID, s.campaignID, s.influencerID)
	require.NoError(t, err)
	return s
}

func TestProposalRepository_ConditionalWrites(t *testing.T) {
	pool := newTestPool(t)
	s := seedCampaign(t, pool)
	repo := NewProposalRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	won, err := repo.MarkInfluencerComplete(ctx, s.proposalID, now)
	require.NoError(t, err)
	assert.True(t, won)
	won, err = repo.MarkInfluencerComplete(ctx, s.proposalID, now)
	require.NoError(t, err)
	assert.False(t, won)

	n, err := repo.CountCompleted(ctx, s.campaignID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.ApproveCompletion(ctx, s.proposalID, now))
	require.NoError(t, repo.ApproveCompletion(ctx, s.proposalID, now.Add(time.Hour)))
	approved, err := repo.GetByID(ctx, s.proposalID)
	require.NoError(t, err)
	require.NotNil(t, approved.AdminCompletionApprovedAt)
	assert.WithinDuration(t, now, *approved.AdminCompletionApprovedAt, time.Millisecond)
	assert.True(t, errors.Is(repo.ApproveCompletion(ctx, uuid.New(), now), apperr.ErrNotFound))

	reset, err := repo.ResetCompletion(ctx, s.campaignID, []uuid.UUID{s.influencerID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), reset)

	p, err := repo.GetByID(ctx, s.proposalID)
	require.NoError(t, err)
	assert.False(t, p.InfluencerMarkedComplete)
	assert.False(t, p.AdminApprovedCompletion)
	assert.Nil(t, p.InfluencerCompletedAt)
}

func TestTransactionRepository_OnePayoutPerProposal(t *testing.T) {
	pool := newTestPool(t)
	s := seedCampaign(t, pool)
	txns := NewTransactionRepository(pool)
	proposals := NewProposalRepository(pool)
	ctx := context.Background()

	source := ledger.NewBrandPayment(s.brandID, s.campaignID, s.proposalID, 500, "usd", "pi_1")
	source.Status = ledger.StatusApproved
	require.NoError(t, txns.Create(ctx, source))

	split := ledger.DefaultFeePolicy().Split(500)
	first := ledger.NewPayout(s.influencerID, source, split, "usd")
	require.NoError(t, txns.Create(ctx, first))

	second := ledger.NewPayout(s.influencerID, source, split, "usd")
	err := txns.Create(ctx, second)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	got, err := txns.GetPayoutForProposal(ctx, s.proposalID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, 450.0, got.InfluencerAmount)
	assert.Equal(t, 50.0, got.AppFee)

	linked, err := proposals.SetPayoutTransaction(ctx, s.proposalID, first.ID, proposal.PaymentPaid)
	require.NoError(t, err)
	assert.True(t, linked)
	linked, err = proposals.SetPayoutTransaction(ctx, s.proposalID, second.ID, proposal.PaymentPaid)
	require.NoError(t, err)
	assert.False(t, linked)

	listed, err := txns.ListByCampaigns(ctx, []uuid.UUID{s.campaignID})
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestDisputeRepository(t *testing.T) {
	pool := newTestPool(t)
	s := seedCampaign(t, pool)
	repo := NewDisputeRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	d := &dispute.Dispute{
		ID: uuid.New(), CampaignID: s.campaignID, RaisedBy: s.brandID, Against: &s.influencerID,
		RoleOfRaiser: "brand", Reason: dispute.ReasonQuality, Description: "late", Status: dispute.StatusPending,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, d))

	dup := *d
	dup.ID = uuid.New()
	assert.True(t, errors.Is(repo.Create(ctx, &dup), apperr.ErrConflict))

	ok, err := repo.AppendEvidence(ctx, d.ID, []dispute.Evidence{{Type: dispute.EvidenceText, Text: "proof", UploadedBy: s.brandID, CreatedAt: now}})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.AppendMessage(ctx, d.ID, dispute.Message{SenderID: s.influencerID, Message: "hi", CreatedAt: now})
	require.NoError(t, err)
	assert.True(t, ok)

	participant := s.influencerID
	list, total, err := repo.List(ctx, dispute.Filter{Participant: &participant}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Evidence, 1)
	assert.Len(t, list[0].Messages, 1)

	res := dispute.Resolution{Decision: dispute.DecisionReject, DecisionBy: uuid.New(), DecidedAt: now}
	ok, err = repo.Resolve(ctx, d.ID, dispute.StatusRejected, res)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Resolve(ctx, d.ID, dispute.StatusResolved, res)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.AppendMessage(ctx, d.ID, dispute.Message{SenderID: s.brandID, Message: "late", CreatedAt: now})
	require.NoError(t, err)
	assert.False(t, ok)

	open, err := repo.HasOpenForCampaign(ctx, s.campaignID)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestNewPool_ApplicationName(t *testing.T) {
	pool := newTestPool(t)
	var name string
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT current_setting('application_name')`).Scan(&name))
	assert.Equal(t, "settlement-hub", name)
}

func TestCampaignRepository_Transitions(t *testing.T) {
	pool := newTestPool(t)
	s := seedCampaign(t, pool)
	repo := NewCampaignRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	flagged, err := repo.MarkInfluencersDone(ctx, s.campaignID, now)
	require.NoError(t, err)
	assert.True(t, flagged)
	flagged, err = repo.MarkInfluencersDone(ctx, s.campaignID, now)
	require.NoError(t, err)
	assert.False(t, flagged)

	require.NoError(t, repo.Transition(ctx, campaign.StatusChange{
		CampaignID: s.campaignID, From: campaign.StatusActive, To: campaign.StatusDisputed, At: now,
	}))

	err = repo.Transition(ctx, campaign.StatusChange{
		CampaignID: s.campaignID, From: campaign.StatusActive, To: campaign.StatusCompleted, At: now,
	})
	assert.True(t, errors.Is(err, apperr.ErrPrecondition))
	err = repo.Transition(ctx, campaign.StatusChange{
		CampaignID: uuid.New(), From: campaign.StatusActive, To: campaign.StatusCompleted, At: now,
	})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	c, err := repo.GetByID(ctx, s.campaignID)
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusDisputed, c.Status)
	assert.True(t, c.InfluencerCompleted)

	flagged, err = repo.MarkInfluencersDone(ctx, s.campaignID, now)
	require.NoError(t, err)
	assert.False(t, flagged)

	require.NoError(t, repo.Transition(ctx, campaign.StatusChange{
		CampaignID: s.campaignID, From: campaign.StatusDisputed, To: campaign.StatusActive, ResetCompletion: true, At: now,
	}))
	c, err = repo.GetByID(ctx, s.campaignID)
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusActive, c.Status)
	assert.False(t, c.InfluencerCompleted)
	assert.Nil(t, c.InfluencerCompletedAt)

	require.NoError(t, repo.Transition(ctx, campaign.StatusChange{
		CampaignID: s.campaignID, From: campaign.StatusActive, To: campaign.StatusCompleted, At: now,
	}))
	c, err = repo.GetByID(ctx, s.campaignID)
	require.NoError(t, err)
	assert.True(t, c.ReviewEnabled)
}

func TestProposalRepository_PaymentWrites(t *testing.T) {
	pool := newTestPool(t)
	s := seedCampaign(t, pool)
	repo := NewProposalRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := pool.Exec(ctx, `UPDATE proposals SET payment_status='unpaid' WHERE id=$1`, s.proposalID)
	require.NoError(t, err)

	txns := NewTransactionRepository(pool)
	first := ledger.NewBrandPayment(s.brandID, s.campaignID, s.proposalID, 500, "usd", "pi_1")
	require.NoError(t, txns.Create(ctx, first))
	second := ledger.NewBrandPayment(s.brandID, s.campaignID, s.proposalID, 500, "usd", "pi_2")
	require.NoError(t, txns.Create(ctx, second))

	attached, err := repo.AttachPaymentIntent(ctx, s.proposalID, "pi_1", first.ID, now)
	require.NoError(t, err)
	assert.True(t, attached)

	won, err := repo.MarkInfluencerComplete(ctx, s.proposalID, now)
	require.NoError(t, err)
	require.True(t, won)

	moved, err := repo.SetPaymentStatus(ctx, s.proposalID, proposal.PaymentPending, proposal.PaymentPaid, now)
	require.NoError(t, err)
	assert.True(t, moved)
	moved, err = repo.SetPaymentStatus(ctx, s.proposalID, proposal.PaymentPending, proposal.PaymentPaid, now)
	require.NoError(t, err)
	assert.False(t, moved)

	attached, err = repo.AttachPaymentIntent(ctx, s.proposalID, "pi_2", second.ID, now)
	require.NoError(t, err)
	assert.False(t, attached)

	p, err := repo.GetByID(ctx, s.proposalID)
	require.NoError(t, err)
	assert.Equal(t, proposal.PaymentPaid, p.PaymentStatus)
	assert.True(t, p.InfluencerMarkedComplete)
	require.NotNil(t, p.PaymentIntentID)
	assert.Equal(t, "pi_1", *p.PaymentIntentID)
}
