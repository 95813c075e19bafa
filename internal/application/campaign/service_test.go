package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	appAudit "github.com/collabmarket/settlement-hub/internal/application/audit"
	"github.com/collabmarket/settlement-hub/internal/application/completion"
	appOutbox "github.com/collabmarket/settlement-hub/internal/application/outbox"
	"github.com/collabmarket/settlement-hub/internal/application/payout"
	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	"github.com/collabmarket/settlement-hub/internal/domain/audit"
	"github.com/collabmarket/settlement-hub/internal/domain/campaign"
	"github.com/collabmarket/settlement-hub/internal/domain/chat"
	"github.com/collabmarket/settlement-hub/internal/domain/ledger"
	"github.com/collabmarket/settlement-hub/internal/domain/outbox"
	"github.com/collabmarket/settlement-hub/internal/domain/payment"
	paymentMocks "github.com/collabmarket/settlement-hub/internal/domain/payment/mocks"
	"github.com/collabmarket/settlement-hub/internal/domain/proposal"
	"github.com/collabmarket/settlement-hub/internal/domain/user"
	"github.com/collabmarket/settlement-hub/internal/infrastructure/memory"
)

type harness struct {
	store     *memory.Store
	processor *paymentMocks.MockProcessor
	svc       *Service
	posted    []string
	brand     user.User
	campaign  campaign.Campaign
}

func newHarness(t *testing.T, maxInfluencers int) *harness {
	ctrl := gomock.NewController(t)
	h := &harness{store: memory.NewStore(), processor: paymentMocks.NewMockProcessor(ctrl)}
	logger := zerolog.Nop()

	h.brand = user.User{ID: uuid.New(), Name: "Acme", Role: user.RoleBrand}
	h.store.SeedUser(h.brand)
	h.campaign = campaign.Campaign{
		ID: uuid.New(), BrandID: h.brand.ID, Title: "Launch", Status: campaign.StatusActive,
		MaxInfluencers: maxInfluencers, CreatedAt: time.Now().UTC(),
	}
	h.store.SeedCampaign(h.campaign)

	auditSvc := appAudit.NewService(h.store.Audit(), logger, []byte("test-key"))
	engine := payout.NewEngine(
		h.store.Proposals(), h.store.Campaigns(), h.store.Transactions(), h.store.Users(), h.processor, nil, auditSvc,
		payout.Config{Currency: "usd", Fees: ledger.DefaultFeePolicy()}, logger,
	)
	poster := chat.PosterFunc(func(_ context.Context, _ uuid.UUID, text string) error {
		h.posted = append(h.posted, text)
		return nil
	})
	dispatcher := appOutbox.NewDispatcher(h.store.Outbox(), poster, logger)
	h.svc = NewService(h.store.Campaigns(), h.store.Proposals(), h.store.Users(), engine, dispatcher, auditSvc, nil, logger)
	return h
}

// addInfluencer seeds an influencer with a paid, accepted proposal of amount.
func (h *harness) addInfluencer(t *testing.T, name string, amount float64, marked bool, account string) proposal.Proposal {
	t.Helper()
	inf := user.User{ID: uuid.New(), Name: name, Role: user.RoleInfluencer, StripeAccountID: account}
	h.store.SeedUser(inf)

	charge := "ch_" + name
	src := ledger.Transaction{
		ID: uuid.New(), UserID: h.brand.ID, CampaignID: h.campaign.ID, Amount: amount,
		Type: ledger.TypeDebit, Status: ledger.StatusApproved, StripeChargeID: &charge, Currency: "usd",
		CreatedAt: time.Now().UTC(),
	}
	p := proposal.Proposal{
		ID: uuid.New(), CampaignID: h.campaign.ID, InfluencerID: inf.ID, Amount: amount,
		Status: proposal.StatusAccepted, PaymentStatus: proposal.PaymentPaid, BrandTransactionID: &src.ID,
		InfluencerMarkedComplete: marked, CreatedAt: time.Now().UTC(),
	}
	src.ProposalID = p.ID
	h.store.SeedTransaction(src)
	require.NoError(t, h.store.SeedProposal(p))
	return p
}

func (h *harness) reloadCampaign(t *testing.T) *campaign.Campaign {
	t.Helper()
	c, err := h.store.Campaigns().GetByID(context.Background(), h.campaign.ID)
	require.NoError(t, err)
	return c
}

var admin = user.Actor{UserID: uuid.New(), Role: user.RoleAdmin}

// racingCampaigns runs afterRead once, right after the first campaign read returns.
type racingCampaigns struct {
	*memory.CampaignRepository
	afterRead func()
}

func (r *racingCampaigns) GetByID(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	c, err := r.CampaignRepository.GetByID(ctx, id)
	if r.afterRead != nil {
		hook := r.afterRead
		r.afterRead = nil
		hook()
	}
	return c, err
}

func TestService_SetStatus_Completed(t *testing.T) {
	ctx := context.Background()

	t.Run("finalizes and pays every marked influencer", func(t *testing.T) {
		h := newHarness(t, 2)
		a := h.addInfluencer(t, "ada", 500, true, "acct_ada")
		b := h.addInfluencer(t, "bob", 200, true, "acct_bob")
		h.processor.EXPECT().RetrieveAccount(gomock.Any(), gomock.Any()).
			Return(&payment.Account{PayoutsEnabled: true}, nil).Times(2)
		h.processor.EXPECT().CreateTransfer(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req payment.TransferRequest) (*payment.Transfer, error) {
				return &payment.Transfer{ID: "tr_" + req.Destination}, nil
			}).Times(2)

		res, err := h.svc.SetStatus(ctx, admin, h.campaign.ID, campaign.StatusCompleted)

		require.NoError(t, err)
		assert.Equal(t, campaign.StatusCompleted, res.Campaign.Status)
		assert.True(t, res.Campaign.ReviewEnabled)
		require.Len(t, res.Payouts, 2)
		for _, out := range res.Payouts {
			assert.Equal(t, payout.OutcomePaid, out.Status)
		}

		for _, id := range []uuid.UUID{a.ID, b.ID} {
			p, err := h.store.Proposals().GetByID(ctx, id)
			require.NoError(t, err)
			assert.True(t, p.AdminApprovedCompletion)
			assert.NotNil(t, p.AdminCompletionApprovedAt)
			assert.Equal(t, proposal.PaymentReleased, p.PaymentStatus)
		}

		c := h.reloadCampaign(t)
		assert.Equal(t, campaign.StatusCompleted, c.Status)

		require.Len(t, h.posted, 1)
		assert.Contains(t, h.posted[0], "Campaign completed by: ")
		assert.Contains(t, h.posted[0], "ada")
		assert.Contains(t, h.posted[0], "bob")
		msgs := h.store.Outbox().Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, outbox.StatusSent, msgs[0].Status)

		logs, err := h.store.Audit().GetByEntityID(ctx, audit.EntityCampaign, h.campaign.ID.String())
		require.NoError(t, err)
		assert.Len(t, logs, 1)
	})

	t.Run("payout problems do not fail completion", func(t *testing.T) {
		h := newHarness(t, 1)
		p := h.addInfluencer(t, "ada", 500, true, "")

		res, err := h.svc.SetStatus(ctx, admin, h.campaign.ID, campaign.StatusCompleted)

		require.NoError(t, err)
		require.Len(t, res.Payouts, 1)
		assert.Equal(t, payout.OutcomePending, res.Payouts[0].Status)
		assert.Equal(t, payout.ReasonMissingDestination, res.Payouts[0].Reason)
		assert.Equal(t, p.ID, res.Payouts[0].ProposalID)
		assert.Equal(t, campaign.StatusCompleted, h.reloadCampaign(t).Status)
	})

	t.Run("nobody marked", func(t *testing.T) {
		h := newHarness(t, 1)
		h.addInfluencer(t, "ada", 500, false, "acct_ada")

		_, err := h.svc.SetStatus(ctx, admin, h.campaign.ID, campaign.StatusCompleted)

		assert.True(t, errors.Is(err, apperr.ErrPrecondition))
		assert.Contains(t, err.Error(), "at least one influencer must mark the campaign as completed")
		assert.Equal(t, campaign.StatusActive, h.reloadCampaign(t).Status)
	})

	t.Run("threshold not reached", func(t *testing.T) {
		h := newHarness(t, 3)
		h.addInfluencer(t, "ada", 500, true, "acct_ada")
		h.addInfluencer(t, "bob", 500, false, "acct_bob")

		_, err := h.svc.SetStatus(ctx, admin, h.campaign.ID, campaign.StatusCompleted)

		assert.True(t, errors.Is(err, apperr.ErrPrecondition))
		assert.Contains(t, err.Error(), "All 3 influencers must mark the campaign as completed before it can be completed (1 so far)")
		assert.Empty(t, h.posted)
	})

	t.Run("dispute raised after the read blocks completion", func(t *testing.T) {
		h := newHarness(t, 1)
		h.addInfluencer(t, "ada", 500, true, "acct_ada")
		h.svc.campaignRepo = &racingCampaigns{
			CampaignRepository: h.store.Campaigns(),
			afterRead: func() {
				require.NoError(t, h.store.Campaigns().Transition(ctx, campaign.StatusChange{
					CampaignID: h.campaign.ID, From: campaign.StatusActive, To: campaign.StatusDisputed, At: time.Now().UTC(),
				}))
			},
		}

		_, err := h.svc.SetStatus(ctx, admin, h.campaign.ID, campaign.StatusCompleted)

		assert.True(t, errors.Is(err, apperr.ErrPrecondition))
		assert.Equal(t, campaign.StatusDisputed, h.reloadCampaign(t).Status)
		assert.Empty(t, h.posted)
	})

	t.Run("refinalizing keeps the first approval time", func(t *testing.T) {
		h := newHarness(t, 1)
		p := h.addInfluencer(t, "ada", 500, true, "acct_ada")
		h.processor.EXPECT().RetrieveAccount(gomock.Any(), gomock.Any()).Return(&payment.Account{PayoutsEnabled: true}, nil)
		h.processor.EXPECT().CreateTransfer(gomock.Any(), gomock.Any()).Return(&payment.Transfer{ID: "tr_1"}, nil)

		_, err := h.svc.SetStatus(ctx, admin, h.campaign.ID, campaign.StatusCompleted)
		require.NoError(t, err)
		first, err := h.store.Proposals().GetByID(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, first.AdminCompletionApprovedAt)

		h.svc.now = func() time.Time { return first.AdminCompletionApprovedAt.Add(time.Hour) }
		_, err = h.svc.SetStatus(ctx, admin, h.campaign.ID, campaign.StatusActive)
		require.NoError(t, err)
		res, err := h.svc.SetStatus(ctx, admin, h.campaign.ID, campaign.StatusCompleted)
		require.NoError(t, err)
		require.Len(t, res.Payouts, 1)
		assert.Equal(t, payout.ReasonAlreadyPaid, res.Payouts[0].Reason)

		again, err := h.store.Proposals().GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, *first.AdminCompletionApprovedAt, *again.AdminCompletionApprovedAt)
	})

	t.Run("custom completion rule", func(t *testing.T) {
		h := newHarness(t, 3)
		policy, err := completion.NewPolicy("completed >= 1")
		require.NoError(t, err)
		h.svc.policy = policy
		h.addInfluencer(t, "ada", 500, true, "")

		res, err := h.svc.SetStatus(ctx, admin, h.campaign.ID, campaign.StatusCompleted)
		require.NoError(t, err)
		assert.Len(t, res.Payouts, 1)
	})
}

func TestService_SetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin forbidden", func(t *testing.T) {
		h := newHarness(t, 1)
		_, err := h.svc.SetStatus(ctx, user.Actor{UserID: h.brand.ID, Role: user.RoleBrand}, h.campaign.ID, campaign.StatusCancelled)
		assert.True(t, errors.Is(err, apperr.ErrForbidden))
	})

	t.Run("disputed is not settable", func(t *testing.T) {
		h := newHarness(t, 1)
		_, err := h.svc.SetStatus(ctx, admin, h.campaign.ID, campaign.StatusDisputed)
		assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	})

	t.Run("disputed campaign is frozen", func(t *testing.T) {
		h := newHarness(t, 1)
		c := h.campaign
		c.Status = campaign.StatusDisputed
		h.store.SeedCampaign(c)

		_, err := h.svc.SetStatus(ctx, admin, h.campaign.ID, campaign.StatusActive)
		assert.True(t, errors.Is(err, apperr.ErrPrecondition))
	})

	t.Run("unknown campaign", func(t *testing.T) {
		h := newHarness(t, 1)
		_, err := h.svc.SetStatus(ctx, admin, uuid.New(), campaign.StatusCancelled)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("cancel clears review", func(t *testing.T) {
		h := newHarness(t, 1)
		c := h.campaign
		c.ReviewEnabled = true
		h.store.SeedCampaign(c)

		res, err := h.svc.SetStatus(ctx, admin, h.campaign.ID, campaign.StatusCancelled)

		require.NoError(t, err)
		assert.Equal(t, campaign.StatusCancelled, res.Campaign.Status)
		assert.False(t, res.Campaign.ReviewEnabled)
		assert.Empty(t, res.Payouts)
		assert.False(t, h.reloadCampaign(t).ReviewEnabled)
	})
}
