package payout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	"github.com/collabmarket/settlement-hub/internal/domain/campaign"
	"github.com/collabmarket/settlement-hub/internal/domain/ledger"
	"github.com/collabmarket/settlement-hub/internal/domain/payment"
	paymentMocks "github.com/collabmarket/settlement-hub/internal/domain/payment/mocks"
	"github.com/collabmarket/settlement-hub/internal/domain/proposal"
	"github.com/collabmarket/settlement-hub/internal/domain/user"
	"github.com/collabmarket/settlement-hub/internal/infrastructure/memory"
)

type engineFixture struct {
	store      *memory.Store
	processor  *paymentMocks.MockProcessor
	engine     *Engine
	campaign   campaign.Campaign
	proposal   proposal.Proposal
	source     ledger.Transaction
	influencer user.User
}

// newEngineFixture seeds a completed campaign with one approved, paid proposal of 500.
func newEngineFixture(t *testing.T, withAccount bool) *engineFixture {
	ctrl := gomock.NewController(t)
	store := memory.NewStore()

	brand := user.User{ID: uuid.New(), Name: "Acme", Role: user.RoleBrand}
	influencer := user.User{ID: uuid.New(), Name: "Ada", Role: user.RoleInfluencer}
	if withAccount {
		influencer.StripeAccountID = "acct_ada"
	}
	store.SeedUser(brand)
	store.SeedUser(influencer)

	camp := campaign.Campaign{ID: uuid.New(), BrandID: brand.ID, Status: campaign.StatusCompleted, ReviewEnabled: true, MaxInfluencers: 1}
	store.SeedCampaign(camp)

	charge := "ch_1"
	source := ledger.Transaction{
		ID: uuid.New(), UserID: brand.ID, CampaignID: camp.ID, Amount: 500,
		Type: ledger.TypeDebit, Status: ledger.StatusApproved, StripeChargeID: &charge,
		Currency: "usd", CreatedAt: time.Now().UTC(),
	}
	now := time.Now().UTC()
	prop := proposal.Proposal{
		ID: uuid.New(), CampaignID: camp.ID, InfluencerID: influencer.ID, Amount: 500,
		Status: proposal.StatusAccepted, InfluencerMarkedComplete: true, InfluencerCompletedAt: &now,
		AdminApprovedCompletion: true, AdminCompletionApprovedAt: &now,
		PaymentStatus: proposal.PaymentPaid, BrandTransactionID: &source.ID,
	}
	source.ProposalID = prop.ID
	store.SeedTransaction(source)
	require.NoError(t, store.SeedProposal(prop))

	processor := paymentMocks.NewMockProcessor(ctrl)
	engine := NewEngine(
		store.Proposals(), store.Campaigns(), store.Transactions(), store.Users(), processor, nil, nil,
		Config{Currency: "usd", Fees: ledger.DefaultFeePolicy()}, zerolog.Nop(),
	)
	return &engineFixture{store: store, processor: processor, engine: engine, campaign: camp, proposal: prop, source: source, influencer: influencer}
}

func (f *engineFixture) payouts(t *testing.T) []*ledger.Transaction {
	t.Helper()
	txns, err := f.store.Transactions().ListByProposals(context.Background(), []uuid.UUID{f.proposal.ID})
	require.NoError(t, err)
	out := make([]*ledger.Transaction, 0)
	for _, txn := range txns {
		if txn.IsPayout {
			out = append(out, txn)
		}
	}
	return out
}

func (f *engineFixture) setCampaignStatus(status campaign.Status) {
	c := f.campaign
	c.SetStatus(status, time.Now().UTC())
	f.store.SeedCampaign(c)
}

func (f *engineFixture) reload(t *testing.T) *proposal.Proposal {
	t.Helper()
	p, err := f.store.Proposals().GetByID(context.Background(), f.proposal.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func TestEngine_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("transfers the influencer share", func(t *testing.T) {
		f := newEngineFixture(t, true)
		f.processor.EXPECT().RetrieveAccount(gomock.Any(), "acct_ada").
			Return(&payment.Account{ID: "acct_ada", PayoutsEnabled: true, DetailsSubmitted: true}, nil)
		f.processor.EXPECT().CreateTransfer(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req payment.TransferRequest) (*payment.Transfer, error) {
				assert.Equal(t, int64(45000), req.AmountCents)
				assert.Equal(t, "usd", req.Currency)
				assert.Equal(t, "acct_ada", req.Destination)
				assert.Equal(t, "ch_1", req.SourceChargeID)
				assert.Equal(t, f.proposal.ID.String(), req.Metadata["proposalId"])
				assert.NotEmpty(t, req.IdempotencyKey)
				return &payment.Transfer{ID: "tr_1"}, nil
			})

		out, err := f.engine.Execute(ctx, f.proposal.ID, PolicySkip)

		require.NoError(t, err)
		assert.Equal(t, OutcomePaid, out.Status)
		assert.Equal(t, "tr_1", out.TransferID)
		assert.Equal(t, 450.0, out.InfluencerAmount)
		assert.Equal(t, 50.0, out.AppFee)

		payouts := f.payouts(t)
		require.Len(t, payouts, 1)
		txn := payouts[0]
		assert.Equal(t, ledger.StatusApproved, txn.Status)
		assert.Equal(t, ledger.TypeCredit, txn.Type)
		assert.Equal(t, f.influencer.ID, txn.UserID)
		assert.Equal(t, 450.0, txn.InfluencerAmount)
		assert.Equal(t, 50.0, txn.AppFee)
		require.NotNil(t, txn.SourceTransactionID)
		assert.Equal(t, f.source.ID, *txn.SourceTransactionID)

		p := f.reload(t)
		require.NotNil(t, p.PayoutTransactionID)
		assert.Equal(t, txn.ID, *p.PayoutTransactionID)
		assert.Equal(t, proposal.PaymentReleased, p.PaymentStatus)
	})

	t.Run("second invocation skips as already paid", func(t *testing.T) {
		f := newEngineFixture(t, true)
		f.processor.EXPECT().RetrieveAccount(gomock.Any(), gomock.Any()).
			Return(&payment.Account{PayoutsEnabled: true}, nil).Times(1)
		f.processor.EXPECT().CreateTransfer(gomock.Any(), gomock.Any()).
			Return(&payment.Transfer{ID: "tr_1"}, nil).Times(1)

		first, err := f.engine.Execute(ctx, f.proposal.ID, PolicySkip)
		require.NoError(t, err)
		second, err := f.engine.Execute(ctx, f.proposal.ID, PolicyFail)
		require.NoError(t, err)

		assert.Equal(t, OutcomePaid, first.Status)
		assert.Equal(t, OutcomeSkipped, second.Status)
		assert.Equal(t, ReasonAlreadyPaid, second.Reason)
		assert.Equal(t, first.TransactionID, second.TransactionID)
		assert.Len(t, f.payouts(t), 1)
	})

	t.Run("concurrent invocations create one payout", func(t *testing.T) {
		f := newEngineFixture(t, true)
		f.processor.EXPECT().RetrieveAccount(gomock.Any(), gomock.Any()).
			Return(&payment.Account{PayoutsEnabled: true}, nil).Times(1)
		f.processor.EXPECT().CreateTransfer(gomock.Any(), gomock.Any()).
			Return(&payment.Transfer{ID: "tr_1"}, nil).Times(1)

		var wg sync.WaitGroup
		outcomes := make([]*Outcome, 4)
		for i := range outcomes {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out, err := f.engine.Execute(ctx, f.proposal.ID, PolicySkip)
				assert.NoError(t, err)
				outcomes[i] = out
			}(i)
		}
		wg.Wait()

		paid := 0
		for _, out := range outcomes {
			require.NotNil(t, out)
			if out.Status == OutcomePaid {
				paid++
			}
		}
		assert.Equal(t, 1, paid)
		assert.Len(t, f.payouts(t), 1)
	})

	t.Run("missing destination leaves a pending payout in batch mode", func(t *testing.T) {
		f := newEngineFixture(t, false)

		out, err := f.engine.Execute(ctx, f.proposal.ID, PolicySkip)

		require.NoError(t, err)
		assert.Equal(t, OutcomePending, out.Status)
		assert.Equal(t, ReasonMissingDestination, out.Reason)

		payouts := f.payouts(t)
		require.Len(t, payouts, 1)
		assert.Equal(t, ledger.StatusPending, payouts[0].Status)
		assert.Nil(t, payouts[0].StripeTransferID)

		p := f.reload(t)
		require.NotNil(t, p.PayoutTransactionID)
		assert.Equal(t, proposal.PaymentPaid, p.PaymentStatus)
	})

	t.Run("pending payout is completed in place on retry", func(t *testing.T) {
		f := newEngineFixture(t, true)
		f.processor.EXPECT().RetrieveAccount(gomock.Any(), "acct_ada").
			Return(&payment.Account{PayoutsEnabled: false}, nil)

		first, err := f.engine.Execute(ctx, f.proposal.ID, PolicySkip)
		require.NoError(t, err)
		assert.Equal(t, OutcomePending, first.Status)
		assert.Equal(t, ReasonNotPayoutCapable, first.Reason)

		f.processor.EXPECT().RetrieveAccount(gomock.Any(), "acct_ada").
			Return(&payment.Account{PayoutsEnabled: true}, nil)
		f.processor.EXPECT().CreateTransfer(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req payment.TransferRequest) (*payment.Transfer, error) {
				assert.Equal(t, "payout:"+first.TransactionID.String(), req.IdempotencyKey)
				return &payment.Transfer{ID: "tr_2"}, nil
			})

		second, err := f.engine.Execute(ctx, f.proposal.ID, PolicyFail)
		require.NoError(t, err)
		assert.Equal(t, OutcomePaid, second.Status)
		assert.Equal(t, *first.TransactionID, *second.TransactionID)

		payouts := f.payouts(t)
		require.Len(t, payouts, 1)
		assert.Equal(t, ledger.StatusApproved, payouts[0].Status)
		require.NotNil(t, payouts[0].StripeTransferID)
		assert.Equal(t, "tr_2", *payouts[0].StripeTransferID)
		assert.Equal(t, proposal.PaymentReleased, f.reload(t).PaymentStatus)
	})

	t.Run("manual policy surfaces transfer failure and persists nothing", func(t *testing.T) {
		f := newEngineFixture(t, true)
		f.processor.EXPECT().RetrieveAccount(gomock.Any(), gomock.Any()).
			Return(&payment.Account{PayoutsEnabled: true}, nil)
		f.processor.EXPECT().CreateTransfer(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("insufficient platform balance"))

		_, err := f.engine.Execute(ctx, f.proposal.ID, PolicyFail)

		assert.True(t, errors.Is(err, apperr.ErrExternal))
		assert.Empty(t, f.payouts(t))
		assert.Nil(t, f.reload(t).PayoutTransactionID)
	})

	t.Run("manual policy rejects missing destination", func(t *testing.T) {
		f := newEngineFixture(t, false)

		_, err := f.engine.Execute(ctx, f.proposal.ID, PolicyFail)

		assert.True(t, errors.Is(err, apperr.ErrPrecondition))
		assert.Contains(t, err.Error(), "no connected payout account")
		assert.Empty(t, f.payouts(t))
	})

	t.Run("unpaid proposal is skipped", func(t *testing.T) {
		f := newEngineFixture(t, true)
		p := f.reload(t)
		p.PaymentStatus = proposal.PaymentPending
		require.NoError(t, f.store.SeedProposal(*p))

		out, err := f.engine.Execute(ctx, f.proposal.ID, PolicySkip)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, out.Status)
		assert.Equal(t, ReasonPaymentNotPaid, out.Reason)

		_, err = f.engine.Execute(ctx, f.proposal.ID, PolicyFail)
		assert.True(t, errors.Is(err, apperr.ErrPrecondition))
	})

	t.Run("disputed campaign is not payable", func(t *testing.T) {
		f := newEngineFixture(t, true)
		f.setCampaignStatus(campaign.StatusDisputed)

		out, err := f.engine.Execute(ctx, f.proposal.ID, PolicySkip)

		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, out.Status)
		assert.Equal(t, ReasonCampaignNotPayable, out.Reason)
		assert.Empty(t, f.payouts(t))
		assert.Equal(t, proposal.PaymentPaid, f.reload(t).PaymentStatus)
	})

	t.Run("pending payout of a cancelled campaign is not retried", func(t *testing.T) {
		f := newEngineFixture(t, false)
		out, err := f.engine.Execute(ctx, f.proposal.ID, PolicySkip)
		require.NoError(t, err)
		require.Equal(t, OutcomePending, out.Status)

		f.setCampaignStatus(campaign.StatusCancelled)
		inf := f.influencer
		inf.StripeAccountID = "acct_ada"
		f.store.SeedUser(inf)

		_, err = f.engine.Execute(ctx, f.proposal.ID, PolicyFail)

		assert.True(t, errors.Is(err, apperr.ErrPrecondition))
		require.Len(t, f.payouts(t), 1)
		assert.Equal(t, ledger.StatusPending, f.payouts(t)[0].Status)
	})

	t.Run("source that is not approved is skipped", func(t *testing.T) {
		f := newEngineFixture(t, true)
		src := f.source
		src.Status = ledger.StatusPending
		f.store.SeedTransaction(src)

		out, err := f.engine.Execute(ctx, f.proposal.ID, PolicySkip)
		require.NoError(t, err)
		assert.Equal(t, ReasonInvalidSource, out.Reason)
		assert.Empty(t, f.payouts(t))
	})
}

func TestEngine_ManualPayout(t *testing.T) {
	ctx := context.Background()
	admin := user.Actor{UserID: uuid.New(), Role: user.RoleAdmin}

	t.Run("requires admin", func(t *testing.T) {
		f := newEngineFixture(t, true)
		_, err := f.engine.ManualPayout(ctx, user.Actor{UserID: uuid.New(), Role: user.RoleBrand}, f.proposal.ID)
		assert.True(t, errors.Is(err, apperr.ErrForbidden))
	})

	t.Run("requires approved completion", func(t *testing.T) {
		f := newEngineFixture(t, true)
		p := f.reload(t)
		p.AdminApprovedCompletion = false
		require.NoError(t, f.store.SeedProposal(*p))

		_, err := f.engine.ManualPayout(ctx, admin, f.proposal.ID)
		assert.True(t, errors.Is(err, apperr.ErrPrecondition))
	})

	for _, status := range []campaign.Status{campaign.StatusDisputed, campaign.StatusCancelled, campaign.StatusActive} {
		t.Run("refuses "+string(status)+" campaign", func(t *testing.T) {
			f := newEngineFixture(t, true)
			f.setCampaignStatus(status)

			_, err := f.engine.ManualPayout(ctx, admin, f.proposal.ID)

			assert.True(t, errors.Is(err, apperr.ErrPrecondition))
			assert.Contains(t, err.Error(), "only completed campaigns can be paid out")
			assert.Empty(t, f.payouts(t))
		})
	}

	t.Run("unknown proposal", func(t *testing.T) {
		f := newEngineFixture(t, true)
		_, err := f.engine.ManualPayout(ctx, admin, uuid.New())
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("pays out", func(t *testing.T) {
		f := newEngineFixture(t, true)
		f.processor.EXPECT().RetrieveAccount(gomock.Any(), gomock.Any()).Return(&payment.Account{PayoutsEnabled: true}, nil)
		f.processor.EXPECT().CreateTransfer(gomock.Any(), gomock.Any()).Return(&payment.Transfer{ID: "tr_9"}, nil)

		out, err := f.engine.ManualPayout(ctx, admin, f.proposal.ID)
		require.NoError(t, err)
		assert.Equal(t, OutcomePaid, out.Status)
	})
}

func TestEngine_AccountStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("connected account", func(t *testing.T) {
		f := newEngineFixture(t, true)
		f.processor.EXPECT().RetrieveAccount(gomock.Any(), "acct_ada").
			Return(&payment.Account{ID: "acct_ada", DetailsSubmitted: true, ChargesEnabled: true}, nil)

		st, err := f.engine.AccountStatus(ctx, user.Actor{UserID: f.influencer.ID, Role: user.RoleInfluencer})
		require.NoError(t, err)
		assert.True(t, st.Connected)
		assert.False(t, st.PayoutsEnabled)
		assert.Equal(t, "acct_ada", st.AccountID)
	})

	t.Run("no account", func(t *testing.T) {
		f := newEngineFixture(t, false)
		st, err := f.engine.AccountStatus(ctx, user.Actor{UserID: f.influencer.ID, Role: user.RoleInfluencer})
		require.NoError(t, err)
		assert.False(t, st.Connected)
	})

	t.Run("processor error", func(t *testing.T) {
		f := newEngineFixture(t, true)
		f.processor.EXPECT().RetrieveAccount(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
		_, err := f.engine.AccountStatus(ctx, user.Actor{UserID: f.influencer.ID, Role: user.RoleInfluencer})
		assert.True(t, errors.Is(err, apperr.ErrExternal))
	})

	t.Run("brand forbidden", func(t *testing.T) {
		f := newEngineFixture(t, true)
		_, err := f.engine.AccountStatus(ctx, user.Actor{UserID: uuid.New(), Role: user.RoleBrand})
		assert.True(t, errors.Is(err, apperr.ErrForbidden))
	})
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "k")
	require.NoError(t, err)

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(timeout, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := l.Lock(ctx, "other")
	require.NoError(t, err)
	other()

	unlock()
	again, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	again()
}
