package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeePolicy_Split(t *testing.T) {
	p := DefaultFeePolicy()

	tests := []struct {
		amount float64
		fee    string
		net    string
		cents  int64
	}{
		{amount: 500, fee: "50", net: "450", cents: 45000},
		{amount: 333.33, fee: "33.33", net: "300", cents: 30000},
		{amount: 0.05, fee: "0.01", net: "0.04", cents: 4},
		{amount: 19.99, fee: "2", net: "17.99", cents: 1799},
	}
	for _, tc := range tests {
		s := p.Split(tc.amount)
		assert.Equal(t, tc.fee, s.AppFee.String(), "fee for %v", tc.amount)
		assert.Equal(t, tc.net, s.InfluencerAmount.String(), "net for %v", tc.amount)
		assert.Equal(t, tc.cents, s.InfluencerCents())
		assert.True(t, s.AppFee.Add(s.InfluencerAmount).Equal(s.Gross.Round(2)))
	}
}

func TestNewFeePolicy(t *testing.T) {
	p, err := NewFeePolicy(0.15)
	require.NoError(t, err)
	assert.Equal(t, "15", p.Split(100).AppFee.String())

	_, err = NewFeePolicy(1)
	assert.Error(t, err)
	_, err = NewFeePolicy(-0.1)
	assert.Error(t, err)
}

func TestFeePolicy_EffectiveFee(t *testing.T) {
	p := DefaultFeePolicy()

	stored := &Transaction{IsPayout: true, AppFee: 12, InfluencerAmount: 108}
	fee, net := p.EffectiveFee(stored, 120)
	assert.Equal(t, 12.0, fee)
	assert.Equal(t, 108.0, net)

	legacy := &Transaction{IsPayout: true}
	fee, net = p.EffectiveFee(legacy, 250)
	assert.Equal(t, 25.0, fee)
	assert.Equal(t, 225.0, net)
}

func TestTransaction_CanFundPayout(t *testing.T) {
	assert.True(t, (&Transaction{Status: StatusApproved, Amount: 10}).CanFundPayout())
	assert.False(t, (&Transaction{Status: StatusPending, Amount: 10}).CanFundPayout())
	assert.False(t, (&Transaction{Status: StatusApproved, Amount: 0}).CanFundPayout())
	assert.False(t, (&Transaction{Status: StatusApproved, Amount: 10, IsPayout: true}).CanFundPayout())
}

func TestNewPayout(t *testing.T) {
	source := &Transaction{ID: uuid.New(), CampaignID: uuid.New(), ProposalID: uuid.New(), Amount: 500}
	influencer := uuid.New()

	payout := NewPayout(influencer, source, DefaultFeePolicy().Split(source.Amount), "usd")

	assert.True(t, payout.IsPayout)
	assert.Equal(t, TypeCredit, payout.Type)
	assert.Equal(t, StatusPending, payout.Status)
	assert.Equal(t, influencer, payout.UserID)
	assert.Equal(t, 450.0, payout.InfluencerAmount)
	assert.Equal(t, 50.0, payout.AppFee)
	require.NotNil(t, payout.SourceTransactionID)
	assert.Equal(t, source.ID, *payout.SourceTransactionID)
	assert.False(t, payout.Transferred())

	payout.MarkTransferred("tr_1", payout.CreatedAt)
	assert.True(t, payout.Transferred())
	assert.Equal(t, StatusApproved, payout.Status)
}
