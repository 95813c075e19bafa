package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultPlatformFeeRate is the marketplace commission applied to brand payments.
const DefaultPlatformFeeRate = 0.10

var hundred = decimal.NewFromInt(100)

// FeePolicy splits a gross amount into platform fee and influencer share.
type FeePolicy struct {
	rate decimal.Decimal
}

// NewFeePolicy validates the configured rate; it must lie in [0, 1).
func NewFeePolicy(rate float64) (FeePolicy, error) {
	d := decimal.NewFromFloat(rate)
	if d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return FeePolicy{}, fmt.Errorf("platform fee rate %v out of range [0,1)", rate)
	}
	return FeePolicy{rate: d}, nil
}

// DefaultFeePolicy returns the policy at DefaultPlatformFeeRate.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{rate: decimal.NewFromFloat(DefaultPlatformFeeRate)}
}

func (p FeePolicy) Rate() decimal.Decimal {
	return p.rate
}

// Split holds the cent-rounded parts of a gross amount.
type Split struct {
	Gross            decimal.Decimal
	AppFee           decimal.Decimal
	InfluencerAmount decimal.Decimal
}

// Split computes fee = round2(amount*rate) and net = round2(amount-fee).
func (p FeePolicy) Split(amount float64) Split {
	gross := decimal.NewFromFloat(amount)
	fee := gross.Mul(p.rate).Round(2)
	return Split{
		Gross:            gross,
		AppFee:           fee,
		InfluencerAmount: gross.Sub(fee).Round(2),
	}
}

// InfluencerCents is the transfer amount in the currency's minor unit.
func (s Split) InfluencerCents() int64 {
	return s.InfluencerAmount.Mul(hundred).Round(0).IntPart()
}

// Cents converts a major-unit amount to minor units.
func Cents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}

// EffectiveFee returns the stored fee split of a transaction, recomputed from gross when
// the stored fee is zero. Rows written before fees were persisted carry a zero fee.
func (p FeePolicy) EffectiveFee(txn *Transaction, gross float64) (appFee, influencerAmount float64) {
	if txn.AppFee > 0 {
		return txn.AppFee, txn.InfluencerAmount
	}
	if gross <= 0 {
		return 0, txn.InfluencerAmount
	}
	s := p.Split(gross)
	return s.AppFee.InexactFloat64(), s.InfluencerAmount.InexactFloat64()
}
