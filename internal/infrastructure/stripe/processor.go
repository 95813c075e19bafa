// Package stripe adapts the Stripe Connect API to payment.Processor.
package stripe

import (
	"context"
	"errors"
	"fmt"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/collabmarket/settlement-hub/internal/domain/payment"
)

// ErrNotConfigured is returned by every call of an Unconfigured processor.
var ErrNotConfigured = errors.New("payment processor is not configured")

// Processor calls Stripe with the platform secret key.
type Processor struct {
	api    *client.API
	tracer trace.Tracer
}

// NewProcessor creates a Stripe-backed processor.
func NewProcessor(secretKey string) *Processor {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Processor{
		api:    api,
		tracer: otel.Tracer("github.com/collabmarket/settlement-hub/internal/infrastructure/stripe"),
	}
}

func (p *Processor) CreateTransfer(ctx context.Context, req payment.TransferRequest) (_ *payment.Transfer, err error) {
	ctx, span := p.tracer.Start(ctx, "stripe.CreateTransfer", trace.WithAttributes(
		attribute.Int64("transfer.amount_cents", req.AmountCents),
		attribute.String("transfer.destination", req.Destination),
	))
	defer func() { end(span, err) }()

	params := &stripego.TransferParams{
		Amount:      stripego.Int64(req.AmountCents),
		Currency:    stripego.String(req.Currency),
		Destination: stripego.String(req.Destination),
	}
	if req.SourceChargeID != "" {
		params.SourceTransaction = stripego.String(req.SourceChargeID)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	t, err := p.api.Transfers.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe transfer: %w", err)
	}
	return &payment.Transfer{ID: t.ID}, nil
}

func (p *Processor) RetrieveAccount(ctx context.Context, accountID string) (_ *payment.Account, err error) {
	ctx, span := p.tracer.Start(ctx, "stripe.RetrieveAccount", trace.WithAttributes(
		attribute.String("account.id", accountID),
	))
	defer func() { end(span, err) }()

	params := &stripego.AccountParams{}
	params.Context = ctx
	acct, err := p.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe account: %w", err)
	}
	return &payment.Account{
		ID:               acct.ID,
		DetailsSubmitted: acct.DetailsSubmitted,
		PayoutsEnabled:   acct.PayoutsEnabled,
		ChargesEnabled:   acct.ChargesEnabled,
	}, nil
}

func (p *Processor) CreatePaymentIntent(ctx context.Context, req payment.IntentRequest) (_ *payment.Intent, err error) {
	ctx, span := p.tracer.Start(ctx, "stripe.CreatePaymentIntent", trace.WithAttributes(
		attribute.Int64("intent.amount_cents", req.AmountCents),
	))
	defer func() { end(span, err) }()

	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(req.AmountCents),
		Currency: stripego.String(req.Currency),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe payment intent: %w", err)
	}
	return &payment.Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Unconfigured rejects every call; it backs deployments without a secret key.
type Unconfigured struct{}

func (Unconfigured) CreateTransfer(context.Context, payment.TransferRequest) (*payment.Transfer, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) RetrieveAccount(context.Context, string) (*payment.Account, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) CreatePaymentIntent(context.Context, payment.IntentRequest) (*payment.Intent, error) {
	return nil, ErrNotConfigured
}

var (
	_ payment.Processor = (*Processor)(nil)
	_ payment.Processor = Unconfigured{}
)
