package payment

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_processor.go -package=mocks . Processor

import "context"

// Account is the processor's view of an influencer's connected payout account.
type Account struct {
	ID               string `json:"id"`
	DetailsSubmitted bool   `json:"detailsSubmitted"`
	PayoutsEnabled   bool   `json:"payoutsEnabled"`
	ChargesEnabled   bool   `json:"chargesEnabled"`
}

// PayoutCapable reports whether transfers to the account can be paid out.
func (a *Account) PayoutCapable() bool {
	return a != nil && a.PayoutsEnabled
}

// Connected reports whether onboarding is complete enough to receive money.
func (a *Account) Connected() bool {
	return a != nil && a.DetailsSubmitted && (a.PayoutsEnabled || a.ChargesEnabled)
}

type TransferRequest struct {
	AmountCents    int64
	Currency       string
	Destination    string
	SourceChargeID string
	IdempotencyKey string
	Metadata       map[string]string
}

type Transfer struct {
	ID string
}

type IntentRequest struct {
	AmountCents    int64
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
}

// Processor is the external payments processor.
type Processor interface {
	CreateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error)
	RetrieveAccount(ctx context.Context, accountID string) (*Account, error)
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}
