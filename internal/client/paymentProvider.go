package client

import (
	"context"
	"marketplace-checkout/internal/model"
	"time"
)

// PaymentProvider is the hosted checkout provider as seen by the services.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*model.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error)
	// ConstructEvent verifies the signature header and decodes the event.
	ConstructEvent(payload []byte, signatureHeader string) (*model.ProviderEvent, error)
}

type LineItem struct {
	Name       string
	UnitAmount int64 // minor units
	Quantity   int64
}

type CheckoutSessionParams struct {
	LineItems         []LineItem
	Currency          string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	Metadata          map[string]string
	ExpiresAt         time.Time
	IdempotencyKey    string
}
