package client

import (
	"context"
	"fmt"
	"marketplace-checkout/internal/config"
	"marketplace-checkout/internal/model"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

type stripeClientImpl struct {
	sessions         session.Client
	webhookSecret    string
	webhookTolerance time.Duration
}

func NewStripeClient(stripeCfg *config.Stripe) PaymentProvider {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		URL:               stripe.String(strings.TrimRight(stripeCfg.BaseApiURL, "/")),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     logrus.StandardLogger(),
	})

	return &stripeClientImpl{
		sessions:         session.Client{B: backend, Key: stripeCfg.SecretKey},
		webhookSecret:    stripeCfg.WebhookSecret,
		webhookTolerance: stripeCfg.WebhookTolerance,
	}
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*model.CheckoutSession, error) {
	sp := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(params.SuccessURL),
		CancelURL:          stripe.String(params.CancelURL),
	}
	sp.Context = ctx
	if params.ClientReferenceID != "" {
		sp.ClientReferenceID = stripe.String(params.ClientReferenceID)
	}
	if !params.ExpiresAt.IsZero() {
		sp.ExpiresAt = stripe.Int64(params.ExpiresAt.Unix())
	}
	if params.IdempotencyKey != "" {
		sp.SetIdempotencyKey(params.IdempotencyKey)
	}

	for _, item := range params.LineItems {
		sp.LineItems = append(sp.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(params.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	for k, v := range params.Metadata {
		sp.AddMetadata(k, v)
	}

	s, err := c.sessions.New(sp)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return toCheckoutSession(s), nil
}

func (c *stripeClientImpl) GetCheckoutSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	sp := &stripe.CheckoutSessionParams{}
	sp.Context = ctx

	s, err := c.sessions.Get(sessionID, sp)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", sessionID, err)
	}

	return toCheckoutSession(s), nil
}

func (c *stripeClientImpl) ConstructEvent(payload []byte, signatureHeader string) (*model.ProviderEvent, error) {
	return constructEvent(payload, signatureHeader, c.webhookSecret, c.webhookTolerance)
}

func toCheckoutSession(s *stripe.CheckoutSession) *model.CheckoutSession {
	out := &model.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
		ExpiresAt:     s.ExpiresAt,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntent = s.PaymentIntent.ID
	}
	return out
}
