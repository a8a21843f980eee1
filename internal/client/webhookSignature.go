package client

import (
	"fmt"
	"marketplace-checkout/internal/model"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

// constructEvent verifies a `t=<unix>,v1=<hex hmac>` header and decodes the event.
// Events are not pinned to an API version; only the fields in model.ProviderEvent are read.
func constructEvent(payload []byte, header, secret string, tolerance time.Duration) (*model.ProviderEvent, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		Tolerance:                tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}

	out := &model.ProviderEvent{
		ID:       evt.ID,
		Type:     string(evt.Type),
		Created:  evt.Created,
		Livemode: evt.Livemode,
	}
	if evt.Data != nil {
		out.Data.Object = evt.Data.Raw
	}

	return out, nil
}

// SignatureHeader builds the header value the provider would send for payload.
func SignatureHeader(payload []byte, secret string, at time.Time) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	})
	return signed.Header
}
