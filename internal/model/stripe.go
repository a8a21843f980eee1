package model

import "encoding/json"

const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventCheckoutSessionExpired   = "checkout.session.expired"
)

const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"

	SessionPaymentPaid = "paid"
)

const (
	MetadataOrderID = "orderId"
	MetadataUserID  = "userId"
)

type CheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	PaymentIntent string            `json:"payment_intent"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
	ExpiresAt     int64             `json:"expires_at"`
}

func (s *CheckoutSession) IsPaid() bool {
	return s.Status == SessionStatusComplete && s.PaymentStatus == SessionPaymentPaid
}

type ProviderEventData struct {
	Object json.RawMessage `json:"object"`
}

type ProviderEvent struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Created  int64             `json:"created"`
	Livemode bool              `json:"livemode"`
	Data     ProviderEventData `json:"data"`
}

func (e *ProviderEvent) CheckoutSession() (*CheckoutSession, error) {
	var session CheckoutSession
	if err := json.Unmarshal(e.Data.Object, &session); err != nil {
		return nil, err
	}
	return &session, nil
}
