package client

import (
	"context"
	"encoding/json"
	"fmt"
	"marketplace-checkout/internal/model"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockPaymentClient is an in-memory hosted checkout used for local runs and tests.
// Events it emits are signed with the same scheme as the real provider.
type MockPaymentClient struct {
	mu            sync.RWMutex
	sessions      map[string]*model.CheckoutSession
	byIdempotency map[string]string
	created       []*CheckoutSessionParams
	failNext      error

	baseURL       string
	webhookSecret string
	tolerance     time.Duration
}

func NewMockPaymentClient(baseURL, webhookSecret string) *MockPaymentClient {
	return &MockPaymentClient{
		sessions:      make(map[string]*model.CheckoutSession),
		byIdempotency: make(map[string]string),
		baseURL:       baseURL,
		webhookSecret: webhookSecret,
		tolerance:     5 * time.Minute,
	}
}

// FailNext makes the next CreateCheckoutSession call return err.
func (m *MockPaymentClient) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

func (m *MockPaymentClient) CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*model.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failNext; err != nil {
		m.failNext = nil
		return nil, err
	}

	if params.IdempotencyKey != "" {
		if id, ok := m.byIdempotency[params.IdempotencyKey]; ok {
			return copySession(m.sessions[id]), nil
		}
	}

	var total int64
	for _, item := range params.LineItems {
		total += item.UnitAmount * item.Quantity
	}

	metadata := make(map[string]string, len(params.Metadata))
	for k, v := range params.Metadata {
		metadata[k] = v
	}

	id := "cs_mock_" + uuid.NewString()
	session := &model.CheckoutSession{
		ID:            id,
		URL:           fmt.Sprintf("%s/mock-checkout/%s", m.baseURL, id),
		Status:        model.SessionStatusOpen,
		PaymentStatus: "unpaid",
		AmountTotal:   total,
		Currency:      params.Currency,
		Metadata:      metadata,
		ExpiresAt:     params.ExpiresAt.Unix(),
	}

	m.sessions[id] = session
	if params.IdempotencyKey != "" {
		m.byIdempotency[params.IdempotencyKey] = id
	}
	m.created = append(m.created, params)

	return copySession(session), nil
}

func (m *MockPaymentClient) GetCheckoutSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("checkout session %s not found", sessionID)
	}
	return copySession(session), nil
}

func (m *MockPaymentClient) ConstructEvent(payload []byte, signatureHeader string) (*model.ProviderEvent, error) {
	return constructEvent(payload, signatureHeader, m.webhookSecret, m.tolerance)
}

// Complete marks the session paid and returns the signed checkout.session.completed event.
func (m *MockPaymentClient) Complete(sessionID string) (payload []byte, signatureHeader string, err error) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	var snapshot *model.CheckoutSession
	if ok {
		session.Status = model.SessionStatusComplete
		session.PaymentStatus = model.SessionPaymentPaid
		session.PaymentIntent = "pi_mock_" + uuid.NewString()
		snapshot = copySession(session)
	}
	m.mu.Unlock()

	if !ok {
		return nil, "", fmt.Errorf("checkout session %s not found", sessionID)
	}

	return m.SignedEvent(model.EventCheckoutSessionCompleted, snapshot)
}

// Expire marks the session expired without emitting an event.
func (m *MockPaymentClient) Expire(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[sessionID]; ok {
		session.Status = model.SessionStatusExpired
	}
}

// SignedEvent wraps object in a provider event and signs it.
func (m *MockPaymentClient) SignedEvent(eventType string, object interface{}) ([]byte, string, error) {
	raw, err := json.Marshal(object)
	if err != nil {
		return nil, "", err
	}

	payload, err := json.Marshal(model.ProviderEvent{
		ID:      "evt_mock_" + uuid.NewString(),
		Type:    eventType,
		Created: time.Now().Unix(),
		Data:    model.ProviderEventData{Object: raw},
	})
	if err != nil {
		return nil, "", err
	}

	return payload, SignatureHeader(payload, m.webhookSecret, time.Now()), nil
}

// CreatedSessions returns the parameters of every session created so far.
func (m *MockPaymentClient) CreatedSessions() []*CheckoutSessionParams {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*CheckoutSessionParams, len(m.created))
	copy(out, m.created)
	return out
}

func copySession(s *model.CheckoutSession) *model.CheckoutSession {
	c := *s
	return &c
}
