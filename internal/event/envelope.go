package event

import (
	"encoding/json"
	"fmt"
	"marketplace-checkout/internal/model"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TopicOrderCreated   = "order.created"
	TopicOrderPaid      = "order.paid"
	TopicOrderCancelled = "order.cancelled"
)

const envelopeVersion = 1

type Envelope struct {
	EventID    string          `json:"eventId"`
	Type       string          `json:"type"`
	Version    int             `json:"version"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

type OrderPayload struct {
	OrderID     string            `json:"orderId"`
	BuyerID     string            `json:"buyerId"`
	Status      model.OrderStatus `json:"status"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	PlatformFee decimal.Decimal   `json:"platformFee"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	SessionID   string            `json:"sessionId,omitempty"`
	Items       []OrderItemLine   `json:"items,omitempty"`
}

type OrderItemLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// NewOrderEvent builds the outbox row for an order lifecycle event.
func NewOrderEvent(topic string, order *model.Order, sessionID string) (*model.OutboxEvent, error) {
	lines := make([]OrderItemLine, len(order.Items))
	for i, item := range order.Items {
		lines[i] = OrderItemLine{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	payload, err := json.Marshal(OrderPayload{
		OrderID:     order.ID,
		BuyerID:     order.BuyerID,
		Status:      order.Status,
		Subtotal:    order.Subtotal,
		PlatformFee: order.PlatformFee,
		TotalAmount: order.TotalAmount,
		SessionID:   sessionID,
		Items:       lines,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order payload: %w", err)
	}

	id := uuid.NewString()
	body, err := json.Marshal(Envelope{
		EventID:    id,
		Type:       topic,
		Version:    envelopeVersion,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	return &model.OutboxEvent{
		ID:          id,
		AggregateID: order.ID,
		Topic:       topic,
		Payload:     body,
		Status:      model.OutboxStatusPending,
	}, nil
}
