package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"marketplace-checkout/internal/metrics"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"
	"marketplace-checkout/internal/testutil"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu        sync.Mutex
	messages  []Message
	failOn    string
	onPublish func(Message) error
}

func (p *recordingPublisher) Publish(ctx context.Context, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.onPublish != nil {
		if err := p.onPublish(msg); err != nil {
			return err
		}
	}
	if msg.Topic == p.failOn {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestNewOrderEvent(t *testing.T) {
	order := &model.Order{
		ID:          "order-1",
		BuyerID:     "buyer-1",
		Status:      model.OrderStatusProcessing,
		Subtotal:    testutil.Money("20.00"),
		PlatformFee: testutil.Money("1.00"),
		TotalAmount: testutil.Money("21.00"),
		Items:       []model.OrderItem{{ProductID: "p-1", Quantity: 2}},
	}

	row, err := NewOrderEvent(TopicOrderPaid, order, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", row.AggregateID)
	assert.Equal(t, TopicOrderPaid, row.Topic)
	assert.Equal(t, model.OutboxStatusPending, row.Status)

	var env Envelope
	require.NoError(t, json.Unmarshal(row.Payload, &env))
	assert.Equal(t, row.ID, env.EventID)
	assert.Equal(t, TopicOrderPaid, env.Type)
	assert.Equal(t, 1, env.Version)

	var payload OrderPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "cs_1", payload.SessionID)
	assert.True(t, payload.TotalAmount.Equal(testutil.Money("21")))
	assert.Equal(t, []OrderItemLine{{ProductID: "p-1", Quantity: 2}}, payload.Items)
}

func TestRelayFlush(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	outbox := repository.NewOutboxRepository(db)

	for _, topic := range []string{TopicOrderCreated, TopicOrderPaid, TopicOrderCancelled} {
		row, err := NewOrderEvent(topic, &model.Order{ID: "order-" + topic}, "")
		require.NoError(t, err)
		require.NoError(t, outbox.Insert(ctx, db, row))
	}

	pub := &recordingPublisher{failOn: TopicOrderCancelled}
	m := metrics.New()
	relay := NewRelay(outbox, pub, m, 0, 10)

	sent, err := relay.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, pub.messages, 2)
	assert.Equal(t, "order-"+TopicOrderCreated, pub.messages[0].Key)

	pending, err := outbox.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	var failed model.OutboxEvent
	require.NoError(t, db.Where("topic = ?", TopicOrderCancelled).First(&failed).Error)
	assert.Equal(t, 1, failed.Attempts)
	assert.Equal(t, "broker unavailable", failed.LastError)

	assert.Equal(t, 1.0, promtest.ToFloat64(m.OutboxPublished.WithLabelValues(TopicOrderPaid, "ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.OutboxPublished.WithLabelValues(TopicOrderCancelled, "error")))

	// retried on the next round once the broker recovers
	pub.failOn = ""
	sent, err = relay.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestRelayPublishesOutsideTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	outbox := repository.NewOutboxRepository(db)

	for _, topic := range []string{TopicOrderCreated, TopicOrderPaid, TopicOrderCancelled} {
		row, err := NewOrderEvent(topic, &model.Order{ID: "order-" + topic}, "")
		require.NoError(t, err)
		require.NoError(t, outbox.Insert(ctx, db, row))
	}

	// other writers, such as webhook fulfilment, must not wait on the batch
	var writeErrs []error
	pub := &recordingPublisher{onPublish: func(msg Message) error {
		wctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		writeErrs = append(writeErrs, db.WithContext(wctx).Create(&model.WebhookEvent{
			EventID:     "evt_" + msg.ID,
			EventType:   msg.Topic,
			ProcessedAt: time.Now(),
		}).Error)
		return nil
	}}

	sent, err := NewRelay(outbox, pub, nil, 0, 10).Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sent)

	require.Len(t, writeErrs, 3)
	for _, err := range writeErrs {
		assert.NoError(t, err)
	}

	var claimed int64
	require.NoError(t, db.Model(&model.OutboxEvent{}).Where("claimed_until IS NOT NULL").Count(&claimed).Error)
	assert.Zero(t, claimed)
}
