package event

import (
	"context"
	"marketplace-checkout/internal/metrics"
	"marketplace-checkout/internal/repository"
	"time"

	log "github.com/sirupsen/logrus"
)

// Relay drains the outbox table into a Publisher.
type Relay struct {
	outbox    repository.OutboxRepository
	publisher Publisher
	metrics   *metrics.Metrics

	interval  time.Duration
	batchSize int
	lease     time.Duration
}

func NewRelay(outbox repository.OutboxRepository, publisher Publisher, m *metrics.Metrics, interval time.Duration, batchSize int) *Relay {
	return &Relay{
		outbox:    outbox,
		publisher: publisher,
		metrics:   m,
		interval:  interval,
		batchSize: batchSize,
		lease:     time.Minute,
	}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.WithField("interval", r.interval.String()).Info("outbox relay started")

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil {
				log.WithError(err).Error("outbox relay flush failed")
			}
		}
	}
}

// Flush publishes one batch and returns how many events were sent.
// Rows are claimed in a short transaction; publishing happens outside it.
// A failed publish leaves the event PENDING for the next round.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	events, err := r.outbox.Claim(ctx, r.batchSize, r.lease)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, e := range events {
		pubErr := r.publisher.Publish(ctx, Message{
			ID:      e.ID,
			Topic:   e.Topic,
			Key:     e.AggregateID,
			Payload: e.Payload,
		})
		if pubErr != nil {
			log.WithError(pubErr).WithFields(log.Fields{
				"event_id": e.ID,
				"topic":    e.Topic,
				"attempts": e.Attempts + 1,
			}).Warn("publish outbox event")
			r.observe(e.Topic, "error")

			if err := r.outbox.MarkFailed(ctx, e.ID, pubErr); err != nil {
				return sent, err
			}
			continue
		}

		// published but unmarked rows are sent again once the lease expires
		if err := r.outbox.MarkSent(ctx, e.ID); err != nil {
			return sent, err
		}
		r.observe(e.Topic, "ok")
		sent++
	}

	return sent, nil
}

func (r *Relay) observe(topic, result string) {
	if r.metrics != nil {
		r.metrics.OutboxPublished.WithLabelValues(topic, result).Inc()
	}
}
