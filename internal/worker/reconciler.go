package worker

import (
	"context"
	"fmt"
	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/event"
	"marketplace-checkout/internal/metrics"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"
	"marketplace-checkout/internal/service"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const reconcileBatch = 100

// Reconciler settles PENDING orders that never heard back from the provider.
type Reconciler struct {
	db         *gorm.DB
	orderRepo  repository.OrderRepository
	outboxRepo repository.OutboxRepository
	provider   client.PaymentProvider
	payments   service.PaymentService
	metrics    *metrics.Metrics

	interval     time.Duration
	pendingAfter time.Duration
}

func NewReconciler(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	outboxRepo repository.OutboxRepository,
	provider client.PaymentProvider,
	payments service.PaymentService,
	m *metrics.Metrics,
	interval, pendingAfter time.Duration,
) *Reconciler {
	return &Reconciler{
		db:           db,
		orderRepo:    orderRepo,
		outboxRepo:   outboxRepo,
		provider:     provider,
		payments:     payments,
		metrics:      m,
		interval:     interval,
		pendingAfter: pendingAfter,
	}
}

func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.WithField("pending_after", r.pendingAfter.String()).Info("reconciler started")

	for {
		select {
		case <-ctx.Done():
			log.Info("reconciler stopped")
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				log.WithError(err).Error("reconcile pending orders")
			}
		}
	}
}

// RunOnce handles one batch of stale PENDING orders. Failures on a single
// order are logged and retried on the next tick.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	stale, err := r.orderRepo.FindStalePending(ctx, r.pendingAfter, reconcileBatch)
	if err != nil {
		return fmt.Errorf("find stale orders: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	log.WithField("count", len(stale)).Info("reconciling stale pending orders")

	for _, order := range stale {
		if err := r.reconcile(ctx, order); err != nil {
			log.WithError(err).WithField("order_id", order.ID).Warn("reconcile order")
		}
	}
	return nil
}

func (r *Reconciler) reconcile(ctx context.Context, order *model.Order) error {
	logger := log.WithFields(log.Fields{"order_id": order.ID, "session_id": order.CheckoutSessionID})

	if order.CheckoutSessionID == "" {
		logger.Info("no checkout session was created, cancelling")
		return r.cancel(ctx, order)
	}

	session, err := r.provider.GetCheckoutSession(ctx, order.CheckoutSessionID)
	if err != nil {
		return fmt.Errorf("get checkout session: %w", err)
	}

	switch {
	case session.IsPaid():
		logger.Warn("paid session without confirmation, recovering")
		if session.Metadata == nil {
			session.Metadata = map[string]string{}
		}
		if session.Metadata[model.MetadataOrderID] == "" {
			session.Metadata[model.MetadataOrderID] = order.ID
		}
		return r.payments.ConfirmCheckout(ctx, session)
	case session.Status == model.SessionStatusExpired:
		logger.Info("checkout session expired, cancelling")
		return r.cancel(ctx, order)
	default:
		return nil
	}
}

func (r *Reconciler) cancel(ctx context.Context, order *model.Order) error {
	var moved bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		moved, err = r.orderRepo.TransitionStatus(ctx, tx, order.ID, model.OrderStatusPending, model.OrderStatusCancelled)
		if err != nil || !moved {
			return err
		}

		order.Status = model.OrderStatusCancelled
		cancelled, err := event.NewOrderEvent(event.TopicOrderCancelled, order, order.CheckoutSessionID)
		if err != nil {
			return err
		}
		return r.outboxRepo.Insert(ctx, tx, cancelled)
	})
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}

	if moved && r.metrics != nil {
		r.metrics.OrdersCancelled.Inc()
	}
	return nil
}
