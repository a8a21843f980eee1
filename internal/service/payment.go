package service

import (
	"context"
	"errors"
	"fmt"
	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/dedup"
	"marketplace-checkout/internal/event"
	"marketplace-checkout/internal/metrics"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	outcomeConfirmed = "confirmed"
	outcomeDuplicate = "duplicate"
	outcomeSkipped   = "skipped"
	outcomeIgnored   = "ignored"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
)

type PaymentService interface {
	// HandleWebhook verifies and applies one provider notification.
	// A nil error means the provider may stop redelivering it.
	HandleWebhook(ctx context.Context, signatureHeader string, body []byte) error
	// ConfirmCheckout fulfills the order behind a paid session. Safe to call repeatedly.
	ConfirmCheckout(ctx context.Context, session *model.CheckoutSession) error
}

type paymentServiceImpl struct {
	db               *gorm.DB
	provider         client.PaymentProvider
	dedup            dedup.Store
	orderRepo        repository.OrderRepository
	paymentRepo      repository.PaymentRepository
	platformFeeRepo  repository.PlatformFeeRepository
	inventoryRepo    repository.InventoryRepository
	webhookEventRepo repository.WebhookEventRepository
	outboxRepo       repository.OutboxRepository
	metrics          *metrics.Metrics
	feePercentage    decimal.Decimal
}

func NewPaymentService(
	db *gorm.DB,
	provider client.PaymentProvider,
	dedupStore dedup.Store,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	platformFeeRepo repository.PlatformFeeRepository,
	inventoryRepo repository.InventoryRepository,
	webhookEventRepo repository.WebhookEventRepository,
	outboxRepo repository.OutboxRepository,
	m *metrics.Metrics,
	feePercentage decimal.Decimal,
) PaymentService {
	return &paymentServiceImpl{
		db:               db,
		provider:         provider,
		dedup:            dedupStore,
		orderRepo:        orderRepo,
		paymentRepo:      paymentRepo,
		platformFeeRepo:  platformFeeRepo,
		inventoryRepo:    inventoryRepo,
		webhookEventRepo: webhookEventRepo,
		outboxRepo:       outboxRepo,
		metrics:          m,
		feePercentage:    feePercentage,
	}
}

func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, signatureHeader string, body []byte) error {
	if signatureHeader == "" {
		s.observe("unknown", outcomeRejected)
		return apperr.New(apperr.KindSignatureInvalid, "No signature")
	}

	evt, err := s.provider.ConstructEvent(body, signatureHeader)
	if err != nil {
		log.WithError(err).Warn("webhook signature verification failed")
		s.observe("unknown", outcomeRejected)
		return apperr.Wrap(apperr.KindSignatureInvalid, err, "Invalid signature")
	}

	logger := log.WithFields(log.Fields{"event_id": evt.ID, "event_type": evt.Type})

	outcome, err := s.handleEvent(ctx, evt)
	if err != nil {
		logger.WithError(err).Error("webhook processing failed")
		s.observe(evt.Type, outcomeFailed)
		// anything past the signature check is retryable
		return apperr.Wrap(apperr.KindInternal, err, "Webhook processing failed")
	}

	if s.dedup != nil && outcome != outcomeDuplicate {
		if err := s.dedup.Mark(ctx, evt.ID); err != nil {
			logger.WithError(err).Warn("mark webhook event in dedup store")
		}
	}

	logger.WithField("outcome", outcome).Info("webhook handled")
	s.observe(evt.Type, outcome)
	return nil
}

func (s *paymentServiceImpl) handleEvent(ctx context.Context, evt *model.ProviderEvent) (string, error) {
	if s.dedup != nil {
		seen, err := s.dedup.Seen(ctx, evt.ID)
		if err != nil {
			log.WithError(err).Warn("dedup store lookup failed, falling back to database")
		} else if seen {
			return outcomeDuplicate, nil
		}
	}

	processed, err := s.webhookEventRepo.Exists(ctx, evt.ID)
	if err != nil {
		return "", fmt.Errorf("lookup webhook event: %w", err)
	}
	if processed {
		return outcomeDuplicate, nil
	}

	switch evt.Type {
	case model.EventCheckoutSessionCompleted:
		session, err := evt.CheckoutSession()
		if err != nil {
			return "", fmt.Errorf("decode checkout session: %w", err)
		}
		return s.confirm(ctx, session, evt)
	default:
		if err := s.webhookEventRepo.MarkProcessed(ctx, nil, evt.ID, evt.Type); err != nil {
			return "", fmt.Errorf("record webhook event: %w", err)
		}
		return outcomeIgnored, nil
	}
}

func (s *paymentServiceImpl) ConfirmCheckout(ctx context.Context, session *model.CheckoutSession) error {
	_, err := s.confirm(ctx, session, nil)
	return err
}

// confirm applies a paid session. evt is nil when called outside a webhook delivery.
func (s *paymentServiceImpl) confirm(ctx context.Context, session *model.CheckoutSession, evt *model.ProviderEvent) (string, error) {
	orderID := session.Metadata[model.MetadataOrderID]
	logger := log.WithFields(log.Fields{"order_id": orderID, "session_id": session.ID})

	var (
		outcome  string
		oversold []string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if orderID == "" {
			logger.Warn("checkout session carries no order id")
			outcome = outcomeIgnored
		} else {
			outcome, oversold, err = s.fulfill(ctx, tx, orderID, session)
			if err != nil {
				return err
			}
		}

		if evt != nil {
			return s.webhookEventRepo.MarkProcessed(ctx, tx, evt.ID, evt.Type)
		}
		return nil
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent delivery confirmed the same session first
		logger.Info("checkout session already confirmed")
		if evt != nil {
			if err := s.webhookEventRepo.MarkProcessed(ctx, nil, evt.ID, evt.Type); err != nil {
				return "", fmt.Errorf("record webhook event: %w", err)
			}
		}
		return outcomeDuplicate, nil
	}
	if err != nil {
		return "", err
	}

	for _, productID := range oversold {
		logger.WithField("product_id", productID).Warn("stock went negative after confirmation")
		if s.metrics != nil {
			s.metrics.Oversold.WithLabelValues(productID).Inc()
		}
	}
	if outcome == outcomeConfirmed {
		logger.Info("order confirmed")
		if s.metrics != nil {
			s.metrics.OrdersFulfilled.Inc()
		}
	}

	return outcome, nil
}

// fulfill runs inside tx and returns the outcome plus products whose stock went negative.
func (s *paymentServiceImpl) fulfill(ctx context.Context, tx *gorm.DB, orderID string, session *model.CheckoutSession) (string, []string, error) {
	exists, err := s.paymentRepo.ExistsBySessionID(ctx, tx, session.ID)
	if err != nil {
		return "", nil, fmt.Errorf("lookup payment: %w", err)
	}
	if exists {
		return outcomeDuplicate, nil, nil
	}

	order, err := s.orderRepo.FindByID(ctx, tx, orderID)
	if err != nil {
		return "", nil, fmt.Errorf("load order %s: %w", orderID, err)
	}

	moved, err := s.orderRepo.TransitionStatus(ctx, tx, order.ID, model.OrderStatusPending, model.OrderStatusProcessing)
	if err != nil {
		return "", nil, fmt.Errorf("transition order: %w", err)
	}
	if !moved {
		// the winner of a concurrent delivery may have committed meanwhile
		exists, err := s.paymentRepo.ExistsBySessionID(ctx, tx, session.ID)
		if err != nil {
			return "", nil, fmt.Errorf("lookup payment: %w", err)
		}
		if exists {
			return outcomeDuplicate, nil, nil
		}

		log.WithFields(log.Fields{
			"order_id":   order.ID,
			"session_id": session.ID,
			"status":     order.Status,
		}).Error("paid session for order that is not pending, needs manual review")
		return outcomeSkipped, nil, nil
	}

	err = s.paymentRepo.Create(ctx, tx, &model.Payment{
		ID:                uuid.NewString(),
		OrderID:           order.ID,
		UserID:            order.BuyerID,
		Amount:            order.TotalAmount,
		PlatformFee:       order.PlatformFee,
		DistributorAmount: order.Subtotal,
		Status:            model.PaymentStatusCompleted,
		ProviderPaymentID: session.PaymentIntent,
		ProviderSessionID: session.ID,
	})
	if err != nil {
		return "", nil, fmt.Errorf("store payment: %w", err)
	}

	err = s.platformFeeRepo.Create(ctx, tx, &model.PlatformFee{
		ID:         uuid.NewString(),
		OrderID:    order.ID,
		Amount:     order.PlatformFee,
		Percentage: s.feePercentage,
	})
	if err != nil {
		return "", nil, fmt.Errorf("store platform fee: %w", err)
	}

	var oversold []string
	for _, item := range order.Items {
		remaining, err := s.inventoryRepo.Decrement(ctx, tx, item.ProductID, item.Quantity)
		if err != nil {
			return "", nil, fmt.Errorf("decrement stock: %w", err)
		}
		if remaining < 0 {
			oversold = append(oversold, item.ProductID)
		}
	}

	order.Status = model.OrderStatusProcessing
	paid, err := event.NewOrderEvent(event.TopicOrderPaid, order, session.ID)
	if err != nil {
		return "", nil, err
	}
	if err := s.outboxRepo.Insert(ctx, tx, paid); err != nil {
		return "", nil, fmt.Errorf("store order.paid event: %w", err)
	}

	return outcomeConfirmed, oversold, nil
}

func (s *paymentServiceImpl) observe(eventType, outcome string) {
	if s.metrics != nil {
		s.metrics.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
	}
}
