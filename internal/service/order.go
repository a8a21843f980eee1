package service

import (
	"context"
	"errors"
	"fmt"
	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/event"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type OrderService interface {
	GetBySessionID(ctx context.Context, buyerID, sessionID string) (*model.Order, error)
	ListForBuyer(ctx context.Context, buyerID string) ([]*model.Order, error)
	ListForDistributor(ctx context.Context, distributorID string) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, caller model.Principal, orderID, status string) (*model.Order, error)
}

type orderServiceImpl struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	outboxRepo  repository.OutboxRepository
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	outboxRepo repository.OutboxRepository,
) OrderService {
	return &orderServiceImpl{
		db:          db,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		outboxRepo:  outboxRepo,
	}
}

// GetBySessionID returns the confirmed order behind a checkout session.
// Another buyer's session is reported as not found.
func (s *orderServiceImpl) GetBySessionID(ctx context.Context, buyerID, sessionID string) (*model.Order, error) {
	if sessionID == "" {
		return nil, apperr.Validation("Session ID required")
	}

	payment, err := s.paymentRepo.FindBySessionIDWithOrder(ctx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find payment by session: %w", err)
	}

	if payment.UserID != buyerID || payment.Order == nil {
		return nil, apperr.NotFound("Order not found")
	}

	return payment.Order, nil
}

func (s *orderServiceImpl) ListForBuyer(ctx context.Context, buyerID string) ([]*model.Order, error) {
	orders, err := s.orderRepo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list buyer orders: %w", err)
	}
	return orders, nil
}

func (s *orderServiceImpl) ListForDistributor(ctx context.Context, distributorID string) ([]*model.Order, error) {
	orders, err := s.orderRepo.ListByDistributor(ctx, distributorID)
	if err != nil {
		return nil, fmt.Errorf("list distributor orders: %w", err)
	}
	return orders, nil
}

func (s *orderServiceImpl) UpdateStatus(ctx context.Context, caller model.Principal, orderID, status string) (*model.Order, error) {
	target, ok := model.ParseOrderStatus(status)
	if !ok {
		return nil, apperr.Validation("Invalid status")
	}
	if target == model.OrderStatusProcessing {
		return nil, apperr.Validation("PROCESSING is set by payment confirmation")
	}

	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	if caller.Role != model.RoleAdmin && !order.ContainsProductOf(caller.UserID) {
		return nil, apperr.NotFound("Order not found")
	}

	if !model.CanTransition(order.Status, target) {
		return nil, apperr.Validation(fmt.Sprintf("Cannot move order from %s to %s", order.Status, target))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moved, err := s.orderRepo.TransitionStatus(ctx, tx, order.ID, order.Status, target)
		if err != nil {
			return err
		}
		if !moved {
			return apperr.Validation("Order status changed concurrently, reload and retry")
		}

		if target != model.OrderStatusCancelled {
			return nil
		}
		order.Status = target
		cancelled, err := event.NewOrderEvent(event.TopicOrderCancelled, order, order.CheckoutSessionID)
		if err != nil {
			return err
		}
		return s.outboxRepo.Insert(ctx, tx, cancelled)
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	log.WithFields(log.Fields{
		"order_id": order.ID,
		"status":   target,
		"by":       caller.UserID,
	}).Info("order status updated")

	return s.orderRepo.FindByID(ctx, nil, order.ID)
}
