package service

import (
	"context"
	"fmt"
	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/event"
	"marketplace-checkout/internal/metrics"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const platformFeeItemName = "Platform Fee"

type CheckoutService interface {
	CreateCheckout(ctx context.Context, buyerID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type CheckoutSettings struct {
	BaseURL       string
	Currency      string
	SessionTTL    time.Duration
	FeePercentage decimal.Decimal
}

type checkoutServiceImpl struct {
	db          *gorm.DB
	provider    client.PaymentProvider
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	outboxRepo  repository.OutboxRepository
	metrics     *metrics.Metrics
	settings    CheckoutSettings
}

func NewCheckoutService(
	db *gorm.DB,
	provider client.PaymentProvider,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	outboxRepo repository.OutboxRepository,
	m *metrics.Metrics,
	settings CheckoutSettings,
) CheckoutService {
	return &checkoutServiceImpl{
		db:          db,
		provider:    provider,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		outboxRepo:  outboxRepo,
		metrics:     m,
		settings:    settings,
	}
}

func (s *checkoutServiceImpl) CreateCheckout(ctx context.Context, buyerID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	resp, err := s.createCheckout(ctx, buyerID, req)

	result := "ok"
	switch {
	case err == nil:
	case apperr.Is(err, apperr.KindExternalProvider):
		result = "provider_error"
	case apperr.Is(err, apperr.KindInternal):
		result = "error"
	default:
		result = "rejected"
	}
	if s.metrics != nil {
		s.metrics.Checkouts.WithLabelValues(result).Inc()
	}

	return resp, err
}

func (s *checkoutServiceImpl) createCheckout(ctx context.Context, buyerID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if len(req.Items) == 0 {
		return nil, apperr.Validation("Cart is empty").WithCode(apperr.CodeEmptyCart)
	}

	lines, err := mergeCart(req.Items)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(&req.Shipping); err != nil {
		return nil, err
	}

	productIDs := make([]string, len(lines))
	for i, line := range lines {
		productIDs[i] = line.ProductID
	}

	products, err := s.productRepo.FindActiveByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}
	if len(products) != len(productIDs) {
		return nil, apperr.Conflict(apperr.CodeProductUnavailable, "Some products are no longer available")
	}

	byID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// point-in-time check only; stock is not reserved
	for _, line := range lines {
		product := byID[line.ProductID]
		if line.Quantity > product.Stock {
			return nil, apperr.Conflict(apperr.CodeInsufficientStock, fmt.Sprintf("Insufficient stock for %s", product.Name))
		}
	}

	order := s.buildOrder(buyerID, &req.Shipping, lines, byID)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.CreateWithItems(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}

		created, err := event.NewOrderEvent(event.TopicOrderCreated, order, "")
		if err != nil {
			return err
		}
		return s.outboxRepo.Insert(ctx, tx, created)
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	logger := log.WithFields(log.Fields{"order_id": order.ID, "buyer_id": buyerID})

	session, err := s.provider.CreateCheckoutSession(ctx, s.sessionParams(order, byID))
	if err != nil {
		// order stays PENDING without a session until the reconciler cancels it
		logger.WithError(err).Error("create checkout session")
		return nil, apperr.Wrap(apperr.KindExternalProvider, err, "Failed to create checkout session")
	}

	if err := s.orderRepo.SetCheckoutSession(ctx, order.ID, session.ID); err != nil {
		return nil, fmt.Errorf("record checkout session: %w", err)
	}

	logger.WithFields(log.Fields{
		"session_id": session.ID,
		"total":      order.TotalAmount.StringFixed(2),
	}).Info("checkout session created")

	return &dto.CheckoutResponse{
		SessionID: session.ID,
		OrderID:   order.ID,
		URL:       session.URL,
	}, nil
}

// mergeCart sums quantities of repeated products, keeping first-seen order.
func mergeCart(items []dto.CartItem) ([]dto.CartItem, error) {
	index := make(map[string]int, len(items))
	lines := make([]dto.CartItem, 0, len(items))

	for _, item := range items {
		if item.ProductID == "" {
			return nil, apperr.Validation("productId is required")
		}
		if item.Quantity < 1 {
			return nil, apperr.Validation("Invalid quantity")
		}

		if i, ok := index[item.ProductID]; ok {
			if lines[i].Quantity > math.MaxInt-item.Quantity {
				return nil, apperr.Validation("Invalid quantity")
			}
			lines[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(lines)
		lines = append(lines, item)
	}

	return lines, nil
}

func (s *checkoutServiceImpl) buildOrder(buyerID string, shipping *dto.ShippingAddress, lines []dto.CartItem, products map[string]*model.Product) *model.Order {
	orderID := uuid.NewString()
	subtotal := decimal.Zero
	items := make([]model.OrderItem, len(lines))

	for i, line := range lines {
		product := products[line.ProductID]
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		items[i] = model.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			Position:  i,
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			Subtotal:  lineTotal,
		}
	}

	fee := PlatformFee(subtotal, s.settings.FeePercentage)

	return &model.Order{
		ID:              orderID,
		BuyerID:         buyerID,
		Status:          model.OrderStatusPending,
		Subtotal:        subtotal,
		PlatformFee:     fee,
		TotalAmount:     subtotal.Add(fee),
		ShippingAddress: shipping.Address,
		ShippingCity:    shipping.City,
		ShippingState:   shipping.State,
		ShippingZip:     shipping.Zip,
		ShippingCountry: shipping.Country,
		Items:           items,
	}
}

// PlatformFee is subtotal * percentage / 100 rounded to cents, half away from zero.
func PlatformFee(subtotal, percentage decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(percentage).Div(decimal.NewFromInt(100)).Round(2)
}

func (s *checkoutServiceImpl) sessionParams(order *model.Order, products map[string]*model.Product) *client.CheckoutSessionParams {
	lineItems := make([]client.LineItem, 0, len(order.Items)+1)
	for _, item := range order.Items {
		lineItems = append(lineItems, client.LineItem{
			Name:       products[item.ProductID].Name,
			UnitAmount: model.ToMinorUnits(item.UnitPrice),
			Quantity:   int64(item.Quantity),
		})
	}
	if order.PlatformFee.IsPositive() {
		lineItems = append(lineItems, client.LineItem{
			Name:       platformFeeItemName,
			UnitAmount: model.ToMinorUnits(order.PlatformFee),
			Quantity:   1,
		})
	}

	return &client.CheckoutSessionParams{
		LineItems:         lineItems,
		Currency:          s.settings.Currency,
		SuccessURL:        s.settings.BaseURL + "/orders/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         s.settings.BaseURL + "/checkout?canceled=true",
		ClientReferenceID: order.ID,
		Metadata: map[string]string{
			model.MetadataOrderID: order.ID,
			model.MetadataUserID:  order.BuyerID,
		},
		ExpiresAt:      time.Now().Add(s.settings.SessionTTL),
		IdempotencyKey: "checkout-" + order.ID,
	}
}
