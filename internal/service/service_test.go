package service

import (
	"testing"
	"time"

	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/dedup"
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/metrics"
	"marketplace-checkout/internal/repository"
	"marketplace-checkout/internal/testutil"

	"gorm.io/gorm"
)

const (
	testWebhookSecret = "whsec_test"
	buyerID           = "buyer-1"
	distributorID     = "dist-1"
)

type fixture struct {
	db       *gorm.DB
	provider *client.MockPaymentClient
	metrics  *metrics.Metrics

	checkout CheckoutService
	payment  PaymentService
	orders   OrderService
	catalog  CatalogService
	stats    StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithFee(t, "5")
}

func newFixtureWithFee(t *testing.T, feePercentage string) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	provider := client.NewMockPaymentClient("http://localhost:8080", testWebhookSecret)
	m := metrics.New()
	fee := testutil.Money(feePercentage)

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	return &fixture{
		db:       db,
		provider: provider,
		metrics:  m,
		checkout: NewCheckoutService(db, provider, productRepo, orderRepo, outboxRepo, m, CheckoutSettings{
			BaseURL:       "http://localhost:8080",
			Currency:      "usd",
			SessionTTL:    time.Hour,
			FeePercentage: fee,
		}),
		payment: NewPaymentService(db, provider, dedup.NewMemoryStore(time.Hour),
			orderRepo,
			paymentRepo,
			repository.NewPlatformFeeRepository(db),
			repository.NewInventoryRepository(db),
			repository.NewWebhookEventRepository(db),
			outboxRepo,
			m, fee,
		),
		orders:  NewOrderService(db, orderRepo, paymentRepo, outboxRepo),
		catalog: NewCatalogService(productRepo),
		stats:   NewStatsService(repository.NewStatsRepository(db), fee),
	}
}

func shipping() dto.ShippingAddress {
	return dto.ShippingAddress{
		Address: "1 Main St",
		City:    "Springfield",
		Zip:     "12345",
		Country: "US",
	}
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
