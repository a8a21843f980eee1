package main

import (
	"context"
	"errors"
	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/config"
	"marketplace-checkout/internal/dedup"
	"marketplace-checkout/internal/event"
	"marketplace-checkout/internal/logger"
	"marketplace-checkout/internal/metrics"
	"marketplace-checkout/internal/middleware"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"
	"marketplace-checkout/internal/server"
	"marketplace-checkout/internal/service"
	"marketplace-checkout/internal/worker"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const demoDistributorID = "demo-distributor-001"

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		log.WithError(err).Fatal("failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	logger.Setup(cfg.Log, cfg.Environment.Name)

	db := client.InitDBClient(&cfg.Database)
	m := metrics.New()

	var dedupStore dedup.Store
	if rdb := client.InitRedisClient(&cfg.Redis); rdb != nil {
		defer rdb.Close()
		dedupStore = dedup.NewRedisStore(rdb, "webhook", cfg.Redis.DedupTTL)
	} else {
		dedupStore = dedup.NewMemoryStore(cfg.Redis.DedupTTL)
	}

	var provider client.PaymentProvider
	switch cfg.PaymentProvider {
	case "mock":
		log.Warn("using in-memory mock payment provider")
		provider = client.NewMockPaymentClient(cfg.BaseURL, cfg.Stripe.WebhookSecret)
	default:
		provider = client.NewStripeClient(&cfg.Stripe)
	}

	publisher, err := newPublisher(&cfg.Events)
	if err != nil {
		log.WithError(err).Fatal("failed to init event publisher")
	}
	defer publisher.Close()

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	// read once; every service gets the same rate
	fee := cfg.Platform.FeePercentage

	checkoutService := service.NewCheckoutService(db, provider, productRepo, orderRepo, outboxRepo, m, service.CheckoutSettings{
		BaseURL:       cfg.BaseURL,
		Currency:      cfg.Stripe.Currency,
		SessionTTL:    cfg.Stripe.SessionTTL,
		FeePercentage: fee,
	})
	paymentService := service.NewPaymentService(
		db, provider, dedupStore,
		orderRepo,
		paymentRepo,
		repository.NewPlatformFeeRepository(db),
		repository.NewInventoryRepository(db),
		repository.NewWebhookEventRepository(db),
		outboxRepo,
		m, fee,
	)
	catalogService := service.NewCatalogService(productRepo)

	if cfg.SeedDemo {
		seedDemo(catalogService, &cfg.Auth)
	}

	srv := server.NewServer(server.Services{
		Checkout: checkoutService,
		Payment:  paymentService,
		Orders:   service.NewOrderService(db, orderRepo, paymentRepo, outboxRepo),
		Catalog:  catalogService,
		Stats:    service.NewStatsService(repository.NewStatsRepository(db), fee),
	}, server.AuthConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		Issuer:    cfg.Auth.Issuer,
	}, m)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	relay := event.NewRelay(outboxRepo, publisher, m, cfg.Events.RelayInterval, cfg.Events.RelayBatchSize)
	wg.Add(1)
	go func() {
		defer wg.Done()
		relay.Run(ctx)
	}()

	if cfg.Reconciler.Enabled {
		reconciler := worker.NewReconciler(db, orderRepo, outboxRepo, provider, paymentService, m,
			cfg.Reconciler.Interval, cfg.Reconciler.PendingAfter)
		wg.Add(1)
		go func() {
			defer wg.Done()
			reconciler.Run(ctx)
		}()
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("Signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown error")
	}

	cancel()
	wg.Wait()
	log.Info("shutdown complete")
}

func newPublisher(cfg *config.Events) (event.Publisher, error) {
	switch cfg.Broker {
	case "kafka":
		return event.NewKafkaPublisher(cfg.KafkaBrokers), nil
	case "rabbitmq":
		return event.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	default:
		return event.NewLogPublisher(), nil
	}
}

// seedDemo inserts a small catalog and logs tokens for local testing.
func seedDemo(catalog service.CatalogService, auth *config.Auth) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := catalog.Seed(ctx, demoDistributorID); err != nil {
		log.WithError(err).Fatal("failed to seed demo catalog")
	}

	for userID, role := range map[string]model.Role{
		"demo-buyer-001":  model.RoleBuyer,
		demoDistributorID: model.RoleDistributor,
		"demo-admin-001":  model.RoleAdmin,
	} {
		token, err := middleware.IssueToken(auth.JWTSecret, auth.Issuer, userID, role, 24*time.Hour)
		if err != nil {
			log.WithError(err).Fatal("failed to issue demo token")
		}
		log.WithFields(log.Fields{"user_id": userID, "role": role}).Info("demo token: " + token)
	}
}
