package server

import (
	"context"
	"marketplace-checkout/internal/handler"
	"marketplace-checkout/internal/metrics"
	appmw "marketplace-checkout/internal/middleware"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
)

type Services struct {
	Checkout service.CheckoutService
	Payment  service.PaymentService
	Orders   service.OrderService
	Catalog  service.CatalogService
	Stats    service.StatsService
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

type Server struct {
	echo    *echo.Echo
	auth    echo.MiddlewareFunc
	metrics *metrics.Metrics

	checkoutHandler *handler.CheckoutHandler
	webhookHandler  *handler.WebhookHandler
	orderHandler    *handler.OrderHandler
	productHandler  *handler.ProductHandler
	adminHandler    *handler.AdminHandler
}

func NewServer(services Services, auth AuthConfig, m *metrics.Metrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(appmw.Metrics(m))

	s := &Server{
		echo:    e,
		auth:    appmw.Authenticate(auth.JWTSecret, auth.Issuer),
		metrics: m,

		checkoutHandler: handler.NewCheckoutHandler(services.Checkout),
		webhookHandler:  handler.NewWebhookHandler(services.Payment),
		orderHandler:    handler.NewOrderHandler(services.Orders),
		productHandler:  handler.NewProductHandler(services.Catalog),
		adminHandler:    handler.NewAdminHandler(services.Stats),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	buyer := appmw.RequireRole(model.RoleBuyer)
	distributor := appmw.RequireRole(model.RoleDistributor)
	admin := appmw.RequireRole(model.RoleAdmin)

	// -------- checkout --------
	api.POST("/checkout", s.checkoutHandler.CreateCheckout, s.auth, buyer)
	api.POST("/cart", s.productHandler.AddToCart, s.auth, buyer)

	// -------- provider webhooks, authenticated by signature --------
	api.POST("/webhooks/stripe", s.webhookHandler.StripeWebhook)

	// -------- orders --------
	api.GET("/orders/verify", s.orderHandler.VerifyOrder, s.auth, buyer)
	api.GET("/orders", s.orderHandler.ListOrders, s.auth, appmw.RequireRole(model.RoleBuyer, model.RoleDistributor))
	api.PATCH("/orders/:id/status", s.orderHandler.UpdateStatus, s.auth, appmw.RequireRole(model.RoleDistributor, model.RoleAdmin))

	// -------- catalog --------
	api.GET("/products", s.productHandler.ListProducts)
	api.GET("/products/mine", s.productHandler.ListOwnProducts, s.auth, distributor)
	api.GET("/products/:id", s.productHandler.GetProduct)
	api.POST("/products", s.productHandler.CreateProduct, s.auth, distributor)
	api.PATCH("/products/:id", s.productHandler.UpdateProduct, s.auth, distributor)
	api.DELETE("/products/:id", s.productHandler.DeleteProduct, s.auth, distributor)

	// -------- admin --------
	api.GET("/admin/stats", s.adminHandler.Stats, s.auth, admin)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	log.WithField("address", address).Info("starting HTTP server")
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(log.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}

			if v.Status >= http.StatusInternalServerError {
				entry.Error("request")
			} else {
				entry.Info("request")
			}
			return nil
		},
	})
}
