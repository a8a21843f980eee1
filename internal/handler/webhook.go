package handler

import (
	"io"
	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	signatureHeader = "Stripe-Signature"
	maxWebhookBody  = 1 << 20
)

type WebhookHandler struct {
	paymentService service.PaymentService
}

func NewWebhookHandler(paymentService service.PaymentService) *WebhookHandler {
	return &WebhookHandler{
		paymentService: paymentService,
	}
}

// StripeWebhook needs the raw body; the signature covers the exact bytes sent.
func (h *WebhookHandler) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "Failed to read webhook body")
	}
	if len(body) > maxWebhookBody {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Webhook payload too large")
	}

	err = h.paymentService.HandleWebhook(ctx, c.Request().Header.Get(signatureHeader), body)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.WebhookAck{Received: true})
}
