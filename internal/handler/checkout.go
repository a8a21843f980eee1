package handler

import (
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) CreateCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.CheckoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.checkoutService.CreateCheckout(ctx, p.UserID, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
