package handler

import (
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// VerifyOrder backs the checkout success page.
func (h *OrderHandler) VerifyOrder(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}

	order, err := h.orderService.GetBySessionID(ctx, p.UserID, c.QueryParam("session_id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.OrderResponse{Order: order})
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}

	var orders []*model.Order
	if p.Role == model.RoleDistributor {
		orders, err = h.orderService.ListForDistributor(ctx, p.UserID)
	} else {
		orders, err = h.orderService.ListForBuyer(ctx, p.UserID)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.OrdersResponse{Orders: orders})
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.UpdateOrderStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.UpdateStatus(ctx, p, c.Param("id"), req.Status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.OrderResponse{Order: order})
}
