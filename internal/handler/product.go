package handler

import (
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	catalogService service.CatalogService
}

func NewProductHandler(catalogService service.CatalogService) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
	}
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	products, err := h.catalogService.ListProducts(ctx, c.QueryParam("category"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.ProductsResponse{Products: products})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()

	product, err := h.catalogService.GetProduct(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.ProductResponse{Product: product})
}

func (h *ProductHandler) ListOwnProducts(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}

	products, err := h.catalogService.ListOwnProducts(ctx, p.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.ProductsResponse{Products: products})
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.CreateProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.catalogService.CreateProduct(ctx, p.UserID, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.ProductResponse{Product: product})
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.UpdateProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.catalogService.UpdateProduct(ctx, p.UserID, c.Param("id"), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.ProductResponse{Product: product})
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := h.catalogService.DeactivateProduct(ctx, p.UserID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AddToCartRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.catalogService.AddToCart(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.AddToCartResponse{Success: true, Product: product})
}
