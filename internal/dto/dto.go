package dto

import (
	"marketplace-checkout/internal/model"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type ShippingAddress struct {
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state"`
	Zip     string `json:"zip" validate:"required"`
	Country string `json:"country" validate:"required"`
}

type CheckoutRequest struct {
	Items    []CartItem      `json:"items"`
	Shipping ShippingAddress `json:"shipping"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	OrderID   string `json:"orderId"`
	URL       string `json:"url,omitempty"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}

type OrderResponse struct {
	Order *model.Order `json:"order"`
}

type OrdersResponse struct {
	Orders []*model.Order `json:"orders"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

type AddToCartResponse struct {
	Success bool           `json:"success"`
	Product *model.Product `json:"product"`
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"min=0"`
	ImageURL    string          `json:"imageUrl" validate:"omitempty,url"`
	Category    string          `json:"category"`
	SKU         string          `json:"sku"`
}

// UpdateProductRequest applies only the fields that are set.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,min=0"`
	ImageURL    *string          `json:"imageUrl" validate:"omitempty,url"`
	Category    *string          `json:"category"`
	SKU         *string          `json:"sku"`
	IsActive    *bool            `json:"isActive"`
}

type ProductResponse struct {
	Product *model.Product `json:"product"`
}

type ProductsResponse struct {
	Products []*model.Product `json:"products"`
}

type StatsResponse struct {
	Products       int64            `json:"products"`
	ActiveProducts int64            `json:"activeProducts"`
	Orders         int64            `json:"orders"`
	OrdersByStatus map[string]int64 `json:"ordersByStatus"`
	Revenue        decimal.Decimal  `json:"revenue"`
	PlatformFees   decimal.Decimal  `json:"platformFees"`
	FeePercentage  decimal.Decimal  `json:"feePercentage"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
