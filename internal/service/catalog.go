package service

import (
	"context"
	"errors"
	"fmt"
	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogService interface {
	ListProducts(ctx context.Context, category string) ([]*model.Product, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	ListOwnProducts(ctx context.Context, distributorID string) ([]*model.Product, error)
	CreateProduct(ctx context.Context, distributorID string, req *dto.CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, distributorID, productID string, req *dto.UpdateProductRequest) (*model.Product, error)
	DeactivateProduct(ctx context.Context, distributorID, productID string) error
	// AddToCart checks a cart line against the live catalog; the cart itself is held by the client.
	AddToCart(ctx context.Context, req *dto.AddToCartRequest) (*model.Product, error)
	Seed(ctx context.Context, distributorID string) error
}

type catalogServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogServiceImpl{
		productRepo: productRepo,
	}
}

func (s *catalogServiceImpl) ListProducts(ctx context.Context, category string) ([]*model.Product, error) {
	products, err := s.productRepo.ListActive(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *catalogServiceImpl) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if !product.IsActive {
		return nil, apperr.NotFound("Product not found")
	}
	return product, nil
}

func (s *catalogServiceImpl) ListOwnProducts(ctx context.Context, distributorID string) ([]*model.Product, error) {
	products, err := s.productRepo.ListByDistributor(ctx, distributorID)
	if err != nil {
		return nil, fmt.Errorf("list distributor products: %w", err)
	}
	return products, nil
}

func (s *catalogServiceImpl) CreateProduct(ctx context.Context, distributorID string, req *dto.CreateProductRequest) (*model.Product, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	price := req.Price.Round(2)
	if !price.IsPositive() {
		return nil, apperr.Validation("Price must be greater than 0")
	}

	product := &model.Product{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Description:   req.Description,
		Price:         price,
		Stock:         req.Stock,
		ImageURL:      req.ImageURL,
		Category:      req.Category,
		SKU:           req.SKU,
		IsActive:      true,
		DistributorID: distributorID,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func (s *catalogServiceImpl) UpdateProduct(ctx context.Context, distributorID, productID string, req *dto.UpdateProductRequest) (*model.Product, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.Description != nil {
		changes["description"] = *req.Description
	}
	if req.Price != nil {
		price := req.Price.Round(2)
		if !price.IsPositive() {
			return nil, apperr.Validation("Price must be greater than 0")
		}
		changes["price"] = price
	}
	if req.Stock != nil {
		changes["stock"] = *req.Stock
	}
	if req.ImageURL != nil {
		changes["image_url"] = *req.ImageURL
	}
	if req.Category != nil {
		changes["category"] = *req.Category
	}
	if req.SKU != nil {
		changes["sku"] = *req.SKU
	}
	if req.IsActive != nil {
		changes["is_active"] = *req.IsActive
	}
	if len(changes) == 0 {
		return nil, apperr.Validation("No fields to update")
	}

	return s.updateOwned(ctx, distributorID, productID, changes)
}

// DeactivateProduct hides the product; order history keeps referencing it.
func (s *catalogServiceImpl) DeactivateProduct(ctx context.Context, distributorID, productID string) error {
	_, err := s.updateOwned(ctx, distributorID, productID, map[string]interface{}{"is_active": false})
	return err
}

func (s *catalogServiceImpl) updateOwned(ctx context.Context, distributorID, productID string, changes map[string]interface{}) (*model.Product, error) {
	product, err := s.productRepo.UpdateOwned(ctx, distributorID, productID, changes)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

func (s *catalogServiceImpl) AddToCart(ctx context.Context, req *dto.AddToCartRequest) (*model.Product, error) {
	if req.ProductID == "" {
		return nil, apperr.Validation("productId is required")
	}
	if req.Quantity < 1 {
		return nil, apperr.Validation("Invalid quantity")
	}

	product, err := s.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if req.Quantity > product.Stock {
		return nil, apperr.Conflict(apperr.CodeInsufficientStock, "Insufficient stock")
	}

	return product, nil
}

func (s *catalogServiceImpl) Seed(ctx context.Context, distributorID string) error {
	return s.productRepo.Seed(ctx, distributorID)
}
