package repository

import (
	"context"
	"marketplace-checkout/internal/model"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context, distributorID string) error
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	FindActiveByIDs(ctx context.Context, productIDs []string) ([]*model.Product, error)
	ListActive(ctx context.Context, category string) ([]*model.Product, error)
	ListByDistributor(ctx context.Context, distributorID string) ([]*model.Product, error)
	UpdateOwned(ctx context.Context, distributorID, productID string, changes map[string]interface{}) (*model.Product, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context, distributorID string) error {
	products := []model.Product{
		{ID: "00000000-0000-0000-0000-000000000001", Name: "Espresso Beans 1kg", Description: "Dark roast whole beans", Price: decimal.RequireFromString("24.50"), Stock: 40, Category: "coffee", SKU: "ESP-1KG", IsActive: true, DistributorID: distributorID},
		{ID: "00000000-0000-0000-0000-000000000002", Name: "Pour Over Kettle", Description: "Gooseneck kettle, 1L", Price: decimal.RequireFromString("49.00"), Stock: 12, Category: "equipment", SKU: "KTL-1L", IsActive: true, DistributorID: distributorID},
		{ID: "00000000-0000-0000-0000-000000000003", Name: "Paper Filters x100", Description: "Size 02 filters", Price: decimal.RequireFromString("6.99"), Stock: 200, Category: "equipment", SKU: "FLT-02", IsActive: true, DistributorID: distributorID},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindActiveByIDs(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Where("is_active = ?", true).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) ListActive(ctx context.Context, category string) ([]*model.Product, error) {
	var products []*model.Product
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) ListByDistributor(ctx context.Context, distributorID string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("distributor_id = ?", distributorID).
		Order("created_at DESC").
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

// UpdateOwned applies changes only when the product belongs to distributorID.
// A foreign or missing product yields gorm.ErrRecordNotFound.
func (r *productRepoImpl) UpdateOwned(ctx context.Context, distributorID, productID string, changes map[string]interface{}) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changes["updated_at"] = time.Now()

		result := tx.Model(&model.Product{}).
			Where("id = ? AND distributor_id = ?", productID, distributorID).
			Updates(changes)

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Where("id = ?", productID).First(&product).Error
	})
	if err != nil {
		return nil, err
	}

	return &product, nil
}
