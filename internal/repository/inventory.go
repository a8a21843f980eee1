package repository

import (
	"context"
	"fmt"
	"marketplace-checkout/internal/model"
	"time"

	"gorm.io/gorm"
)

type InventoryRepository interface {
	// Decrement subtracts quantity from the product's stock and returns what is left.
	// The result may be negative: the check against stock happens at checkout, not here.
	Decrement(ctx context.Context, tx *gorm.DB, productID string, quantity int) (int, error)
}

type inventoryRepoImpl struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepoImpl{
		db: db,
	}
}

func (r *inventoryRepoImpl) Decrement(ctx context.Context, tx *gorm.DB, productID string, quantity int) (int, error) {
	result := tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, fmt.Errorf("product %s: %w", productID, gorm.ErrRecordNotFound)
	}

	var remaining int
	err := tx.WithContext(ctx).Model(&model.Product{}).
		Select("stock").
		Where("id = ?", productID).
		Scan(&remaining).Error
	if err != nil {
		return 0, err
	}

	return remaining, nil
}
