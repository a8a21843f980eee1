package repository

import (
	"context"
	"marketplace-checkout/internal/model"

	"gorm.io/gorm"
)

type PlatformFeeRepository interface {
	Create(ctx context.Context, tx *gorm.DB, fee *model.PlatformFee) error
	FindByOrderID(ctx context.Context, orderID string) (*model.PlatformFee, error)
}

type platformFeeRepoImpl struct {
	db *gorm.DB
}

func NewPlatformFeeRepository(db *gorm.DB) PlatformFeeRepository {
	return &platformFeeRepoImpl{
		db: db,
	}
}

func (r *platformFeeRepoImpl) Create(ctx context.Context, tx *gorm.DB, fee *model.PlatformFee) error {
	return tx.WithContext(ctx).Create(fee).Error
}

func (r *platformFeeRepoImpl) FindByOrderID(ctx context.Context, orderID string) (*model.PlatformFee, error) {
	var fee model.PlatformFee
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&fee).Error

	if err != nil {
		return nil, err
	}

	return &fee, nil
}
