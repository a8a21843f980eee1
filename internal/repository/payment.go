package repository

import (
	"context"
	"marketplace-checkout/internal/model"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error
	ExistsBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) (bool, error)
	FindBySessionIDWithOrder(ctx context.Context, sessionID string) (*model.Payment, error)
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{
		db: db,
	}
}

func (r *paymentRepoImpl) Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	return tx.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) ExistsBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}

	var count int64
	err := conn.WithContext(ctx).Model(&model.Payment{}).
		Where("provider_session_id = ?", sessionID).
		Count(&count).Error

	return count > 0, err
}

func (r *paymentRepoImpl) FindBySessionIDWithOrder(ctx context.Context, sessionID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Preload("Order").
		Preload("Order.Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Order.Items.Product").
		Where("provider_session_id = ?", sessionID).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}
