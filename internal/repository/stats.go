package repository

import (
	"context"
	"marketplace-checkout/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Stats struct {
	Products       int64
	ActiveProducts int64
	Orders         int64
	OrdersByStatus map[model.OrderStatus]int64
	Revenue        decimal.Decimal // sum of completed payments
	PlatformFees   decimal.Decimal
}

type sumRow struct {
	Total decimal.NullDecimal
}

type StatsRepository interface {
	Collect(ctx context.Context) (*Stats, error)
}

type statsRepoImpl struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepoImpl{
		db: db,
	}
}

func (r *statsRepoImpl) Collect(ctx context.Context) (*Stats, error) {
	db := r.db.WithContext(ctx)
	stats := &Stats{OrdersByStatus: make(map[model.OrderStatus]int64)}

	if err := db.Model(&model.Product{}).Count(&stats.Products).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Where("is_active = ?", true).Count(&stats.ActiveProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Order{}).Count(&stats.Orders).Error; err != nil {
		return nil, err
	}

	var byStatus []struct {
		Status model.OrderStatus
		Count  int64
	}
	err := db.Model(&model.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.OrdersByStatus[row.Status] = row.Count
	}

	var revenue sumRow
	err = db.Model(&model.Payment{}).
		Select("SUM(amount) AS total").
		Where("status = ?", model.PaymentStatusCompleted).
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}

	var fees sumRow
	if err := db.Model(&model.PlatformFee{}).Select("SUM(amount) AS total").Scan(&fees).Error; err != nil {
		return nil, err
	}

	// SUM over no rows is NULL
	stats.Revenue = revenue.Total.Decimal
	stats.PlatformFees = fees.Total.Decimal

	return stats, nil
}
