package service

import (
	"context"
	"fmt"
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/repository"

	"github.com/shopspring/decimal"
)

type StatsService interface {
	Overview(ctx context.Context) (*dto.StatsResponse, error)
}

type statsServiceImpl struct {
	statsRepo     repository.StatsRepository
	feePercentage decimal.Decimal
}

func NewStatsService(statsRepo repository.StatsRepository, feePercentage decimal.Decimal) StatsService {
	return &statsServiceImpl{
		statsRepo:     statsRepo,
		feePercentage: feePercentage,
	}
}

func (s *statsServiceImpl) Overview(ctx context.Context) (*dto.StatsResponse, error) {
	stats, err := s.statsRepo.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect stats: %w", err)
	}

	byStatus := make(map[string]int64, len(stats.OrdersByStatus))
	for status, n := range stats.OrdersByStatus {
		byStatus[string(status)] = n
	}

	return &dto.StatsResponse{
		Products:       stats.Products,
		ActiveProducts: stats.ActiveProducts,
		Orders:         stats.Orders,
		OrdersByStatus: byStatus,
		Revenue:        stats.Revenue,
		PlatformFees:   stats.PlatformFees,
		FeePercentage:  s.feePercentage,
	}, nil
}
