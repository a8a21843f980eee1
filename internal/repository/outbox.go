package repository

import (
	"context"
	"marketplace-checkout/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OutboxRepository interface {
	Insert(ctx context.Context, tx *gorm.DB, event *model.OutboxEvent) error
	// Claim leases up to limit pending rows to the caller and commits before returning.
	// Rows locked or leased by another relay are skipped.
	Claim(ctx context.Context, limit int, lease time.Duration) ([]*model.OutboxEvent, error)
	MarkSent(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID string, cause error) error
	CountPending(ctx context.Context) (int64, error)
}

type outboxRepoImpl struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepoImpl{
		db: db,
	}
}

func (r *outboxRepoImpl) Insert(ctx context.Context, tx *gorm.DB, event *model.OutboxEvent) error {
	return tx.WithContext(ctx).Create(event).Error
}

func (r *outboxRepoImpl) Claim(ctx context.Context, limit int, lease time.Duration) ([]*model.OutboxEvent, error) {
	now := time.Now()

	var events []*model.OutboxEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", model.OutboxStatusPending).
			Where("claimed_until IS NULL OR claimed_until < ?", now).
			Order("created_at ASC").
			Limit(limit).
			Find(&events).Error
		if err != nil || len(events) == 0 {
			return err
		}

		ids := make([]string, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		return tx.Model(&model.OutboxEvent{}).
			Where("id IN ?", ids).
			Update("claimed_until", now.Add(lease)).Error
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}

func (r *outboxRepoImpl) MarkSent(ctx context.Context, eventID string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.OutboxEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"status":        model.OutboxStatusSent,
			"sent_at":       &now,
			"attempts":      gorm.Expr("attempts + 1"),
			"claimed_until": nil,
		}).Error
}

// MarkFailed releases the lease so the next round retries the row.
func (r *outboxRepoImpl) MarkFailed(ctx context.Context, eventID string, cause error) error {
	return r.db.WithContext(ctx).Model(&model.OutboxEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"attempts":      gorm.Expr("attempts + 1"),
			"last_error":    cause.Error(),
			"claimed_until": nil,
		}).Error
}

func (r *outboxRepoImpl) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.OutboxEvent{}).
		Where("status = ?", model.OutboxStatusPending).
		Count(&count).Error

	return count, err
}
