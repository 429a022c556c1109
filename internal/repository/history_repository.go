package repository

import (
	"context"
	"errors"
	"time"

	"taskflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HistoryRepository struct {
	db *gorm.DB
}

// HistoryRepositoryInterface is the recurrence-history store contract.
type HistoryRepositoryInterface interface {
	Create(ctx context.Context, record *model.RecurrenceHistory) error
	MarkCompleted(ctx context.Context, originalTaskID uuid.UUID, scheduledDate, completedAt time.Time) error
	MaxInstanceNumber(ctx context.Context, originalTaskID uuid.UUID) (int, error)
	GetByMasterID(ctx context.Context, originalTaskID uuid.UUID) ([]model.RecurrenceHistory, error)
}

var _ HistoryRepositoryInterface = (*HistoryRepository)(nil)

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a history row for a freshly generated instance
func (r *HistoryRepository) Create(ctx context.Context, record *model.RecurrenceHistory) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// MarkCompleted closes the history row matching the master and scheduled
// date of the completed instance.
func (r *HistoryRepository) MarkCompleted(ctx context.Context, originalTaskID uuid.UUID, scheduledDate, completedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&model.RecurrenceHistory{}).
		Where("original_task_id = ? AND scheduled_date = ?", originalTaskID, scheduledDate).
		Updates(map[string]interface{}{
			"status":         model.HistoryCompleted,
			"completed_date": completedAt,
		}).Error
}

// MaxInstanceNumber returns the highest instance number recorded for a
// master, or 0 when the series has no history yet.
func (r *HistoryRepository) MaxInstanceNumber(ctx context.Context, originalTaskID uuid.UUID) (int, error) {
	var record model.RecurrenceHistory
	err := r.db.WithContext(ctx).
		Where("original_task_id = ?", originalTaskID).
		Order("instance_number DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return record.InstanceNumber, nil
}

// GetByMasterID returns the full history of a series in generation order
func (r *HistoryRepository) GetByMasterID(ctx context.Context, originalTaskID uuid.UUID) ([]model.RecurrenceHistory, error) {
	var records []model.RecurrenceHistory
	err := r.db.WithContext(ctx).
		Where("original_task_id = ?", originalTaskID).
		Order("instance_number").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
