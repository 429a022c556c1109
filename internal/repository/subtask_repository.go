package repository

import (
	"context"
	"errors"

	"taskflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubtaskRepository struct {
	db *gorm.DB
}

// SubtaskRepositoryInterface is the subtask store contract.
type SubtaskRepositoryInterface interface {
	Create(ctx context.Context, subtask *model.Subtask) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Subtask, error)
	GetByTaskID(ctx context.Context, taskID uuid.UUID) ([]model.Subtask, error)
	GetInheriting(ctx context.Context, taskID uuid.UUID) ([]model.Subtask, error)
	Update(ctx context.Context, subtask *model.Subtask) error
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ SubtaskRepositoryInterface = (*SubtaskRepository)(nil)

func NewSubtaskRepository(db *gorm.DB) *SubtaskRepository {
	return &SubtaskRepository{db: db}
}

func (r *SubtaskRepository) Create(ctx context.Context, subtask *model.Subtask) error {
	return r.db.WithContext(ctx).Create(subtask).Error
}

func (r *SubtaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Subtask, error) {
	var subtask model.Subtask
	result := r.db.WithContext(ctx).First(&subtask, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSubtaskNotFound
		}
		return nil, result.Error
	}
	return &subtask, nil
}

func (r *SubtaskRepository) GetByTaskID(ctx context.Context, taskID uuid.UUID) ([]model.Subtask, error) {
	var subtasks []model.Subtask
	result := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at").Find(&subtasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return subtasks, nil
}

// GetInheriting retrieves the subtasks of a task flagged to be copied onto
// generated recurrence instances.
func (r *SubtaskRepository) GetInheriting(ctx context.Context, taskID uuid.UUID) ([]model.Subtask, error) {
	var subtasks []model.Subtask
	result := r.db.WithContext(ctx).
		Where("task_id = ? AND inherits_recurrence = ?", taskID, true).
		Find(&subtasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return subtasks, nil
}

func (r *SubtaskRepository) Update(ctx context.Context, subtask *model.Subtask) error {
	result := r.db.WithContext(ctx).Save(subtask)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubtaskNotFound
	}
	return nil
}

func (r *SubtaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Subtask{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubtaskNotFound
	}
	return nil
}
