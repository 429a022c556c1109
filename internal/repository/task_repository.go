package repository

import (
	"context"
	"errors"

	"taskflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

// TaskRepositoryInterface is the task store contract consumed by the
// recurrence lifecycle and the HTTP handlers.
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	UpdateRecurringFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetSeriesInstances(ctx context.Context, seriesID uuid.UUID) ([]model.Task, error)
	GetActiveTemplates(ctx context.Context) ([]model.Task, error)
	DeleteSeries(ctx context.Context, seriesID uuid.UUID) error
	DeleteSeriesKeepCompleted(ctx context.Context, seriesID, masterID uuid.UUID) error
}

var _ TaskRepositoryInterface = (*TaskRepository)(nil)

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// GetByID retrieves a task by its ID, collaborators included so that
// instance creation can copy them.
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).Preload("Collaborators").First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// GetByOwnerID retrieves all tasks owned by a user
func (r *TaskRepository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	result := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("due_date").Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// Update updates an existing task
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Save(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// UpdateFields applies a partial update to a task
func (r *TaskRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// UpdateRecurringFields applies a partial update restricted to recurring
// tasks; a non-recurring target reports ErrTaskNotFound.
func (r *TaskRepository) UpdateRecurringFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND is_recurring = ?", id, true).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task by its ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// GetSeriesInstances retrieves the materialized instances of a series,
// ordered by due date and excluding the template row.
func (r *TaskRepository) GetSeriesInstances(ctx context.Context, seriesID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	result := r.db.WithContext(ctx).
		Where("recurrence_series_id = ? AND status <> ?", seriesID, model.StatusRecurringTemplate).
		Order("due_date").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// GetActiveTemplates retrieves every currently active recurrence master,
// newest first.
func (r *TaskRepository) GetActiveTemplates(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	result := r.db.WithContext(ctx).
		Where("status = ? AND is_recurring = ?", model.StatusRecurringTemplate, true).
		Order("created_at DESC").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// DeleteSeries removes every task sharing the series ID, master included
func (r *TaskRepository) DeleteSeries(ctx context.Context, seriesID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("recurrence_series_id = ?", seriesID).
		Delete(&model.Task{}).Error
}

// DeleteSeriesKeepCompleted removes the master and every non-terminal
// instance of a series, preserving completed instances as history.
func (r *TaskRepository) DeleteSeriesKeepCompleted(ctx context.Context, seriesID, masterID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("recurrence_series_id = ? AND id <> ? AND status IN ?",
				seriesID, masterID,
				[]string{model.StatusOngoing, model.StatusUnassigned, model.StatusUnderReview}).
			Delete(&model.Task{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Task{}, "id = ?", masterID).Error
	})
}
