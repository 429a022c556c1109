package model

import (
	"time"

	"github.com/google/uuid"
)

// Subtask statuses
const (
	SubtaskNotStarted = "not_started"
	SubtaskInProgress = "in_progress"
	SubtaskDone       = "done"
)

type Subtask struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	TaskID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"not null"`
	Description string
	Status      string `gorm:"not null;default:'not_started'"`
	Priority    string

	// InheritsRecurrence marks a subtask for copying onto every generated
	// instance of the parent task's series.
	InheritsRecurrence bool       `gorm:"not null;default:false"`
	RecurrenceSeriesID *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Task Task `gorm:"foreignKey:TaskID"`
}

func (Subtask) TableName() string {
	return "sub_task"
}
