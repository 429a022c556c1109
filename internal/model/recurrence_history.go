package model

import (
	"time"

	"github.com/google/uuid"
)

// Recurrence history statuses
const (
	HistoryActive    = "active"
	HistoryCompleted = "completed"
)

// RecurrenceHistory records one generated instance of a series, for audit
// and progression tracking. InstanceNumber is 1-based and monotonically
// increasing per series.
type RecurrenceHistory struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	OriginalTaskID     uuid.UUID `gorm:"type:uuid;not null;index"`
	RecurrenceSeriesID uuid.UUID `gorm:"type:uuid;not null;index"`
	InstanceNumber     int       `gorm:"not null"`
	ScheduledDate      time.Time `gorm:"not null"`
	Status             string    `gorm:"not null;default:'active'"`
	CompletedDate      *time.Time
	CreatedAt          time.Time `gorm:"autoCreateTime"`
}

func (RecurrenceHistory) TableName() string {
	return "task_recurrence_history"
}
