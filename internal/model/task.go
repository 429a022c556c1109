package model

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses as stored in the tasks table. A recurrence master toggles
// between StatusOngoing (actionable) and StatusRecurringTemplate (pure
// template) over its lifetime.
const (
	StatusOngoing           = "ongoing"
	StatusUnderReview       = "under_review"
	StatusCompleted         = "completed"
	StatusUnassigned        = "unassigned"
	StatusRecurringTemplate = "recurring_template"
)

type RecurrencePattern string

const (
	RecurrenceDaily     RecurrencePattern = "daily"
	RecurrenceWeekly    RecurrencePattern = "weekly"
	RecurrenceBiweekly  RecurrencePattern = "biweekly"
	RecurrenceMonthly   RecurrencePattern = "monthly"
	RecurrenceQuarterly RecurrencePattern = "quarterly"
	RecurrenceYearly    RecurrencePattern = "yearly"
)

// Valid reports whether p is one of the six supported patterns.
func (p RecurrencePattern) Valid() bool {
	switch p {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceBiweekly,
		RecurrenceMonthly, RecurrenceQuarterly, RecurrenceYearly:
		return true
	}
	return false
}

// UsesWeekday reports whether the pattern anchors to a day of the week.
func (p RecurrencePattern) UsesWeekday() bool {
	return p == RecurrenceWeekly || p == RecurrenceBiweekly
}

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title       string     `gorm:"not null"`
	Description string
	DueDate     *time.Time
	Status      string     `gorm:"not null;default:'ongoing'"`
	Priority    string
	OwnerID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProjectID   *uuid.UUID `gorm:"type:uuid;index"`
	FileURL     *string

	// Recurrence fields; meaningful only when the task participates in a
	// series. The master of a series has IsRecurring set and no
	// ParentRecurrenceID; every instance points back at the master.
	IsRecurring        bool `gorm:"not null;default:false"`
	RecurrencePattern  *RecurrencePattern
	RecurrenceInterval int `gorm:"not null;default:1"`
	RecurrenceEndDate  *time.Time
	RecurrenceCount    *int
	ParentRecurrenceID *uuid.UUID `gorm:"type:uuid;index"`
	RecurrenceSeriesID *uuid.UUID `gorm:"type:uuid;index"`
	NextOccurrenceDate *time.Time
	LastCompletedDate  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Owner         User    `gorm:"foreignKey:OwnerID"`
	Project       Project `gorm:"foreignKey:ProjectID"`
	Collaborators []User  `gorm:"many2many:task_collaborators"`
}

// IsMaster reports whether the task is the master/template of its series.
func (t *Task) IsMaster() bool {
	return t.IsRecurring && t.ParentRecurrenceID == nil
}
