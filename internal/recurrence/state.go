package recurrence

import "taskflow/internal/model"

// SeriesState is the lifecycle state of a recurrence series as a whole,
// kept separate from the task-board status strings the rows carry.
type SeriesState int

const (
	// ActiveNoInstance: the master exists and is itself the actionable
	// task; no instance has been spawned yet.
	ActiveNoInstance SeriesState = iota
	// ActiveWithInstances: the master is a pure template and the most
	// recently spawned instance is the actionable task.
	ActiveWithInstances
	// SeriesCompleted: terminal; no further instances will be generated.
	SeriesCompleted
)

func (s SeriesState) String() string {
	switch s {
	case ActiveNoInstance:
		return "active_no_instance"
	case ActiveWithInstances:
		return "active_with_instances"
	case SeriesCompleted:
		return "completed"
	}
	return "unknown"
}

// MasterStatus derives the task-board status the master row carries in a
// given series state.
func MasterStatus(s SeriesState) string {
	switch s {
	case ActiveNoInstance:
		return model.StatusOngoing
	case ActiveWithInstances:
		return model.StatusRecurringTemplate
	default:
		return model.StatusCompleted
	}
}
