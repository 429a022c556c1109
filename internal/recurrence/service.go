package recurrence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/google/uuid"
)

var (
	// ErrTaskNotFound is returned when the completion target does not exist
	ErrTaskNotFound = errors.New("task not found")

	// ErrMasterNotFound is returned when an instance's master record is
	// missing or is not itself recurring
	ErrMasterNotFound = errors.New("recurring master task not found")

	// ErrOwnerRequired is returned when a recurring task is created
	// without an owner
	ErrOwnerRequired = errors.New("owner is required")
)

const dateLayout = "2006-01-02"

// Service is the series lifecycle manager. It owns every write to the
// recurrence fields; the repositories own durability. The service keeps no
// state of its own between calls.
type Service struct {
	tasks    repository.TaskRepositoryInterface
	history  repository.HistoryRepositoryInterface
	subtasks repository.SubtaskRepositoryInterface
	now      func() time.Time
}

func NewService(
	tasks repository.TaskRepositoryInterface,
	history repository.HistoryRepositoryInterface,
	subtasks repository.SubtaskRepositoryInterface,
) *Service {
	return &Service{
		tasks:    tasks,
		history:  history,
		subtasks: subtasks,
		now:      time.Now,
	}
}

// CreateTaskInput carries the fields of a new recurring task.
type CreateTaskInput struct {
	Title         string
	Description   string
	DueDate       time.Time
	Priority      string
	OwnerID       uuid.UUID
	ProjectID     *uuid.UUID
	FileURL       *string
	Collaborators []model.User
	Pattern       model.RecurrencePattern
	Interval      int
	EndDate       *time.Time
	Count         *int
}

// CompletionResult reports the outcome of processing a task completion.
// NextTask is set when a new instance was spawned; Message is set when the
// series ended or the task was not recurring.
type CompletionResult struct {
	NextTask *model.Task
	Message  string
}

// CreateRecurringTask creates the master of a new series. When a weekday
// preference is given for a weekly or biweekly pattern the due date is
// moved forward to that weekday (same-day allowed). The master is returned
// in its actionable state; no instance or history row exists until the
// master is first completed.
func (s *Service) CreateRecurringTask(ctx context.Context, in CreateTaskInput, weekdayPref *time.Weekday) (*model.Task, error) {
	if in.OwnerID == uuid.Nil {
		return nil, ErrOwnerRequired
	}
	if !in.Pattern.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, string(in.Pattern))
	}

	interval := in.Interval
	if interval < 1 {
		interval = 1
	}

	seriesID := uuid.New()
	due := DateOnly(in.DueDate)
	adjustedDue := due
	if weekdayPref != nil && in.Pattern.UsesWeekday() {
		adjustedDue = NextWeekdayOnOrAfter(due, *weekdayPref)
	}

	pattern := in.Pattern
	master := &model.Task{
		ID:                 uuid.New(),
		Title:              in.Title,
		Description:        in.Description,
		DueDate:            &adjustedDue,
		Status:             model.StatusRecurringTemplate,
		Priority:           in.Priority,
		OwnerID:            in.OwnerID,
		ProjectID:          in.ProjectID,
		FileURL:            in.FileURL,
		Collaborators:      in.Collaborators,
		IsRecurring:        true,
		RecurrencePattern:  &pattern,
		RecurrenceInterval: interval,
		RecurrenceEndDate:  in.EndDate,
		RecurrenceCount:    in.Count,
		RecurrenceSeriesID: &seriesID,
		NextOccurrenceDate: &adjustedDue,
	}

	if err := s.tasks.Create(ctx, master); err != nil {
		return nil, fmt.Errorf("create recurring master: %w", err)
	}

	// Informational only: no instance is materialized until the master is
	// completed for the first time.
	if next, err := NextOccurrence(adjustedDue, pattern, interval, weekdayPref); err == nil {
		log.Printf("📅 Recurring series %s created, occurrence after %s falls on %s",
			seriesID, adjustedDue.Format(dateLayout), next.Format(dateLayout))
	}

	// The fresh master doubles as the first actionable task of the series.
	master.Status = MasterStatus(ActiveNoInstance)
	master.NextOccurrenceDate = &due
	if err := s.tasks.UpdateFields(ctx, master.ID, map[string]interface{}{
		"status":               master.Status,
		"next_occurrence_date": due,
	}); err != nil {
		return nil, fmt.Errorf("activate recurring master: %w", err)
	}

	return master, nil
}

// HandleTaskCompletion advances a series after one of its tasks was
// completed. It computes the next occurrence from the completed task's due
// date, checks the termination policy and either spawns the next instance
// or finalizes the series.
func (s *Service) HandleTaskCompletion(ctx context.Context, taskID uuid.UUID) (*CompletionResult, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if !task.IsRecurring && task.ParentRecurrenceID == nil {
		return &CompletionResult{Message: "Task is not recurring"}, nil
	}

	isMaster := task.IsMaster()
	master := task
	if !isMaster {
		master, err = s.tasks.GetByID(ctx, *task.ParentRecurrenceID)
		if err != nil {
			if errors.Is(err, repository.ErrTaskNotFound) {
				return nil, ErrMasterNotFound
			}
			return nil, err
		}
		if !master.IsRecurring {
			return nil, ErrMasterNotFound
		}
	}

	now := s.now()

	if !isMaster && task.DueDate != nil {
		if err := s.history.MarkCompleted(ctx, master.ID, DateOnly(*task.DueDate), now); err != nil {
			log.Printf("⚠️  Failed to close history for task %s: %v", task.ID, err)
		}
	}

	var pattern model.RecurrencePattern
	if master.RecurrencePattern != nil {
		pattern = *master.RecurrencePattern
	}

	baseDate := DateOnly(now)
	if task.DueDate != nil {
		baseDate = DateOnly(*task.DueDate)
	}

	// The series stays anchored to whatever weekday the most recent
	// occurrence fell on, taken from the completed task's own due date.
	var weekday *time.Weekday
	if pattern.UsesWeekday() {
		wd := baseDate.Weekday()
		weekday = &wd
	}

	nextDate, err := NextOccurrence(baseDate, pattern, master.RecurrenceInterval, weekday)
	if err != nil {
		return nil, err
	}

	// Numbering continues from the recorded history even when the master
	// itself is being completed, so a master re-completed after instances
	// already exist never restarts the sequence.
	maxSoFar, err := s.history.MaxInstanceNumber(ctx, master.ID)
	if err != nil {
		return nil, fmt.Errorf("determine instance number: %w", err)
	}
	instanceNumber := maxSoFar + 1

	if !ShouldContinue(nextDate, master.RecurrenceEndDate, master.RecurrenceCount, instanceNumber) {
		if !isMaster {
			if err := s.tasks.UpdateFields(ctx, master.ID, map[string]interface{}{
				"status":               MasterStatus(SeriesCompleted),
				"next_occurrence_date": nil,
				"last_completed_date":  now,
			}); err != nil {
				return nil, fmt.Errorf("finalize series: %w", err)
			}
		}
		return &CompletionResult{Message: "Recurrence series completed"}, nil
	}

	next, err := s.CreateNextInstance(ctx, master, nextDate, instanceNumber)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.UpdateFields(ctx, master.ID, map[string]interface{}{
		"status":               MasterStatus(ActiveWithInstances),
		"next_occurrence_date": nextDate,
		"last_completed_date":  now,
	}); err != nil {
		return nil, fmt.Errorf("update master after spawning instance: %w", err)
	}

	return &CompletionResult{NextTask: next}, nil
}

// CreateNextInstance materializes one occurrence of a series as a dated,
// actionable task copied from the master. The task insert is the operation
// of record; the history row and subtask copies are best-effort.
func (s *Service) CreateNextInstance(ctx context.Context, master *model.Task, nextDate time.Time, instanceNumber int) (*model.Task, error) {
	due := DateOnly(nextDate)
	instance := &model.Task{
		ID:                 uuid.New(),
		Title:              master.Title,
		Description:        master.Description,
		DueDate:            &due,
		Status:             model.StatusOngoing,
		Priority:           master.Priority,
		OwnerID:            master.OwnerID,
		ProjectID:          master.ProjectID,
		FileURL:            master.FileURL,
		Collaborators:      master.Collaborators,
		ParentRecurrenceID: &master.ID,
		RecurrenceSeriesID: master.RecurrenceSeriesID,
	}

	if err := s.tasks.Create(ctx, instance); err != nil {
		return nil, fmt.Errorf("create recurrence instance: %w", err)
	}

	seriesID := uuid.Nil
	if master.RecurrenceSeriesID != nil {
		seriesID = *master.RecurrenceSeriesID
	}
	record := &model.RecurrenceHistory{
		OriginalTaskID:     master.ID,
		RecurrenceSeriesID: seriesID,
		InstanceNumber:     instanceNumber,
		ScheduledDate:      due,
		Status:             model.HistoryActive,
	}
	if err := s.history.Create(ctx, record); err != nil {
		log.Printf("⚠️  Failed to record history for series %s instance %d: %v", seriesID, instanceNumber, err)
	}

	s.copySubtasks(ctx, master, instance)

	return instance, nil
}

// copySubtasks copies the master's inheriting subtasks onto a new instance
// with their status reset. Failures are logged; the instance stands.
func (s *Service) copySubtasks(ctx context.Context, master, instance *model.Task) {
	subtasks, err := s.subtasks.GetInheriting(ctx, master.ID)
	if err != nil {
		log.Printf("⚠️  Failed to load inheriting subtasks of task %s: %v", master.ID, err)
		return
	}

	for _, src := range subtasks {
		copied := &model.Subtask{
			TaskID:             instance.ID,
			Title:              src.Title,
			Description:        src.Description,
			Status:             model.SubtaskNotStarted,
			Priority:           src.Priority,
			InheritsRecurrence: true,
			RecurrenceSeriesID: master.RecurrenceSeriesID,
		}
		if err := s.subtasks.Create(ctx, copied); err != nil {
			log.Printf("⚠️  Failed to copy subtask %q onto task %s: %v", src.Title, instance.ID, err)
		}
	}
}

// UpdateRecurringTask applies a partial update to a recurring task;
// non-recurring rows are not touched.
func (s *Service) UpdateRecurringTask(ctx context.Context, taskID uuid.UUID, updates map[string]interface{}) error {
	err := s.tasks.UpdateRecurringFields(ctx, taskID, updates)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return ErrTaskNotFound
	}
	return err
}

// DeleteRecurringTask removes a series. With deleteAllInstances set every
// task sharing the series ID goes; otherwise only the master and its
// non-terminal instances are removed, preserving completed instances as
// history.
func (s *Service) DeleteRecurringTask(ctx context.Context, masterTaskID uuid.UUID, deleteAllInstances bool) error {
	master, err := s.tasks.GetByID(ctx, masterTaskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return err
	}

	if master.RecurrenceSeriesID == nil {
		return s.tasks.Delete(ctx, master.ID)
	}

	if deleteAllInstances {
		return s.tasks.DeleteSeries(ctx, *master.RecurrenceSeriesID)
	}
	return s.tasks.DeleteSeriesKeepCompleted(ctx, *master.RecurrenceSeriesID, master.ID)
}

// GetHistory returns a series' completion history ordered by instance
// number.
func (s *Service) GetHistory(ctx context.Context, masterTaskID uuid.UUID) ([]model.RecurrenceHistory, error) {
	return s.history.GetByMasterID(ctx, masterTaskID)
}

// GetInstances returns the materialized instances of a series ordered by
// due date, excluding the template row.
func (s *Service) GetInstances(ctx context.Context, seriesID uuid.UUID) ([]model.Task, error) {
	return s.tasks.GetSeriesInstances(ctx, seriesID)
}

// GetActiveTemplates lists every currently active recurrence master,
// newest first.
func (s *Service) GetActiveTemplates(ctx context.Context) ([]model.Task, error) {
	return s.tasks.GetActiveTemplates(ctx)
}
