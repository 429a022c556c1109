package handler

import (
	"errors"
	"net/http"
	"time"

	"taskflow/internal/middleware"
	"taskflow/internal/model"
	"taskflow/internal/recurrence"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type TaskHandler struct {
	taskRepo   repository.TaskRepositoryInterface
	memberRepo *repository.MemberRepository
	recurrence *recurrence.Service
}

func NewTaskHandler(
	taskRepo repository.TaskRepositoryInterface,
	memberRepo *repository.MemberRepository,
	recurrenceSvc *recurrence.Service,
) *TaskHandler {
	return &TaskHandler{
		taskRepo:   taskRepo,
		memberRepo: memberRepo,
		recurrence: recurrenceSvc,
	}
}

// TaskRequest is the create/update payload for a plain task
type TaskRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status" binding:"omitempty,oneof=ongoing under_review completed unassigned"`
	ProjectID   *string `json:"project_id" binding:"omitempty,uuid"`
}

// TaskResponse is the task payload returned to clients
type TaskResponse struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	DueDate            *string `json:"due_date,omitempty"`
	Status             string  `json:"status"`
	Priority           string  `json:"priority,omitempty"`
	OwnerID            string  `json:"owner_id"`
	ProjectID          *string `json:"project_id,omitempty"`
	IsRecurring        bool    `json:"is_recurring"`
	RecurrencePattern  *string `json:"recurrence_pattern,omitempty"`
	RecurrenceInterval int     `json:"recurrence_interval,omitempty"`
	ParentRecurrenceID *string `json:"parent_recurrence_id,omitempty"`
	RecurrenceSeriesID *string `json:"recurrence_series_id,omitempty"`
	NextOccurrenceDate *string `json:"next_occurrence_date,omitempty"`
}

func toTaskResponse(t *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		OwnerID:     t.OwnerID.String(),
		IsRecurring: t.IsRecurring,
	}
	if t.DueDate != nil {
		d := t.DueDate.Format(dateLayout)
		resp.DueDate = &d
	}
	if t.ProjectID != nil {
		p := t.ProjectID.String()
		resp.ProjectID = &p
	}
	if t.IsRecurring {
		resp.RecurrenceInterval = t.RecurrenceInterval
	}
	if t.RecurrencePattern != nil {
		p := string(*t.RecurrencePattern)
		resp.RecurrencePattern = &p
	}
	if t.ParentRecurrenceID != nil {
		p := t.ParentRecurrenceID.String()
		resp.ParentRecurrenceID = &p
	}
	if t.RecurrenceSeriesID != nil {
		s := t.RecurrenceSeriesID.String()
		resp.RecurrenceSeriesID = &s
	}
	if t.NextOccurrenceDate != nil {
		n := t.NextOccurrenceDate.Format(dateLayout)
		resp.NextOccurrenceDate = &n
	}
	return resp
}

// currentUserID extracts the authenticated user's ID from the gin context
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}
	userID, ok := raw.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return userID, true
}

func parseDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	d, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil
	}
	return &d
}

// Create creates a plain (non-recurring) task
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var projectID *uuid.UUID
	if req.ProjectID != nil {
		pid, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
			return
		}

		hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), pid, userID, model.RoleEditor)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
			return
		}
		if !hasAccess {
			c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to create tasks in this project"})
			return
		}
		projectID = &pid
	}

	status := req.Status
	if status == "" {
		status = model.StatusOngoing
	}

	task := &model.Task{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     parseDate(req.DueDate),
		Status:      status,
		Priority:    req.Priority,
		OwnerID:     userID,
		ProjectID:   projectID,
	}

	if err := h.taskRepo.Create(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, toTaskResponse(task))
}

// GetByID returns a single task
func (h *TaskHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	if !h.canView(c, task, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this task"})
		return
	}

	c.JSON(http.StatusOK, toTaskResponse(task))
}

// GetMine lists the authenticated user's tasks
func (h *TaskHandler) GetMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	tasks, err := h.taskRepo.GetByOwnerID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	responses := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		responses = append(responses, toTaskResponse(&tasks[i]))
	}

	c.JSON(http.StatusOK, responses)
}

// Update applies changes to a task owned by the caller
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	if task.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can update this task"})
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task.Title = req.Title
	task.Description = req.Description
	task.Priority = req.Priority
	if req.DueDate != nil {
		task.DueDate = parseDate(req.DueDate)
	}
	if req.Status != "" {
		task.Status = req.Status
	}

	if err := h.taskRepo.Update(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	c.JSON(http.StatusOK, toTaskResponse(task))
}

// Delete removes a task owned by the caller
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	if task.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can delete this task"})
		return
	}

	if err := h.taskRepo.Delete(c.Request.Context(), taskID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// Complete marks a task completed and advances its recurrence series, if
// any. The recurrence step runs synchronously in the same request.
func (h *TaskHandler) Complete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	if task.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can complete this task"})
		return
	}

	if err := h.taskRepo.UpdateFields(c.Request.Context(), taskID, map[string]interface{}{
		"status": model.StatusCompleted,
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete task"})
		return
	}

	result, err := h.recurrence.HandleTaskCompletion(c.Request.Context(), taskID)
	if err != nil {
		switch {
		case errors.Is(err, recurrence.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		case errors.Is(err, recurrence.ErrMasterNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Recurring master task not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	resp := gin.H{"success": true}
	if result.Message != "" {
		resp["message"] = result.Message
	}
	if result.NextTask != nil {
		resp["next_task"] = toTaskResponse(result.NextTask)
	}

	c.JSON(http.StatusOK, resp)
}

// canView reports whether the user owns the task or has at least viewer
// access to its project.
func (h *TaskHandler) canView(c *gin.Context, task *model.Task, userID uuid.UUID) bool {
	if task.OwnerID == userID {
		return true
	}
	if task.ProjectID == nil {
		return false
	}
	hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), *task.ProjectID, userID, model.RoleViewer)
	if err != nil {
		return false
	}
	return hasAccess
}
