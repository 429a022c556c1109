package handler

import (
	"errors"
	"net/http"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/recurrence"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RecurrenceHandler struct {
	svc      *recurrence.Service
	taskRepo repository.TaskRepositoryInterface
}

func NewRecurrenceHandler(svc *recurrence.Service, taskRepo repository.TaskRepositoryInterface) *RecurrenceHandler {
	return &RecurrenceHandler{svc: svc, taskRepo: taskRepo}
}

// RecurringTaskRequest is the payload for creating a recurring task
type RecurringTaskRequest struct {
	Title             string  `json:"title" binding:"required"`
	Description       string  `json:"description"`
	DueDate           string  `json:"due_date" binding:"required,datetime=2006-01-02"`
	Priority          string  `json:"priority"`
	ProjectID         *string `json:"project_id" binding:"omitempty,uuid"`
	Pattern           string  `json:"recurrence_pattern" binding:"required,oneof=daily weekly biweekly monthly quarterly yearly"`
	Interval          int     `json:"recurrence_interval" binding:"omitempty,min=1"`
	EndDate           *string `json:"recurrence_end_date" binding:"omitempty,datetime=2006-01-02"`
	Count             *int    `json:"recurrence_count" binding:"omitempty,min=1"`
	WeekdayPreference *int    `json:"weekday_preference" binding:"omitempty,min=0,max=6"`
}

// RecurringTaskUpdateRequest is the partial-update payload for a recurring
// task's configuration.
type RecurringTaskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Interval    *int    `json:"recurrence_interval" binding:"omitempty,min=1"`
	EndDate     *string `json:"recurrence_end_date" binding:"omitempty,datetime=2006-01-02"`
	Count       *int    `json:"recurrence_count" binding:"omitempty,min=1"`
}

// HistoryResponse is one row of a series' generation history
type HistoryResponse struct {
	InstanceNumber int     `json:"instance_number"`
	ScheduledDate  string  `json:"scheduled_date"`
	Status         string  `json:"status"`
	CompletedDate  *string `json:"completed_date,omitempty"`
}

// Create creates a new recurring task series
func (h *RecurrenceHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req RecurringTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	dueDate, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid due date format"})
		return
	}

	var projectID *uuid.UUID
	if req.ProjectID != nil {
		pid, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
			return
		}
		projectID = &pid
	}

	input := recurrence.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Priority:    req.Priority,
		OwnerID:     userID,
		ProjectID:   projectID,
		Pattern:     model.RecurrencePattern(req.Pattern),
		Interval:    req.Interval,
		EndDate:     parseDate(req.EndDate),
		Count:       req.Count,
	}

	var weekday *time.Weekday
	if req.WeekdayPreference != nil {
		wd := time.Weekday(*req.WeekdayPreference)
		weekday = &wd
	}

	task, err := h.svc.CreateRecurringTask(c.Request.Context(), input, weekday)
	if err != nil {
		switch {
		case errors.Is(err, recurrence.ErrInvalidPattern), errors.Is(err, recurrence.ErrOwnerRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create recurring task"})
		}
		return
	}

	c.JSON(http.StatusCreated, toTaskResponse(task))
}

// Update applies a partial update to a recurring task
func (h *RecurrenceHandler) Update(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	var req RecurringTaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.Interval != nil {
		updates["recurrence_interval"] = *req.Interval
	}
	if req.EndDate != nil {
		updates["recurrence_end_date"] = parseDate(req.EndDate)
	}
	if req.Count != nil {
		updates["recurrence_count"] = *req.Count
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := h.svc.UpdateRecurringTask(c.Request.Context(), taskID, updates); err != nil {
		if errors.Is(err, recurrence.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recurring task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update recurring task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recurring task updated"})
}

// Delete removes a recurrence series. The delete_all_instances query flag
// removes completed instances too; by default they are preserved.
func (h *RecurrenceHandler) Delete(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	deleteAll := c.Query("delete_all_instances") == "true"

	if err := h.svc.DeleteRecurringTask(c.Request.Context(), taskID, deleteAll); err != nil {
		if errors.Is(err, recurrence.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recurring task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete recurring task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recurring task deleted"})
}

// GetHistory returns a series' generation history in instance order
func (h *RecurrenceHandler) GetHistory(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	records, err := h.svc.GetHistory(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}

	responses := make([]HistoryResponse, 0, len(records))
	for _, r := range records {
		resp := HistoryResponse{
			InstanceNumber: r.InstanceNumber,
			ScheduledDate:  r.ScheduledDate.Format(dateLayout),
			Status:         r.Status,
		}
		if r.CompletedDate != nil {
			d := r.CompletedDate.Format(time.RFC3339)
			resp.CompletedDate = &d
		}
		responses = append(responses, resp)
	}

	c.JSON(http.StatusOK, responses)
}

// GetInstances returns the materialized instances of a master's series
func (h *RecurrenceHandler) GetInstances(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	master, err := h.taskRepo.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	if master.RecurrenceSeriesID == nil {
		c.JSON(http.StatusOK, []TaskResponse{})
		return
	}

	instances, err := h.svc.GetInstances(c.Request.Context(), *master.RecurrenceSeriesID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve instances"})
		return
	}

	responses := make([]TaskResponse, 0, len(instances))
	for i := range instances {
		responses = append(responses, toTaskResponse(&instances[i]))
	}

	c.JSON(http.StatusOK, responses)
}

// GetActiveTemplates lists every active recurring template
func (h *RecurrenceHandler) GetActiveTemplates(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	templates, err := h.svc.GetActiveTemplates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recurring tasks"})
		return
	}

	responses := make([]TaskResponse, 0, len(templates))
	for i := range templates {
		responses = append(responses, toTaskResponse(&templates[i]))
	}

	c.JSON(http.StatusOK, responses)
}
