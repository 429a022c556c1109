package handler

import (
	"errors"
	"net/http"

	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SubtaskHandler struct {
	subtaskRepo repository.SubtaskRepositoryInterface
	taskRepo    repository.TaskRepositoryInterface
}

func NewSubtaskHandler(
	subtaskRepo repository.SubtaskRepositoryInterface,
	taskRepo repository.TaskRepositoryInterface,
) *SubtaskHandler {
	return &SubtaskHandler{subtaskRepo: subtaskRepo, taskRepo: taskRepo}
}

// SubtaskRequest is the create/update payload for a subtask
type SubtaskRequest struct {
	Title              string `json:"title" binding:"required"`
	Description        string `json:"description"`
	Status             string `json:"status" binding:"omitempty,oneof=not_started in_progress done"`
	Priority           string `json:"priority"`
	InheritsRecurrence bool   `json:"inherits_recurrence"`
}

// SubtaskResponse is the subtask payload returned to clients
type SubtaskResponse struct {
	ID                 string `json:"id"`
	TaskID             string `json:"task_id"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	Status             string `json:"status"`
	Priority           string `json:"priority,omitempty"`
	InheritsRecurrence bool   `json:"inherits_recurrence"`
}

func toSubtaskResponse(s *model.Subtask) SubtaskResponse {
	return SubtaskResponse{
		ID:                 s.ID.String(),
		TaskID:             s.TaskID.String(),
		Title:              s.Title,
		Description:        s.Description,
		Status:             s.Status,
		Priority:           s.Priority,
		InheritsRecurrence: s.InheritsRecurrence,
	}
}

// loadOwnedTask fetches the parent task and verifies the caller owns it
func (h *SubtaskHandler) loadOwnedTask(c *gin.Context, userID uuid.UUID) *model.Task {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return nil
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return nil
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return nil
	}

	if task.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this task"})
		return nil
	}

	return task
}

// Create adds a subtask under a task owned by the caller. Subtasks flagged
// inherits_recurrence are copied onto every generated instance of the
// parent's series.
func (h *SubtaskHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task := h.loadOwnedTask(c, userID)
	if task == nil {
		return
	}

	var req SubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	status := req.Status
	if status == "" {
		status = model.SubtaskNotStarted
	}

	subtask := &model.Subtask{
		ID:                 uuid.New(),
		TaskID:             task.ID,
		Title:              req.Title,
		Description:        req.Description,
		Status:             status,
		Priority:           req.Priority,
		InheritsRecurrence: req.InheritsRecurrence,
		RecurrenceSeriesID: task.RecurrenceSeriesID,
	}

	if err := h.subtaskRepo.Create(c.Request.Context(), subtask); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create subtask"})
		return
	}

	c.JSON(http.StatusCreated, toSubtaskResponse(subtask))
}

// GetByTaskID lists the subtasks of a task
func (h *SubtaskHandler) GetByTaskID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task := h.loadOwnedTask(c, userID)
	if task == nil {
		return
	}

	subtasks, err := h.subtaskRepo.GetByTaskID(c.Request.Context(), task.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve subtasks"})
		return
	}

	responses := make([]SubtaskResponse, 0, len(subtasks))
	for i := range subtasks {
		responses = append(responses, toSubtaskResponse(&subtasks[i]))
	}

	c.JSON(http.StatusOK, responses)
}

// Update modifies a subtask
func (h *SubtaskHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	subtaskID, err := uuid.Parse(c.Param("subtask_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subtask ID format"})
		return
	}

	subtask, err := h.subtaskRepo.GetByID(c.Request.Context(), subtaskID)
	if err != nil {
		if errors.Is(err, repository.ErrSubtaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subtask not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve subtask"})
		return
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), subtask.TaskID)
	if err != nil || task.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this subtask"})
		return
	}

	var req SubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	subtask.Title = req.Title
	subtask.Description = req.Description
	subtask.Priority = req.Priority
	subtask.InheritsRecurrence = req.InheritsRecurrence
	if req.Status != "" {
		subtask.Status = req.Status
	}

	if err := h.subtaskRepo.Update(c.Request.Context(), subtask); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update subtask"})
		return
	}

	c.JSON(http.StatusOK, toSubtaskResponse(subtask))
}

// Delete removes a subtask
func (h *SubtaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	subtaskID, err := uuid.Parse(c.Param("subtask_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subtask ID format"})
		return
	}

	subtask, err := h.subtaskRepo.GetByID(c.Request.Context(), subtaskID)
	if err != nil {
		if errors.Is(err, repository.ErrSubtaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subtask not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve subtask"})
		return
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), subtask.TaskID)
	if err != nil || task.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this subtask"})
		return
	}

	if err := h.subtaskRepo.Delete(c.Request.Context(), subtaskID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete subtask"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subtask deleted"})
}
