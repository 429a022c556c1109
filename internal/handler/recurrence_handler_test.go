package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskflow/internal/handler"
	"taskflow/internal/middleware"
	"taskflow/internal/model"
	"taskflow/internal/recurrence"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	if task := args.Get(0); task != nil {
		return task.(*model.Task), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskRepository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, ownerID)
	if tasks := args.Get(0); tasks != nil {
		return tasks.([]model.Task), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockTaskRepository) UpdateRecurringFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) GetSeriesInstances(ctx context.Context, seriesID uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, seriesID)
	if tasks := args.Get(0); tasks != nil {
		return tasks.([]model.Task), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskRepository) GetActiveTemplates(ctx context.Context) ([]model.Task, error) {
	args := m.Called(ctx)
	if tasks := args.Get(0); tasks != nil {
		return tasks.([]model.Task), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskRepository) DeleteSeries(ctx context.Context, seriesID uuid.UUID) error {
	args := m.Called(ctx, seriesID)
	return args.Error(0)
}

func (m *MockTaskRepository) DeleteSeriesKeepCompleted(ctx context.Context, seriesID, masterID uuid.UUID) error {
	args := m.Called(ctx, seriesID, masterID)
	return args.Error(0)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Create(ctx context.Context, record *model.RecurrenceHistory) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockHistoryRepository) MarkCompleted(ctx context.Context, originalTaskID uuid.UUID, scheduledDate, completedAt time.Time) error {
	args := m.Called(ctx, originalTaskID, scheduledDate, completedAt)
	return args.Error(0)
}

func (m *MockHistoryRepository) MaxInstanceNumber(ctx context.Context, originalTaskID uuid.UUID) (int, error) {
	args := m.Called(ctx, originalTaskID)
	return args.Int(0), args.Error(1)
}

func (m *MockHistoryRepository) GetByMasterID(ctx context.Context, originalTaskID uuid.UUID) ([]model.RecurrenceHistory, error) {
	args := m.Called(ctx, originalTaskID)
	if records := args.Get(0); records != nil {
		return records.([]model.RecurrenceHistory), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSubtaskRepository struct {
	mock.Mock
}

func (m *MockSubtaskRepository) Create(ctx context.Context, subtask *model.Subtask) error {
	args := m.Called(ctx, subtask)
	return args.Error(0)
}

func (m *MockSubtaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Subtask, error) {
	args := m.Called(ctx, id)
	if subtask := args.Get(0); subtask != nil {
		return subtask.(*model.Subtask), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubtaskRepository) GetByTaskID(ctx context.Context, taskID uuid.UUID) ([]model.Subtask, error) {
	args := m.Called(ctx, taskID)
	if subtasks := args.Get(0); subtasks != nil {
		return subtasks.([]model.Subtask), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubtaskRepository) GetInheriting(ctx context.Context, taskID uuid.UUID) ([]model.Subtask, error) {
	args := m.Called(ctx, taskID)
	if subtasks := args.Get(0); subtasks != nil {
		return subtasks.([]model.Subtask), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubtaskRepository) Update(ctx context.Context, subtask *model.Subtask) error {
	args := m.Called(ctx, subtask)
	return args.Error(0)
}

func (m *MockSubtaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// authAs injects the authenticated user the way the JWT middleware does
func authAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func setupRecurrenceTest(userID uuid.UUID) (*gin.Engine, *MockTaskRepository, *MockHistoryRepository, *MockSubtaskRepository) {
	gin.SetMode(gin.TestMode)
	r := gin.Default()

	taskRepo := new(MockTaskRepository)
	historyRepo := new(MockHistoryRepository)
	subtaskRepo := new(MockSubtaskRepository)

	svc := recurrence.NewService(taskRepo, historyRepo, subtaskRepo)
	recurrenceHandler := handler.NewRecurrenceHandler(svc, taskRepo)
	taskHandler := handler.NewTaskHandler(taskRepo, nil, svc)

	authorized := r.Group("/", authAs(userID))
	authorized.POST("/tasks/recurring", recurrenceHandler.Create)
	authorized.PUT("/tasks/recurring/:id", recurrenceHandler.Update)
	authorized.DELETE("/tasks/recurring/:id", recurrenceHandler.Delete)
	authorized.GET("/tasks/recurring/:id/history", recurrenceHandler.GetHistory)
	authorized.GET("/tasks/recurring/:id/instances", recurrenceHandler.GetInstances)
	authorized.GET("/tasks/recurring", recurrenceHandler.GetActiveTemplates)
	authorized.POST("/tasks/:id/complete", taskHandler.Complete)

	return r, taskRepo, historyRepo, subtaskRepo
}

func TestCreateRecurringTask_Success(t *testing.T) {
	// Arrange
	userID := uuid.New()
	router, taskRepo, _, _ := setupRecurrenceTest(userID)

	taskRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)
	taskRepo.On("UpdateFields", mock.Anything, mock.AnythingOfType("uuid.UUID"), mock.Anything).Return(nil)

	body := []byte(`{
		"title": "Weekly report",
		"due_date": "2025-10-14",
		"recurrence_pattern": "weekly",
		"weekday_preference": 5
	}`)
	req, _ := http.NewRequest("POST", "/tasks/recurring", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)

	var response handler.TaskResponse
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.True(t, response.IsRecurring)
	assert.Equal(t, model.StatusOngoing, response.Status)
	assert.Equal(t, userID.String(), response.OwnerID)

	// Due date moved to the Friday preference; the next occurrence stays on
	// the requested base date
	assert.Equal(t, "2025-10-17", *response.DueDate)
	assert.Equal(t, "2025-10-14", *response.NextOccurrenceDate)

	taskRepo.AssertExpectations(t)
}

func TestCreateRecurringTask_RejectsUnknownPattern(t *testing.T) {
	// Arrange
	userID := uuid.New()
	router, taskRepo, _, _ := setupRecurrenceTest(userID)

	body := []byte(`{
		"title": "Weekly report",
		"due_date": "2025-10-14",
		"recurrence_pattern": "hourly"
	}`)
	req, _ := http.NewRequest("POST", "/tasks/recurring", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	taskRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateRecurringTask_Unauthenticated(t *testing.T) {
	// Arrange: route registered without the auth middleware
	gin.SetMode(gin.TestMode)
	r := gin.Default()
	taskRepo := new(MockTaskRepository)
	svc := recurrence.NewService(taskRepo, new(MockHistoryRepository), new(MockSubtaskRepository))
	r.POST("/tasks/recurring", handler.NewRecurrenceHandler(svc, taskRepo).Create)

	body := []byte(`{"title":"Weekly report","due_date":"2025-10-14","recurrence_pattern":"weekly"}`)
	req, _ := http.NewRequest("POST", "/tasks/recurring", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	// Act
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCompleteTask_SpawnsNextInstance(t *testing.T) {
	// Arrange: completing a weekly master due Wednesday 2025-10-15
	userID := uuid.New()
	router, taskRepo, historyRepo, subtaskRepo := setupRecurrenceTest(userID)

	seriesID := uuid.New()
	due := time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC)
	pattern := model.RecurrenceWeekly
	master := &model.Task{
		ID:                 uuid.New(),
		Title:              "Weekly report",
		DueDate:            &due,
		Status:             model.StatusOngoing,
		OwnerID:            userID,
		IsRecurring:        true,
		RecurrencePattern:  &pattern,
		RecurrenceInterval: 1,
		RecurrenceSeriesID: &seriesID,
	}

	taskRepo.On("GetByID", mock.Anything, master.ID).Return(master, nil)
	taskRepo.On("UpdateFields", mock.Anything, master.ID, mock.Anything).Return(nil)
	taskRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)
	historyRepo.On("MaxInstanceNumber", mock.Anything, master.ID).Return(0, nil)
	historyRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.RecurrenceHistory")).Return(nil)
	subtaskRepo.On("GetInheriting", mock.Anything, master.ID).Return([]model.Subtask{}, nil)

	req, _ := http.NewRequest("POST", "/tasks/"+master.ID.String()+"/complete", nil)

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)

	var response struct {
		Success  bool                  `json:"success"`
		NextTask *handler.TaskResponse `json:"next_task"`
	}
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.True(t, response.Success)
	assert.NotNil(t, response.NextTask)
	assert.Equal(t, "2025-10-22", *response.NextTask.DueDate)
	assert.Equal(t, master.ID.String(), *response.NextTask.ParentRecurrenceID)

	taskRepo.AssertExpectations(t)
}

func TestCompleteTask_NotRecurring(t *testing.T) {
	// Arrange
	userID := uuid.New()
	router, taskRepo, _, _ := setupRecurrenceTest(userID)

	task := &model.Task{
		ID:      uuid.New(),
		Title:   "One-off",
		Status:  model.StatusOngoing,
		OwnerID: userID,
	}

	taskRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)
	taskRepo.On("UpdateFields", mock.Anything, task.ID, mock.Anything).Return(nil)

	req, _ := http.NewRequest("POST", "/tasks/"+task.ID.String()+"/complete", nil)

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)

	var response map[string]interface{}
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Task is not recurring", response["message"])
	assert.Nil(t, response["next_task"])
}

func TestDeleteRecurringTask_AllInstances(t *testing.T) {
	// Arrange
	userID := uuid.New()
	router, taskRepo, _, _ := setupRecurrenceTest(userID)

	seriesID := uuid.New()
	pattern := model.RecurrenceDaily
	master := &model.Task{
		ID:                 uuid.New(),
		Title:              "Daily checklist",
		OwnerID:            userID,
		IsRecurring:        true,
		RecurrencePattern:  &pattern,
		RecurrenceSeriesID: &seriesID,
	}

	taskRepo.On("GetByID", mock.Anything, master.ID).Return(master, nil)
	taskRepo.On("DeleteSeries", mock.Anything, seriesID).Return(nil)

	req, _ := http.NewRequest("DELETE", "/tasks/recurring/"+master.ID.String()+"?delete_all_instances=true", nil)

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)
	taskRepo.AssertExpectations(t)
	taskRepo.AssertNotCalled(t, "DeleteSeriesKeepCompleted", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetRecurrenceHistory(t *testing.T) {
	// Arrange
	userID := uuid.New()
	router, _, historyRepo, _ := setupRecurrenceTest(userID)

	masterID := uuid.New()
	completed := time.Date(2025, time.October, 23, 9, 30, 0, 0, time.UTC)
	historyRepo.On("GetByMasterID", mock.Anything, masterID).Return([]model.RecurrenceHistory{
		{
			OriginalTaskID: masterID,
			InstanceNumber: 1,
			ScheduledDate:  time.Date(2025, time.October, 22, 0, 0, 0, 0, time.UTC),
			Status:         model.HistoryCompleted,
			CompletedDate:  &completed,
		},
		{
			OriginalTaskID: masterID,
			InstanceNumber: 2,
			ScheduledDate:  time.Date(2025, time.October, 29, 0, 0, 0, 0, time.UTC),
			Status:         model.HistoryActive,
		},
	}, nil)

	req, _ := http.NewRequest("GET", "/tasks/recurring/"+masterID.String()+"/history", nil)

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)

	var response []handler.HistoryResponse
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Len(t, response, 2)
	assert.Equal(t, 1, response[0].InstanceNumber)
	assert.Equal(t, "2025-10-22", response[0].ScheduledDate)
	assert.NotNil(t, response[0].CompletedDate)
	assert.Equal(t, model.HistoryActive, response[1].Status)
	assert.Nil(t, response[1].CompletedDate)
}

func TestGetRecurrenceInstances(t *testing.T) {
	// Arrange
	userID := uuid.New()
	router, taskRepo, _, _ := setupRecurrenceTest(userID)

	seriesID := uuid.New()
	pattern := model.RecurrenceWeekly
	master := &model.Task{
		ID:                 uuid.New(),
		Title:              "Weekly report",
		OwnerID:            userID,
		IsRecurring:        true,
		RecurrencePattern:  &pattern,
		RecurrenceSeriesID: &seriesID,
	}

	instanceDue := time.Date(2025, time.October, 22, 0, 0, 0, 0, time.UTC)
	taskRepo.On("GetByID", mock.Anything, master.ID).Return(master, nil)
	taskRepo.On("GetSeriesInstances", mock.Anything, seriesID).Return([]model.Task{
		{
			ID:                 uuid.New(),
			Title:              master.Title,
			DueDate:            &instanceDue,
			Status:             model.StatusOngoing,
			OwnerID:            userID,
			ParentRecurrenceID: &master.ID,
			RecurrenceSeriesID: &seriesID,
		},
	}, nil)

	req, _ := http.NewRequest("GET", "/tasks/recurring/"+master.ID.String()+"/instances", nil)

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)

	var response []handler.TaskResponse
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Len(t, response, 1)
	assert.Equal(t, "2025-10-22", *response[0].DueDate)
	assert.Equal(t, master.ID.String(), *response[0].ParentRecurrenceID)
}
