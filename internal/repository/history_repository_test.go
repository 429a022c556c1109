package repository_test

import (
	"context"
	"testing"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestHistoryRepository_Create(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	historyRepo := repository.NewHistoryRepository(gormDB)

	record := &model.RecurrenceHistory{
		OriginalTaskID:     uuid.New(),
		RecurrenceSeriesID: uuid.New(),
		InstanceNumber:     1,
		ScheduledDate:      time.Date(2025, time.October, 22, 0, 0, 0, 0, time.UTC),
		Status:             model.HistoryActive,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "task_recurrence_history"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	// Act
	err := historyRepo.Create(context.Background(), record)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_MarkCompleted(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	historyRepo := repository.NewHistoryRepository(gormDB)

	masterID := uuid.New()
	scheduled := time.Date(2025, time.October, 22, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "task_recurrence_history" SET .* WHERE original_task_id = .* AND scheduled_date = .*`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := historyRepo.MarkCompleted(context.Background(), masterID, scheduled, time.Now())

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_MaxInstanceNumber_Found(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	historyRepo := repository.NewHistoryRepository(gormDB)

	masterID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "task_recurrence_history" WHERE original_task_id = .* ORDER BY instance_number DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "original_task_id", "instance_number", "status"}).
			AddRow(uuid.New().String(), masterID.String(), 4, model.HistoryCompleted))

	// Act
	max, err := historyRepo.MaxInstanceNumber(context.Background(), masterID)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 4, max)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_MaxInstanceNumber_NoHistory(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	historyRepo := repository.NewHistoryRepository(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "task_recurrence_history" WHERE original_task_id = .*`).
		WillReturnError(gorm.ErrRecordNotFound)

	// Act
	max, err := historyRepo.MaxInstanceNumber(context.Background(), uuid.New())

	// Assert: a series with no generated instances yet starts from zero
	assert.NoError(t, err)
	assert.Equal(t, 0, max)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_GetByMasterID(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	historyRepo := repository.NewHistoryRepository(gormDB)

	masterID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "task_recurrence_history" WHERE original_task_id = .* ORDER BY instance_number`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "original_task_id", "instance_number", "status"}).
			AddRow(uuid.New().String(), masterID.String(), 1, model.HistoryCompleted).
			AddRow(uuid.New().String(), masterID.String(), 2, model.HistoryActive))

	// Act
	records, err := historyRepo.GetByMasterID(context.Background(), masterID)

	// Assert
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, records[0].InstanceNumber)
	assert.Equal(t, 2, records[1].InstanceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}
