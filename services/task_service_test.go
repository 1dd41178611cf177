package services

import (
	"context"
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"taskdeck/models"
	"taskdeck/storage"
	"taskdeck/testutils"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func taskColumns() []string {
	return []string{"id", "user_id", "title", "description", "status", "priority", "attachment_key"}
}

// jsonWith matches a JSON argument containing the given fragment.
type jsonWith struct {
	fragment string
}

func (j jsonWith) Match(v driver.Value) bool {
	switch data := v.(type) {
	case []byte:
		return strings.Contains(string(data), j.fragment)
	case string:
		return strings.Contains(data, j.fragment)
	}
	return false
}

func TestCreateTask_Success(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	taskService := NewTaskService(storage.NewMemoryAttachmentStore())
	input := models.CreateTaskInput{
		Title:   "Test Task",
		DueDate: time.Now().Add(24 * time.Hour),
	}

	createdTask, err := taskService.CreateTask(db, userID, input)
	assert.NoError(t, err)
	assert.Equal(t, "Test Task", createdTask.Title)
	assert.Equal(t, userID, createdTask.UserID)
	assert.Equal(t, models.StatusPending, createdTask.Status)
	assert.Equal(t, models.PriorityMedium, createdTask.Priority)
	assert.Equal(t, createdTask.CreatedAt, createdTask.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTask_InvalidStatus(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	taskService := NewTaskService(storage.NewMemoryAttachmentStore())
	input := models.CreateTaskInput{
		Title:   "Test Task",
		Status:  models.TaskStatus("bogus"),
		DueDate: time.Now(),
	}

	_, err := taskService.CreateTask(db, uuid.New(), input)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTask_WithAttachment(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	store := storage.NewMemoryAttachmentStore()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	// Blob upload happens after the commit, then the record is patched
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	taskService := NewTaskService(store)
	input := models.CreateTaskInput{
		Title:   "Test Task",
		DueDate: time.Now().Add(24 * time.Hour),
		Attachment: &models.FileUpload{
			Name:        "notes.pdf",
			ContentType: "application/pdf",
			Data:        []byte("pdf-bytes"),
		},
	}

	createdTask, err := taskService.CreateTask(db, uuid.New(), input)
	assert.NoError(t, err)
	assert.True(t, createdTask.HasAttachment())
	assert.Equal(t, "notes.pdf", createdTask.AttachmentName)
	assert.Contains(t, createdTask.AttachmentURL, storage.AttachmentURLPrefix)
	assert.Equal(t, 1, store.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTask_AttachmentUploadFails(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	store := storage.NewMemoryAttachmentStore()
	store.FailPuts = true

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	taskService := NewTaskService(store)
	input := models.CreateTaskInput{
		Title:   "Test Task",
		DueDate: time.Now().Add(24 * time.Hour),
		Attachment: &models.FileUpload{
			Name:        "notes.pdf",
			ContentType: "application/pdf",
			Data:        []byte("pdf-bytes"),
		},
	}

	// The record is committed even though the upload failed; callers get
	// both the task and the storage error.
	createdTask, err := taskService.CreateTask(db, uuid.New(), input)
	assert.ErrorIs(t, err, ErrAttachmentStorage)
	assert.NotEqual(t, uuid.Nil, createdTask.ID)
	assert.False(t, createdTask.HasAttachment())
	assert.Equal(t, 0, store.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTaskById_NotFound(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	missingID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "tasks" WHERE id = \$1`).
		WithArgs(missingID.String(), 1).
		WillReturnRows(sqlmock.NewRows(taskColumns()))

	taskService := NewTaskService(storage.NewMemoryAttachmentStore())
	_, err := taskService.GetTaskById(db, missingID.String())
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTasks_OwnerAndStatusFilter(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	userID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "tasks" WHERE user_id = \$1 AND status = \$2`).
		WithArgs(userID.String(), "pending").
		WillReturnRows(sqlmock.NewRows(taskColumns()).
			AddRow(uuid.New().String(), userID.String(), "Buy milk", "", "pending", "medium", ""))

	taskService := NewTaskService(storage.NewMemoryAttachmentStore())
	tasks, err := taskService.GetTasks(db, map[string]interface{}{
		"user_id": userID.String(),
		"status":  "pending",
	})
	assert.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTask_Success(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	taskID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "tasks" WHERE id = \$1`).
		WithArgs(taskID.String(), 1).
		WillReturnRows(sqlmock.NewRows(taskColumns()).
			AddRow(taskID.String(), userID.String(), "Old Title", "", "pending", "medium", ""))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`INSERT INTO "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	taskService := NewTaskService(storage.NewMemoryAttachmentStore())
	title := "Updated Task"
	_, err := taskService.UpdateTask(db, taskID.String(), models.UpdateTaskInput{Title: &title})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTask_EventCarriesNewState(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	taskID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "tasks" WHERE id = \$1`).
		WithArgs(taskID.String(), 1).
		WillReturnRows(sqlmock.NewRows(taskColumns()).
			AddRow(taskID.String(), userID.String(), "Old Title", "", "pending", "medium", ""))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`INSERT INTO "events"`).
		WithArgs(
			"task.updated",   // event
			1,                // version
			"task",           // entity
			sqlmock.AnyArg(), // timestamp
			jsonWith{`"status":"completed"`}, // data reflects the patch
			"pending",        // status
			false,            // dispatched
			nil,              // dispatched_at
			sqlmock.AnyArg(), // id
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	taskService := NewTaskService(storage.NewMemoryAttachmentStore())
	status := models.StatusCompleted
	title := "New Title"
	updatedTask, err := taskService.UpdateTask(db, taskID.String(), models.UpdateTaskInput{
		Title:  &title,
		Status: &status,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updatedTask.Status)
	assert.Equal(t, "New Title", updatedTask.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTask_NotFound(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	missingID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "tasks" WHERE id = \$1`).
		WithArgs(missingID.String(), 1).
		WillReturnRows(sqlmock.NewRows(taskColumns()))

	taskService := NewTaskService(storage.NewMemoryAttachmentStore())
	title := "Updated Task"
	_, err := taskService.UpdateTask(db, missingID.String(), models.UpdateTaskInput{Title: &title})
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTask_ReplacesAttachment(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	taskID := uuid.New()
	userID := uuid.New()
	store := storage.NewMemoryAttachmentStore()

	oldKey := storage.AttachmentKey(userID, taskID, "old.txt")
	_, err := store.Put(context.Background(), oldKey, []byte("old"), "text/plain")
	assert.NoError(t, err)

	mock.ExpectQuery(`SELECT (.+) FROM "tasks" WHERE id = \$1`).
		WithArgs(taskID.String(), 1).
		WillReturnRows(sqlmock.NewRows(taskColumns()).
			AddRow(taskID.String(), userID.String(), "Task", "", "pending", "medium", oldKey))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`INSERT INTO "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	taskService := NewTaskService(store)
	_, err = taskService.UpdateTask(db, taskID.String(), models.UpdateTaskInput{
		Attachment: &models.FileUpload{
			Name:        "new.txt",
			ContentType: "text/plain",
			Data:        []byte("new"),
		},
	})
	assert.NoError(t, err)

	// Old blob is gone, new one is in place
	assert.Equal(t, 1, store.Len())
	_, _, err = store.Get(context.Background(), oldKey)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTask_Success(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	taskID := uuid.New()
	userID := uuid.New()
	store := storage.NewMemoryAttachmentStore()

	key := storage.AttachmentKey(userID, taskID, "notes.pdf")
	_, err := store.Put(context.Background(), key, []byte("pdf-bytes"), "application/pdf")
	assert.NoError(t, err)

	mock.ExpectQuery(`SELECT (.+) FROM "tasks" WHERE id = \$1`).
		WithArgs(taskID.String(), 1).
		WillReturnRows(sqlmock.NewRows(taskColumns()).
			AddRow(taskID.String(), userID.String(), "Task", "", "pending", "medium", key))

	mock.ExpectBegin()
	// Soft delete shows up as an update on deleted_at
	mock.ExpectExec(`UPDATE "tasks" SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`INSERT INTO "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	taskService := NewTaskService(store)
	err = taskService.DeleteTask(db, taskID.String())
	assert.NoError(t, err)
	assert.Equal(t, 0, store.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}
