package services

import (
	"context"
	"errors"
	"log"
	"time"

	"taskdeck/broker"
	"taskdeck/database"
	"taskdeck/models"
	"taskdeck/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskServiceInterface interface {
	CreateTask(db *database.Database, ownerID uuid.UUID, input models.CreateTaskInput) (models.Task, error)
	GetTasks(db *database.Database, params map[string]interface{}) ([]models.Task, error)
	GetTaskById(db *database.Database, id string) (models.Task, error)
	UpdateTask(db *database.Database, id string, input models.UpdateTaskInput) (models.Task, error)
	DeleteTask(db *database.Database, id string) error
}

type TaskService struct {
	attachments storage.AttachmentStore
}

func NewTaskService(attachments storage.AttachmentStore) *TaskService {
	return &TaskService{attachments: attachments}
}

// CreateTask persists a new task for the owner. When the input carries a
// file, the record is committed first and the blob uploaded after; a failed
// upload leaves the record in place without an attachment and returns
// ErrAttachmentStorage alongside it.
func (s *TaskService) CreateTask(db *database.Database, ownerID uuid.UUID, input models.CreateTaskInput) (models.Task, error) {
	status := input.Status
	if status == "" {
		status = models.StatusPending
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !status.Valid() || !priority.Valid() {
		return models.Task{}, ErrInvalidInput
	}

	now := time.Now().UTC()
	task := models.Task{
		ID:          uuid.New(),
		UserID:      ownerID,
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx := db.DB.Begin()
	if tx.Error != nil {
		return models.Task{}, tx.Error
	}

	if err := tx.Create(&task).Error; err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	event, err := models.NewEvent(
		string(broker.TaskCreated),
		"task",
		map[string]interface{}{
			"task_id": task.ID.String(),
			"user_id": task.UserID.String(),
			"title":   task.Title,
			"status":  string(task.Status),
		},
	)
	if err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	if input.Attachment != nil {
		attached, err := s.attachTo(db, task, input.Attachment)
		if err != nil {
			// The record exists without an attachment; callers see the
			// partial state through the returned task.
			log.Printf("Attachment upload failed for task %s: %v", task.ID, err)
			return task, ErrAttachmentStorage
		}
		task = attached
	}

	return task, nil
}

// GetTasks lists tasks matching the params, newest created first. Every
// caller supplies user_id; queries are always owner scoped.
func (s *TaskService) GetTasks(db *database.Database, params map[string]interface{}) ([]models.Task, error) {
	var tasks []models.Task
	query := db.DB

	if userID, ok := params["user_id"].(string); ok && userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	if status, ok := params["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	if priority, ok := params["priority"].(string); ok && priority != "" {
		query = query.Where("priority = ?", priority)
	}

	result := query.Order("created_at DESC").Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

func (s *TaskService) GetTaskById(db *database.Database, id string) (models.Task, error) {
	var task models.Task
	if err := db.DB.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

// UpdateTask applies a partial patch. A new file replaces the current
// attachment: the old blob is deleted best-effort, the new one uploaded
// before the record changes. UpdatedAt is refreshed on every call, patch
// fields or not.
func (s *TaskService) UpdateTask(db *database.Database, id string, input models.UpdateTaskInput) (models.Task, error) {
	var task models.Task
	if err := db.DB.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}

	// The struct is patched alongside the column map so the event payload
	// and the returned task both carry the post-update state.
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"updated_at": now,
	}
	task.UpdatedAt = now

	if input.Title != nil {
		updates["title"] = *input.Title
		task.Title = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return models.Task{}, ErrInvalidInput
		}
		updates["status"] = string(*input.Status)
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return models.Task{}, ErrInvalidInput
		}
		updates["priority"] = string(*input.Priority)
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		updates["due_date"] = *input.DueDate
		task.DueDate = *input.DueDate
	}

	if input.Attachment != nil {
		if task.AttachmentKey != "" {
			// Best-effort cleanup; a stale blob is preferable to a failed update.
			if err := s.attachments.Delete(context.Background(), task.AttachmentKey); err != nil {
				log.Printf("Failed to delete old attachment %s: %v", task.AttachmentKey, err)
			}
		}

		key := storage.AttachmentKey(task.UserID, task.ID, input.Attachment.Name)
		url, err := s.attachments.Put(context.Background(), key, input.Attachment.Data, input.Attachment.ContentType)
		if err != nil {
			log.Printf("Attachment upload failed for task %s: %v", task.ID, err)
			return models.Task{}, ErrAttachmentStorage
		}

		updates["attachment_url"] = url
		updates["attachment_name"] = input.Attachment.Name
		updates["attachment_key"] = key
		task.AttachmentURL = url
		task.AttachmentName = input.Attachment.Name
		task.AttachmentKey = key
	}

	tx := db.DB.Begin()
	if tx.Error != nil {
		return models.Task{}, tx.Error
	}

	if err := tx.Model(&task).Updates(updates).Error; err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	event, err := models.NewEvent(
		string(broker.TaskUpdated),
		"task",
		map[string]interface{}{
			"task_id": task.ID.String(),
			"user_id": task.UserID.String(),
			"title":   task.Title,
			"status":  string(task.Status),
		},
	)
	if err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return models.Task{}, err
	}

	return task, nil
}

// DeleteTask removes the record and its attachment blob. Blob deletion is
// best-effort; the record delete is the operation that must not fail.
func (s *TaskService) DeleteTask(db *database.Database, id string) error {
	var task models.Task
	if err := db.DB.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return err
	}

	if task.AttachmentKey != "" {
		if err := s.attachments.Delete(context.Background(), task.AttachmentKey); err != nil {
			log.Printf("Failed to delete attachment %s: %v", task.AttachmentKey, err)
		}
	}

	tx := db.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := tx.Delete(&task).Error; err != nil {
		tx.Rollback()
		return err
	}

	event, err := models.NewEvent(
		string(broker.TaskDeleted),
		"task",
		map[string]interface{}{
			"task_id": task.ID.String(),
			"user_id": task.UserID.String(),
		},
	)
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// attachTo uploads the file and patches the record with the resulting
// URL/name pair. Runs after the create commit so the task exists whatever
// the blob store does.
func (s *TaskService) attachTo(db *database.Database, task models.Task, file *models.FileUpload) (models.Task, error) {
	key := storage.AttachmentKey(task.UserID, task.ID, file.Name)
	url, err := s.attachments.Put(context.Background(), key, file.Data, file.ContentType)
	if err != nil {
		return models.Task{}, err
	}

	updates := map[string]interface{}{
		"attachment_url":  url,
		"attachment_name": file.Name,
		"attachment_key":  key,
		"updated_at":      time.Now().UTC(),
	}
	if err := db.DB.Model(&task).Updates(updates).Error; err != nil {
		return models.Task{}, err
	}

	task.AttachmentURL = url
	task.AttachmentName = file.Name
	task.AttachmentKey = key
	return task, nil
}

var TaskServiceInstance TaskServiceInterface
