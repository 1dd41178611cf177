package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// TaskPriority ranks how urgent a task is.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID         uuid.UUID    `gorm:"type:uuid;not null;constraint:OnDelete:CASCADE;" json:"user_id"`
	Title          string       `gorm:"not null" json:"title"`
	Description    string       `json:"description"`
	Status         TaskStatus   `gorm:"not null;default:'pending'" json:"status"`
	Priority       TaskPriority `gorm:"not null;default:'medium'" json:"priority"`
	DueDate        time.Time    `json:"due_date"`
	AttachmentURL  string       `json:"attachment_url,omitempty"`
	AttachmentName string       `json:"attachment_name,omitempty"`
	// AttachmentKey is the object store key backing AttachmentURL; not exposed.
	AttachmentKey string         `json:"-"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// HasAttachment reports whether the task carries an uploaded file. URL and
// name are always set or cleared together.
func (t Task) HasAttachment() bool {
	return t.AttachmentURL != "" && t.AttachmentName != ""
}

// FileUpload is an attachment file captured from a form submission.
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// CreateTaskInput carries the fields for a new task. Status and Priority
// fall back to pending/medium when empty.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     time.Time
	Attachment  *FileUpload
}

// UpdateTaskInput is a partial patch; nil fields are left untouched.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority
	DueDate     *time.Time
	Attachment  *FileUpload
}
