// Package taskform captures and validates task input. It never talks to
// persistence itself: Submit packages a create-or-update payload and hands
// it to the caller's delegate.
package taskform

import (
	"time"

	"taskdeck/models"
)

// Values holds the raw form fields as entered.
type Values struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     time.Time
	Attachment  *models.FileUpload
}

// Submission is the packaged payload; exactly one of Create or Update is
// set, depending on whether the form was opened for an existing task.
type Submission struct {
	Create *models.CreateTaskInput
	Update *models.UpdateTaskInput
}

// Form is a create-or-edit input session. Editing is non-nil when an
// existing task is being edited.
type Form struct {
	Editing *models.Task

	// FieldErrors holds per-field validation messages from the last
	// Submit; Message holds the delegate's error, if any.
	FieldErrors map[string]string
	Message     string
}

// New returns a form for creating a task.
func New() *Form {
	return &Form{}
}

// NewEdit returns a form pre-bound to an existing task.
func NewEdit(task models.Task) *Form {
	return &Form{Editing: &task}
}

// Validate checks required fields and returns per-field messages. It is
// synchronous and side-effect free.
func Validate(v Values) map[string]string {
	errs := make(map[string]string)
	if v.Title == "" {
		errs["title"] = "Title is required"
	}
	if v.DueDate.IsZero() {
		errs["due_date"] = "Due date is required"
	}
	return errs
}

// Submit validates, packages the payload, and delegates. Validation errors
// stop the submission before the delegate runs. Delegate errors are caught
// and stored as the form's display message, not propagated. Returns true
// when the submission went through.
func (f *Form) Submit(v Values, deliver func(Submission) error) bool {
	f.Message = ""
	f.FieldErrors = Validate(v)
	if len(f.FieldErrors) > 0 {
		return false
	}

	var submission Submission
	if f.Editing == nil {
		submission.Create = packageCreate(v)
	} else {
		submission.Update = packageUpdate(*f.Editing, v)
	}

	if err := deliver(submission); err != nil {
		f.Message = err.Error()
		return false
	}
	return true
}

func packageCreate(v Values) *models.CreateTaskInput {
	status := v.Status
	if status == "" {
		status = models.StatusPending
	}
	priority := v.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	return &models.CreateTaskInput{
		Title:       v.Title,
		Description: v.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     v.DueDate,
		Attachment:  v.Attachment,
	}
}

// packageUpdate builds a patch of only the fields that differ from the
// task being edited, plus any newly picked file.
func packageUpdate(current models.Task, v Values) *models.UpdateTaskInput {
	patch := &models.UpdateTaskInput{Attachment: v.Attachment}

	if v.Title != current.Title {
		title := v.Title
		patch.Title = &title
	}
	if v.Description != current.Description {
		description := v.Description
		patch.Description = &description
	}
	if v.Status != "" && v.Status != current.Status {
		status := v.Status
		patch.Status = &status
	}
	if v.Priority != "" && v.Priority != current.Priority {
		priority := v.Priority
		patch.Priority = &priority
	}
	if !v.DueDate.Equal(current.DueDate) {
		dueDate := v.DueDate
		patch.DueDate = &dueDate
	}

	return patch
}
