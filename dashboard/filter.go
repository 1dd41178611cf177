package dashboard

import (
	"strings"
	"time"

	"taskdeck/models"
)

// Project applies a status-equality filter AND a case-insensitive
// substring search over title and description. An empty status matches
// every task, an empty term matches everything.
func Project(tasks []models.Task, status models.TaskStatus, term string) []models.Task {
	needle := strings.ToLower(term)

	result := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if status != "" && task.Status != status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(task.Title), needle) &&
			!strings.Contains(strings.ToLower(task.Description), needle) {
			continue
		}
		result = append(result, task)
	}
	return result
}

// Overdue reports whether a task is past due. Derived at read time, never
// stored: a completed task is never overdue.
func Overdue(task models.Task, now time.Time) bool {
	return task.Status != models.StatusCompleted && task.DueDate.Before(now)
}
