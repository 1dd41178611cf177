// Package dashboard owns the in-memory task view for one signed-in user:
// a live list fed by the task stream, a pure filtered/searched projection
// over it, and the loading/ready/form-open view states.
package dashboard

import (
	"sync"

	"taskdeck/models"
	"taskdeck/services"

	"github.com/google/uuid"
)

// State is the dashboard view state.
type State string

const (
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateFormOpen State = "form-open"
)

// Dashboard holds the task list for one owner. The list is only ever
// replaced wholesale by subscription snapshots; nothing mutates it in
// place.
type Dashboard struct {
	mu     sync.RWMutex
	state  State
	tasks  []models.Task
	filter models.TaskStatus // empty means all statuses
	search string

	cancel func()
	done   chan struct{}
}

// Open subscribes to the owner's task stream and starts consuming
// snapshots. Close must be called when the view goes away or the identity
// changes, so the server-side subscription is released.
func Open(streams services.TaskStreamServiceInterface, ownerID uuid.UUID) *Dashboard {
	snapshots, cancel := streams.Subscribe(ownerID)

	d := &Dashboard{
		state:  StateLoading,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(d.done)
		for tasks := range snapshots {
			d.applySnapshot(tasks)
		}
	}()

	return d
}

func (d *Dashboard) applySnapshot(tasks []models.Task) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.tasks = tasks
	if d.state == StateLoading {
		d.state = StateReady
	}
}

// Close cancels the subscription; idempotent.
func (d *Dashboard) Close() {
	d.cancel()
	<-d.done
}

func (d *Dashboard) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Tasks returns the current full list, newest first. Callers get a copy;
// the held list only ever changes by wholesale snapshot replacement.
func (d *Dashboard) Tasks() []models.Task {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tasks := make([]models.Task, len(d.tasks))
	copy(tasks, d.tasks)
	return tasks
}

// OpenForm moves to form-open; the subscription keeps running behind the
// form so the list stays fresh.
func (d *Dashboard) OpenForm() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateReady {
		d.state = StateFormOpen
	}
}

// CloseForm returns to ready after submit or cancel.
func (d *Dashboard) CloseForm() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateFormOpen {
		d.state = StateReady
	}
}

func (d *Dashboard) SetFilter(status models.TaskStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filter = status
}

func (d *Dashboard) SetSearch(term string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.search = term
}

// Visible computes the filtered, searched projection of the current list.
// Pure: same list, filter and search always give the same result, and the
// underlying list is never modified.
func (d *Dashboard) Visible() []models.Task {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Project(d.tasks, d.filter, d.search)
}
