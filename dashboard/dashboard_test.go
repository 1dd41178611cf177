package dashboard

import (
	"testing"
	"time"

	"taskdeck/models"
	"taskdeck/testutils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func waitForState(t *testing.T, d *Dashboard, want State) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if d.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("dashboard never reached state %s, stuck at %s", want, d.State())
}

func TestDashboard_SnapshotMovesLoadingToReady(t *testing.T) {
	streams := &testutils.MockTaskStreamService{}
	d := Open(streams, uuid.New())
	defer d.Close()

	assert.Equal(t, StateLoading, d.State())

	streams.Push([]models.Task{{ID: uuid.New(), Title: "Test Task"}})
	waitForState(t, d, StateReady)

	tasks := d.Tasks()
	assert.Len(t, tasks, 1)
	assert.Equal(t, "Test Task", tasks[0].Title)
}

func TestDashboard_SnapshotsReplaceWholesale(t *testing.T) {
	streams := &testutils.MockTaskStreamService{}
	d := Open(streams, uuid.New())
	defer d.Close()

	streams.Push([]models.Task{
		{ID: uuid.New(), Title: "First"},
		{ID: uuid.New(), Title: "Second"},
	})
	waitForState(t, d, StateReady)

	streams.Push([]models.Task{{ID: uuid.New(), Title: "Only"}})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(d.Tasks()) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	tasks := d.Tasks()
	assert.Len(t, tasks, 1)
	assert.Equal(t, "Only", tasks[0].Title)
}

func TestDashboard_TasksReturnsCopy(t *testing.T) {
	streams := &testutils.MockTaskStreamService{}
	d := Open(streams, uuid.New())
	defer d.Close()

	streams.Push([]models.Task{{ID: uuid.New(), Title: "Original"}})
	waitForState(t, d, StateReady)

	mutated := d.Tasks()
	mutated[0].Title = "Tampered"

	assert.Equal(t, "Original", d.Tasks()[0].Title)
}

func TestDashboard_FormStateTransitions(t *testing.T) {
	streams := &testutils.MockTaskStreamService{}
	d := Open(streams, uuid.New())
	defer d.Close()

	// The form cannot open before the first snapshot arrives
	d.OpenForm()
	assert.Equal(t, StateLoading, d.State())

	streams.Push([]models.Task{})
	waitForState(t, d, StateReady)

	d.OpenForm()
	assert.Equal(t, StateFormOpen, d.State())

	d.CloseForm()
	assert.Equal(t, StateReady, d.State())
}

func TestDashboard_CloseCancelsSubscription(t *testing.T) {
	streams := &testutils.MockTaskStreamService{}
	d := Open(streams, uuid.New())

	streams.Push([]models.Task{})
	waitForState(t, d, StateReady)

	d.Close()
	assert.Equal(t, 1, streams.Cancelled)
}

func TestProject(t *testing.T) {
	tasks := []models.Task{
		{Title: "Buy milk", Description: "from the corner shop", Status: models.StatusPending},
		{Title: "Write report", Description: "quarterly numbers", Status: models.StatusCompleted},
		{Title: "Call dentist", Description: "", Status: models.StatusPending},
	}

	t.Run("No Filter No Search", func(t *testing.T) {
		assert.Len(t, Project(tasks, "", ""), 3)
	})

	t.Run("Status Filter", func(t *testing.T) {
		result := Project(tasks, models.StatusPending, "")
		assert.Len(t, result, 2)
	})

	t.Run("Search Title Case Insensitive", func(t *testing.T) {
		result := Project(tasks, "", "BUY")
		assert.Len(t, result, 1)
		assert.Equal(t, "Buy milk", result[0].Title)
	})

	t.Run("Search Matches Description", func(t *testing.T) {
		result := Project(tasks, "", "quarterly")
		assert.Len(t, result, 1)
		assert.Equal(t, "Write report", result[0].Title)
	})

	t.Run("Filter And Search Combine", func(t *testing.T) {
		result := Project(tasks, models.StatusPending, "dentist")
		assert.Len(t, result, 1)
		assert.Equal(t, "Call dentist", result[0].Title)
	})

	t.Run("Input Untouched", func(t *testing.T) {
		Project(tasks, models.StatusCompleted, "report")
		assert.Len(t, tasks, 3)
		assert.Equal(t, "Buy milk", tasks[0].Title)
	})
}

func TestOverdue(t *testing.T) {
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	assert.True(t, Overdue(models.Task{Status: models.StatusPending, DueDate: past}, now))
	assert.True(t, Overdue(models.Task{Status: models.StatusInProgress, DueDate: past}, now))
	assert.False(t, Overdue(models.Task{Status: models.StatusPending, DueDate: future}, now))

	// Completed tasks are never overdue
	assert.False(t, Overdue(models.Task{Status: models.StatusCompleted, DueDate: past}, now))
}
