package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"helphive/internal/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.TaskStatus
		want     bool
	}{
		{models.StatusDraft, models.StatusActive, true},
		{models.StatusDraft, models.StatusCancelled, true},
		{models.StatusDraft, models.StatusCompleted, false},
		{models.StatusActive, models.StatusInProgress, true},
		{models.StatusActive, models.StatusCompleted, true}, // direct completion allowed
		{models.StatusActive, models.StatusCancelled, true},
		{models.StatusActive, models.StatusDraft, false},
		{models.StatusInProgress, models.StatusCompleted, true},
		{models.StatusInProgress, models.StatusCancelled, true},
		{models.StatusInProgress, models.StatusActive, false},
		{models.StatusCompleted, models.StatusActive, false},
		{models.StatusCancelled, models.StatusActive, false},
		{models.StatusActive, models.StatusActive, true}, // no-op always legal
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	task := &models.Task{Status: models.StatusActive}

	err := Transition(task, models.TaskStatus("archived"))
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, models.StatusActive, task.Status)
}

func TestTransitionApplies(t *testing.T) {
	task := &models.Task{Status: models.StatusDraft}

	assert.NoError(t, Transition(task, models.StatusActive))
	assert.Equal(t, models.StatusActive, task.Status)

	assert.ErrorIs(t, Transition(task, models.StatusDraft), ErrIllegalTransition)
}

func TestIsOpen(t *testing.T) {
	task := newActiveTask(1)
	assert.True(t, IsOpen(task))

	task.Status = models.StatusDraft
	assert.False(t, IsOpen(task))

	task.Status = models.StatusActive
	task.Applications = []models.Application{
		{ID: "a1", VolunteerID: "vol-1", Status: models.ApplicationApproved},
	}
	assert.False(t, IsOpen(task))
}
