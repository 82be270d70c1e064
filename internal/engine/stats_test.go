package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"helphive/internal/models"
)

func TestRecomputeAverageRating(t *testing.T) {
	task := &models.Task{
		Volunteers: []models.VolunteerRecord{
			{ID: "v1", VolunteerID: "vol-1", Rating: intPtr(4), HoursWorked: 2},
			{ID: "v2", VolunteerID: "vol-2", Rating: intPtr(5), HoursWorked: 3},
			{ID: "v3", VolunteerID: "vol-3", HoursWorked: 1}, // unrated
		},
	}
	Recompute(task)

	assert.Equal(t, 4.5, task.Stats.AverageRating)
	assert.Equal(t, 6.0, task.Stats.TotalHours)
	assert.Equal(t, 3, task.Stats.TotalVolunteers)
}

func TestRecomputeNoRatingsYieldsZero(t *testing.T) {
	task := &models.Task{
		Volunteers: []models.VolunteerRecord{
			{ID: "v1", VolunteerID: "vol-1", HoursWorked: 4},
		},
	}
	Recompute(task)

	assert.Equal(t, 0.0, task.Stats.AverageRating)
	assert.Equal(t, 4.0, task.Stats.TotalHours)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	task := newActiveTask(2)
	a1, _ := Apply(task, "vol-1", "", "", time.Now())
	_ = Decide(task, a1.ID, models.ApplicationApproved, "", time.Now())

	first := task.Stats
	Recompute(task)
	Recompute(task)
	assert.Equal(t, first, task.Stats)
}

func TestRecomputeOverwritesStaleCounters(t *testing.T) {
	task := newActiveTask(2)
	_, _ = Apply(task, "vol-1", "", "", time.Now())

	// simulate a counter drifting away from the source of truth
	task.Stats.TotalApplications = 42
	task.Stats.ApprovedApplications = 7
	Recompute(task)

	assert.Equal(t, 1, task.Stats.TotalApplications)
	assert.Equal(t, 0, task.Stats.ApprovedApplications)
}
