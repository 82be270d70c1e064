package engine

import (
	"time"

	"helphive/internal/models"
)

// Complete marks a roster member's participation as finished, recording the
// worked hours plus an optional rating and feedback. CompletedAt is set once;
// a second call fails with ErrAlreadyCompleted and changes nothing.
func Complete(t *models.Task, volunteerID string, hoursWorked float64, rating *int, feedback string, now time.Time) (*models.VolunteerRecord, error) {
	rec := t.VolunteerRecordFor(volunteerID)
	if rec == nil {
		return nil, ErrNotARosterMember
	}
	if rec.CompletedAt != nil {
		return nil, ErrAlreadyCompleted
	}
	if hoursWorked < 0 {
		return nil, ErrNegativeHours
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, ErrInvalidRating
	}

	rec.HoursWorked = hoursWorked
	rec.Rating = rating
	rec.Feedback = feedback
	rec.CompletedAt = &now
	Recompute(t)
	return rec, nil
}
