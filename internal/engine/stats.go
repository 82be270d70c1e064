package engine

import "helphive/internal/models"

// Recompute refreshes every derived counter on the task from its child
// collections. It is a pure fold: idempotent, order-independent, and the only
// way the stats fields are ever written. Counters are never adjusted
// incrementally.
func Recompute(t *models.Task) {
	stats := models.TaskStats{
		TotalApplications: len(t.Applications),
		TotalVolunteers:   len(t.Volunteers),
	}
	for i := range t.Applications {
		if t.Applications[i].Status == models.ApplicationApproved {
			stats.ApprovedApplications++
		}
	}
	ratingSum, ratingCount := 0, 0
	for i := range t.Volunteers {
		v := &t.Volunteers[i]
		stats.TotalHours += v.HoursWorked
		if v.Rating != nil {
			ratingSum += *v.Rating
			ratingCount++
		}
	}
	if ratingCount > 0 {
		stats.AverageRating = float64(ratingSum) / float64(ratingCount)
	}
	t.Stats = stats
}
