package engine

import "helphive/internal/models"

// CanAccept reports whether approving one more application would still fit
// the requested volunteer count. Pure; counts from the ledger itself rather
// than trusting the cached stat.
func CanAccept(t *models.Task) bool {
	return countApproved(t) < t.Requirements.VolunteersNeeded
}

// IsOpen reports whether a task should show up as joinable in listings:
// active and not yet at capacity.
func IsOpen(t *models.Task) bool {
	return t.Status == models.StatusActive && CanAccept(t)
}

func countApproved(t *models.Task) int {
	n := 0
	for i := range t.Applications {
		if t.Applications[i].Status == models.ApplicationApproved {
			n++
		}
	}
	return n
}
