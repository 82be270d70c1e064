package engine

import "helphive/internal/models"

// Allowed task status transitions. Direct active->completed is permitted
// without an in_progress stop; completed and cancelled are terminal.
var taskTransitions = map[models.TaskStatus]map[models.TaskStatus]bool{
	models.StatusDraft:      {models.StatusActive: true, models.StatusCancelled: true},
	models.StatusActive:     {models.StatusInProgress: true, models.StatusCompleted: true, models.StatusCancelled: true},
	models.StatusInProgress: {models.StatusCompleted: true, models.StatusCancelled: true},
	models.StatusCompleted:  {},
	models.StatusCancelled:  {},
}

func IsAllowedStatus(s models.TaskStatus) bool {
	_, ok := taskTransitions[s]
	return ok
}

func CanTransition(from, to models.TaskStatus) bool {
	if from == to {
		return true
	}
	nexts, ok := taskTransitions[from]
	if !ok {
		return false
	}
	return nexts[to]
}

// Transition applies a status change after checking legality.
func Transition(t *models.Task, to models.TaskStatus) error {
	if !IsAllowedStatus(to) || !CanTransition(t.Status, to) {
		return ErrIllegalTransition
	}
	t.Status = to
	return nil
}
