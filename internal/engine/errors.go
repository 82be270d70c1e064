package engine

import "errors"

// Sentinel errors for every failure the matching engine can produce. The
// handler layer maps them to HTTP statuses with errors.Is; nothing matches on
// message text.
var (
	// conflicts
	ErrDuplicateApplication = errors.New("volunteer already has an application for this task")
	ErrTaskNotAccepting     = errors.New("task is not accepting applications")
	ErrTaskFull             = errors.New("task has no remaining volunteer slots")
	ErrAlreadyCompleted     = errors.New("volunteer already completed this task")
	ErrApplicationDecided   = errors.New("application has already been decided")
	ErrIllegalTransition    = errors.New("illegal task status transition")

	// not found
	ErrApplicationNotFound = errors.New("application not found on this task")
	ErrNotARosterMember    = errors.New("volunteer is not on the task roster")

	// validation
	ErrInvalidDecision       = errors.New("decision must be approved, rejected or withdrawn")
	ErrRejectionReasonNeeded = errors.New("rejection reason is required")
	ErrInvalidRating         = errors.New("rating must be between 1 and 5")
	ErrNegativeHours         = errors.New("hours worked must not be negative")
)
