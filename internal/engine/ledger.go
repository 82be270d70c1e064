package engine

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"helphive/internal/models"
)

// Apply appends a pending application for volunteerID to the task ledger.
// Pending applications are accepted even past capacity (an implicit waiting
// list); only the approval transition is capacity-gated.
func Apply(t *models.Task, volunteerID, message string, availability models.Availability, now time.Time) (*models.Application, error) {
	if t.Status != models.StatusActive {
		return nil, ErrTaskNotAccepting
	}
	for i := range t.Applications {
		a := &t.Applications[i]
		if a.VolunteerID == volunteerID && a.Status != models.ApplicationWithdrawn {
			return nil, ErrDuplicateApplication
		}
	}
	if availability == "" {
		availability = models.AvailabilityFlexible
	}

	t.Applications = append(t.Applications, models.Application{
		ID:           uuid.NewString(),
		VolunteerID:  volunteerID,
		Status:       models.ApplicationPending,
		Message:      message,
		Availability: availability,
		AppliedAt:    now,
	})
	Recompute(t)
	return &t.Applications[len(t.Applications)-1], nil
}

// Decide moves a pending application into one of its terminal states.
// Approval is blocked at capacity and joins the volunteer to the roster
// (idempotently); rejection requires a non-empty reason.
func Decide(t *models.Task, applicationID string, decision models.ApplicationStatus, rejectionReason string, now time.Time) error {
	app := t.Application(applicationID)
	if app == nil {
		return ErrApplicationNotFound
	}
	if app.Status != models.ApplicationPending {
		return ErrApplicationDecided
	}

	switch decision {
	case models.ApplicationApproved:
		if !CanAccept(t) {
			return ErrTaskFull
		}
		app.Status = models.ApplicationApproved
		app.ApprovedAt = &now
		joinRoster(t, app.VolunteerID, now)
	case models.ApplicationRejected:
		if strings.TrimSpace(rejectionReason) == "" {
			return ErrRejectionReasonNeeded
		}
		app.Status = models.ApplicationRejected
		app.RejectedAt = &now
		app.RejectionReason = rejectionReason
	case models.ApplicationWithdrawn:
		app.Status = models.ApplicationWithdrawn
	default:
		return ErrInvalidDecision
	}

	Recompute(t)
	return nil
}

// joinRoster adds a VolunteerRecord unless the volunteer already has one.
func joinRoster(t *models.Task, volunteerID string, now time.Time) {
	if t.VolunteerRecordFor(volunteerID) != nil {
		return
	}
	t.Volunteers = append(t.Volunteers, models.VolunteerRecord{
		ID:          uuid.NewString(),
		VolunteerID: volunteerID,
		JoinedAt:    now,
	})
}
