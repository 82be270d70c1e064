package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"helphive/internal/authz"
	"helphive/internal/engine"
	"helphive/internal/models"
	"helphive/internal/repositories"
)

// Controller-level failures. Engine failures pass through untouched so the
// handler layer sees one flat error vocabulary.
var (
	ErrForbidden          = errors.New("forbidden")
	ErrNGOProfileRequired = errors.New("caller has no ngo profile")
	ErrNGONotVerified     = errors.New("ngo is not verified")
)

// ValidationError carries the offending field for the caller.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

type CreateTaskInput struct {
	NGOID            string // admin only; ignored for ngo callers
	Title            string
	Description      string
	Category         models.TaskCategory
	Location         models.Location
	Schedule         models.Schedule
	VolunteersNeeded int
	Skills           []string
	IsUrgent         bool
	IsFeatured       bool
	Draft            bool // posting flow creates tasks directly as active
}

type TaskUpdate struct {
	Title            *string
	Description      *string
	Category         *models.TaskCategory
	Location         *models.Location
	Schedule         *models.Schedule
	VolunteersNeeded *int
	Skills           *[]string
	IsUrgent         *bool
	IsFeatured       *bool
	Status           *models.TaskStatus
}

type ApplyInput struct {
	Message      string
	Availability models.Availability
}

type CompletionInput struct {
	HoursWorked float64
	Rating      *int
	Feedback    string
}

// TaskService orchestrates the task lifecycle: it validates status and
// ownership, drives the engine, and propagates stat deltas to the NGO and
// user aggregates inside the task's transaction.
type TaskService interface {
	Create(ctx context.Context, p authz.Principal, in CreateTaskInput) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	GetAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, p authz.Principal, id string, upd TaskUpdate) (*models.Task, error)
	ChangeStatus(ctx context.Context, p authz.Principal, id string, to models.TaskStatus) (*models.Task, error)
	Delete(ctx context.Context, p authz.Principal, id string) error

	Apply(ctx context.Context, p authz.Principal, taskID string, in ApplyInput) (*models.Task, error)
	Decide(ctx context.Context, p authz.Principal, taskID, applicationID string, decision models.ApplicationStatus, rejectionReason string) (*models.Task, error)
	CompleteVolunteer(ctx context.Context, p authz.Principal, taskID, volunteerID string, in CompletionInput) (*models.Task, error)
}

type taskService struct {
	tasks repositories.TaskRepository
	ngos  repositories.NGORepository
	users repositories.UserRepository
}

func NewTaskService(tasks repositories.TaskRepository, ngos repositories.NGORepository, users repositories.UserRepository) TaskService {
	return &taskService{tasks: tasks, ngos: ngos, users: users}
}

func (s *taskService) Create(ctx context.Context, p authz.Principal, in CreateTaskInput) (*models.Task, error) {
	ngo, err := s.ngoForCreate(ctx, p, in.NGOID)
	if err != nil {
		return nil, err
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	status := models.StatusActive
	if in.Draft {
		status = models.StatusDraft
	}
	now := time.Now()
	task := &models.Task{
		ID:          uuid.NewString(),
		NGOID:       ngo.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    in.Category,
		Location:    in.Location,
		Schedule:    in.Schedule,
		Requirements: models.Requirements{
			VolunteersNeeded: in.VolunteersNeeded,
			Skills:           in.Skills,
		},
		Status:     status,
		IsUrgent:   in.IsUrgent,
		IsFeatured: in.IsFeatured,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	engine.Recompute(task)

	err = s.tasks.Store(ctx, task, func(q repositories.Queryer) error {
		return s.ngos.AddTaskDelta(ctx, q, ngo.ID, 1)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ngoForCreate resolves the NGO a new task belongs to. NGO verification is a
// hard precondition for ngo callers; admins may post on behalf of any NGO.
func (s *taskService) ngoForCreate(ctx context.Context, p authz.Principal, ngoID string) (*models.NGO, error) {
	switch p.Role {
	case authz.RoleNGO:
		ngo, err := s.ngos.FindByOwner(ctx, p.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrNGONotFound) {
				return nil, ErrNGOProfileRequired
			}
			return nil, err
		}
		if ngo.Verification != models.NGOVerificationApproved {
			return nil, ErrNGONotVerified
		}
		return ngo, nil
	case authz.RoleAdmin:
		if ngoID == "" {
			return nil, &ValidationError{Field: "ngo_id", Msg: "required for admin-created tasks"}
		}
		return s.ngos.FindByID(ctx, ngoID)
	default:
		return nil, ErrForbidden
	}
}

func validateCreate(in CreateTaskInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Msg: "required"}
	}
	if !models.IsValidCategory(in.Category) {
		return &ValidationError{Field: "category", Msg: "unknown category"}
	}
	if in.VolunteersNeeded < 1 {
		return &ValidationError{Field: "volunteers_needed", Msg: "must be at least 1"}
	}
	if in.Schedule.EndDate.Before(in.Schedule.StartDate) {
		return &ValidationError{Field: "schedule", Msg: "end_date must not precede start_date"}
	}
	return nil
}

func (s *taskService) GetByID(ctx context.Context, id string) (*models.Task, error) {
	return s.tasks.FindByID(ctx, id)
}

func (s *taskService) GetAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	return s.tasks.FindAll(ctx, filter)
}

func (s *taskService) Update(ctx context.Context, p authz.Principal, id string, upd TaskUpdate) (*models.Task, error) {
	if err := s.authorizeManage(ctx, p, id); err != nil {
		return nil, err
	}
	return s.tasks.Mutate(ctx, id, func(q repositories.Queryer, t *models.Task) error {
		if upd.Title != nil {
			if strings.TrimSpace(*upd.Title) == "" {
				return &ValidationError{Field: "title", Msg: "required"}
			}
			t.Title = *upd.Title
		}
		if upd.Description != nil {
			t.Description = *upd.Description
		}
		if upd.Category != nil {
			if !models.IsValidCategory(*upd.Category) {
				return &ValidationError{Field: "category", Msg: "unknown category"}
			}
			t.Category = *upd.Category
		}
		if upd.Location != nil {
			t.Location = *upd.Location
		}
		if upd.Schedule != nil {
			if upd.Schedule.EndDate.Before(upd.Schedule.StartDate) {
				return &ValidationError{Field: "schedule", Msg: "end_date must not precede start_date"}
			}
			t.Schedule = *upd.Schedule
		}
		if upd.VolunteersNeeded != nil {
			if *upd.VolunteersNeeded < 1 {
				return &ValidationError{Field: "volunteers_needed", Msg: "must be at least 1"}
			}
			t.Requirements.VolunteersNeeded = *upd.VolunteersNeeded
		}
		if upd.Skills != nil {
			t.Requirements.Skills = *upd.Skills
		}
		if upd.IsUrgent != nil {
			t.IsUrgent = *upd.IsUrgent
		}
		if upd.IsFeatured != nil {
			t.IsFeatured = *upd.IsFeatured
		}
		if upd.Status != nil {
			if err := s.transition(ctx, q, t, *upd.Status); err != nil {
				return err
			}
		}
		t.UpdatedAt = time.Now()
		engine.Recompute(t)
		return nil
	})
}

func (s *taskService) ChangeStatus(ctx context.Context, p authz.Principal, id string, to models.TaskStatus) (*models.Task, error) {
	if err := s.authorizeManage(ctx, p, id); err != nil {
		return nil, err
	}
	return s.tasks.Mutate(ctx, id, func(q repositories.Queryer, t *models.Task) error {
		if err := s.transition(ctx, q, t, to); err != nil {
			return err
		}
		t.UpdatedAt = time.Now()
		engine.Recompute(t)
		return nil
	})
}

// transition applies a legal status change; entering completed bumps the
// NGO's completed-task counter in the same transaction.
func (s *taskService) transition(ctx context.Context, q repositories.Queryer, t *models.Task, to models.TaskStatus) error {
	from := t.Status
	if err := engine.Transition(t, to); err != nil {
		return err
	}
	if to == models.StatusCompleted && from != models.StatusCompleted {
		return s.ngos.IncrementCompletedTasks(ctx, q, t.NGOID)
	}
	return nil
}

func (s *taskService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if err := s.authorizeManage(ctx, p, id); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, id, func(q repositories.Queryer, t *models.Task) error {
		return s.ngos.AddTaskDelta(ctx, q, t.NGOID, -1)
	})
}

func (s *taskService) Apply(ctx context.Context, p authz.Principal, taskID string, in ApplyInput) (*models.Task, error) {
	if p.Role != authz.RoleVolunteer {
		return nil, ErrForbidden
	}
	if in.Availability != "" && !models.IsValidAvailability(in.Availability) {
		return nil, &ValidationError{Field: "availability", Msg: "must be full-time, part-time or flexible"}
	}
	return s.tasks.Mutate(ctx, taskID, func(q repositories.Queryer, t *models.Task) error {
		if _, err := engine.Apply(t, p.UserID, in.Message, in.Availability, time.Now()); err != nil {
			return err
		}
		t.UpdatedAt = time.Now()
		return nil
	})
}

func (s *taskService) Decide(ctx context.Context, p authz.Principal, taskID, applicationID string, decision models.ApplicationStatus, rejectionReason string) (*models.Task, error) {
	// withdraw belongs to the applying volunteer; approve/reject to the
	// owning NGO or an admin
	if decision != models.ApplicationWithdrawn {
		if err := s.authorizeManage(ctx, p, taskID); err != nil {
			return nil, err
		}
	}
	return s.tasks.Mutate(ctx, taskID, func(q repositories.Queryer, t *models.Task) error {
		if decision == models.ApplicationWithdrawn {
			app := t.Application(applicationID)
			if app == nil {
				return engine.ErrApplicationNotFound
			}
			if app.VolunteerID != p.UserID && !p.IsAdmin() {
				return ErrForbidden
			}
		}
		rosterBefore := len(t.Volunteers)
		if err := engine.Decide(t, applicationID, decision, rejectionReason, time.Now()); err != nil {
			return err
		}
		if len(t.Volunteers) > rosterBefore {
			if err := s.ngos.AddVolunteerDelta(ctx, q, t.NGOID, 1); err != nil {
				return err
			}
		}
		t.UpdatedAt = time.Now()
		return nil
	})
}

func (s *taskService) CompleteVolunteer(ctx context.Context, p authz.Principal, taskID, volunteerID string, in CompletionInput) (*models.Task, error) {
	if err := s.authorizeManage(ctx, p, taskID); err != nil {
		return nil, err
	}
	return s.tasks.Mutate(ctx, taskID, func(q repositories.Queryer, t *models.Task) error {
		rec, err := engine.Complete(t, volunteerID, in.HoursWorked, in.Rating, in.Feedback, time.Now())
		if err != nil {
			return err
		}
		// single logical transaction with the roster mutation
		if err := s.users.AppendCompletedTask(ctx, q, volunteerID, models.CompletedTask{
			TaskID:      t.ID,
			TaskTitle:   t.Title,
			HoursWorked: rec.HoursWorked,
			Rating:      rec.Rating,
			Feedback:    rec.Feedback,
			CompletedAt: *rec.CompletedAt,
		}); err != nil {
			return err
		}
		if err := s.ngos.ApplyCompletionDelta(ctx, q, t.NGOID, rec.HoursWorked, rec.Rating); err != nil {
			return err
		}
		t.UpdatedAt = time.Now()
		return nil
	})
}

// authorizeManage checks that the caller owns the task's NGO or is an admin.
func (s *taskService) authorizeManage(ctx context.Context, p authz.Principal, taskID string) error {
	if p.IsAdmin() {
		return nil
	}
	if p.Role != authz.RoleNGO {
		return ErrForbidden
	}
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	ngo, err := s.ngos.FindByID(ctx, task.NGOID)
	if err != nil {
		return err
	}
	if ngo.OwnerUserID != p.UserID {
		return ErrForbidden
	}
	return nil
}
