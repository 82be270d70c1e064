// internal/models/task.go
package models

import (
	"time"

	"github.com/lib/pq"
)

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusDraft      TaskStatus = "draft"
	StatusActive     TaskStatus = "active"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

type TaskCategory string

const (
	CategoryEducation      TaskCategory = "education"
	CategoryHealth         TaskCategory = "health"
	CategoryEnvironment    TaskCategory = "environment"
	CategoryCommunity      TaskCategory = "community"
	CategoryAnimalWelfare  TaskCategory = "animal_welfare"
	CategoryDisasterRelief TaskCategory = "disaster_relief"
	CategoryOther          TaskCategory = "other"
)

func IsValidCategory(c TaskCategory) bool {
	switch c {
	case CategoryEducation, CategoryHealth, CategoryEnvironment,
		CategoryCommunity, CategoryAnimalWelfare, CategoryDisasterRelief, CategoryOther:
		return true
	}
	return false
}

type Availability string

const (
	AvailabilityFullTime Availability = "full-time"
	AvailabilityPartTime Availability = "part-time"
	AvailabilityFlexible Availability = "flexible"
)

func IsValidAvailability(a Availability) bool {
	switch a {
	case AvailabilityFullTime, AvailabilityPartTime, AvailabilityFlexible:
		return true
	}
	return false
}

type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

// Location is opaque address data; no geographic matching happens on it.
type Location struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

type Schedule struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type Requirements struct {
	VolunteersNeeded int            `json:"volunteers_needed"`
	Skills           pq.StringArray `json:"skills" swaggertype:"array,string"`
}

// Application is a volunteer's request to join a task. It lives inside its
// parent Task and is addressed by its own id, never by slice position.
type Application struct {
	ID              string            `json:"id"`
	VolunteerID     string            `json:"volunteer_id"`
	Status          ApplicationStatus `json:"status"`
	Message         string            `json:"message,omitempty"`
	Availability    Availability      `json:"availability"`
	AppliedAt       time.Time         `json:"applied_at"`
	ApprovedAt      *time.Time        `json:"approved_at,omitempty"`
	RejectedAt      *time.Time        `json:"rejected_at,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
}

// VolunteerRecord tracks an approved volunteer's participation on a task.
// One per (task, volunteer); CompletedAt is set once and never cleared.
type VolunteerRecord struct {
	ID          string     `json:"id"`
	VolunteerID string     `json:"volunteer_id"`
	JoinedAt    time.Time  `json:"joined_at"`
	HoursWorked float64    `json:"hours_worked"`
	Rating      *int       `json:"rating,omitempty"`
	Feedback    string     `json:"feedback,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskStats are derived counters. They are recomputed from the child
// collections on every mutation and never set independently.
type TaskStats struct {
	TotalApplications    int     `json:"total_applications"`
	ApprovedApplications int     `json:"approved_applications"`
	TotalVolunteers      int     `json:"total_volunteers"`
	TotalHours           float64 `json:"total_hours"`
	AverageRating        float64 `json:"average_rating"`
}

// Task represents a volunteering opportunity posted by an NGO. It owns its
// Applications and VolunteerRecords; the three are persisted and mutated as
// one consistency unit.
type Task struct {
	ID           string       `json:"id"`
	NGOID        string       `json:"ngo_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Category     TaskCategory `json:"category"`
	Location     Location     `json:"location"`
	Schedule     Schedule     `json:"schedule"`
	Requirements Requirements `json:"requirements"`
	Status       TaskStatus   `json:"status"`
	IsUrgent     bool         `json:"is_urgent"`
	IsFeatured   bool         `json:"is_featured"`

	Applications []Application     `json:"applications"`
	Volunteers   []VolunteerRecord `json:"volunteers"`
	Stats        TaskStats         `json:"stats"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Application returns the application with the given id, or nil.
func (t *Task) Application(id string) *Application {
	for i := range t.Applications {
		if t.Applications[i].ID == id {
			return &t.Applications[i]
		}
	}
	return nil
}

// VolunteerRecordFor returns the roster entry for a volunteer, or nil.
func (t *Task) VolunteerRecordFor(volunteerID string) *VolunteerRecord {
	for i := range t.Volunteers {
		if t.Volunteers[i].VolunteerID == volunteerID {
			return &t.Volunteers[i]
		}
	}
	return nil
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	NGOID    *string
	Status   *TaskStatus
	Category *TaskCategory
	OpenOnly bool
}
