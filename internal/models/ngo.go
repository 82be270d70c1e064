package models

import "time"

type NGOVerification string

const (
	NGOVerificationPending  NGOVerification = "pending"
	NGOVerificationApproved NGOVerification = "approved"
	NGOVerificationRejected NGOVerification = "rejected"
)

// NGOStats are aggregate counters owned by the NGO row. The task engine only
// applies deltas to them; RatingSum/RatingCount back the derived average so
// the deltas stay retry-safe inside their transaction.
type NGOStats struct {
	TotalTasks      int     `json:"total_tasks"`
	CompletedTasks  int     `json:"completed_tasks"`
	TotalVolunteers int     `json:"total_volunteers"`
	TotalHours      float64 `json:"total_hours"`
	AverageRating   float64 `json:"average_rating"`
	RatingSum       int     `json:"-"`
	RatingCount     int     `json:"-"`
}

type NGO struct {
	ID           string          `json:"id"`
	OwnerUserID  string          `json:"owner_user_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Website      string          `json:"website,omitempty"`
	Verification NGOVerification `json:"verification"`
	Stats        NGOStats        `json:"stats"`
	CreatedAt    time.Time       `json:"created_at"`
}
