package models

import "time"

type User struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"` // never serialized
	Role         string  `json:"role"`
	TotalHours   float64 `json:"total_hours"`

	// refresh-token storage
	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// CompletedTask is one entry of a volunteer's personal completion history,
// appended when an NGO marks their participation complete.
type CompletedTask struct {
	TaskID      string    `json:"task_id"`
	TaskTitle   string    `json:"task_title"`
	HoursWorked float64   `json:"hours_worked"`
	Rating      *int      `json:"rating,omitempty"`
	Feedback    string    `json:"feedback,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}
