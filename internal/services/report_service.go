package services

import (
	"context"
	"database/sql"
)

// PlatformSummary is a coarse admin snapshot; its numbers come straight from
// the task and NGO tables, not from any cached counter.
type PlatformSummary struct {
	TasksByStatus   map[string]int `json:"tasks_by_status"`
	TotalTasks      int            `json:"total_tasks"`
	OpenTasks       int            `json:"open_tasks"`
	TotalNGOs       int            `json:"total_ngos"`
	ApprovedNGOs    int            `json:"approved_ngos"`
	TotalVolunteers int            `json:"total_volunteers"`
	TotalHours      float64        `json:"total_hours"`
}

type ReportService interface {
	Summary(ctx context.Context) (*PlatformSummary, error)
}

type reportService struct {
	db *sql.DB
}

func NewReportService(db *sql.DB) ReportService {
	return &reportService{db: db}
}

func (s *reportService) Summary(ctx context.Context) (*PlatformSummary, error) {
	out := &PlatformSummary{TasksByStatus: map[string]int{}}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out.TasksByStatus[status] = n
		out.TotalTasks += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE status = 'active' AND approved_applications < volunteers_needed`,
	).Scan(&out.OpenTasks); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE verification = 'approved')
		FROM ngos`,
	).Scan(&out.TotalNGOs, &out.ApprovedNGOs); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(hours_worked), 0) FROM volunteer_records`,
	).Scan(&out.TotalVolunteers, &out.TotalHours); err != nil {
		return nil, err
	}
	return out, nil
}
