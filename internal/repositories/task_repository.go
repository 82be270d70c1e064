package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"helphive/internal/models"
)

// Queryer is the subset of database/sql shared by *sql.DB and *sql.Tx. Repo
// methods that must join an already-open task transaction take it as their
// first argument.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type TaskRepository interface {
	// Store inserts the task with its children in one transaction; fn (may be
	// nil) runs inside the same transaction for cross-entity writes.
	Store(ctx context.Context, task *models.Task, fn func(q Queryer) error) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	// Mutate loads the aggregate under a row lock, applies fn and persists the
	// result. fn runs inside the transaction, so NGO/user deltas issued
	// through its Queryer commit or roll back together with the task.
	Mutate(ctx context.Context, id string, fn func(q Queryer, t *models.Task) error) (*models.Task, error)
	// Delete removes the task and its children; fn runs first, in the same
	// transaction, with the locked aggregate.
	Delete(ctx context.Context, id string, fn func(q Queryer, t *models.Task) error) error
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

var ErrTaskNotFound = fmt.Errorf("task not found")

const taskColumns = `id, ngo_id, title, description, category,
       address, city, state, zip_code, start_date, end_date,
       volunteers_needed, skills, status, is_urgent, is_featured,
       total_applications, approved_applications, total_volunteers, total_hours, average_rating,
       created_at, updated_at`

func (r *taskRepository) Store(ctx context.Context, task *models.Task, fn func(q Queryer) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO tasks (
			id, ngo_id, title, description, category,
			address, city, state, zip_code, start_date, end_date,
			volunteers_needed, skills, status, is_urgent, is_featured,
			total_applications, approved_applications, total_volunteers, total_hours, average_rating,
			created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`
	if _, err := tx.ExecContext(ctx, query,
		task.ID, task.NGOID, task.Title, task.Description, task.Category,
		task.Location.Address, task.Location.City, task.Location.State, task.Location.ZipCode,
		task.Schedule.StartDate, task.Schedule.EndDate,
		task.Requirements.VolunteersNeeded, task.Requirements.Skills,
		task.Status, task.IsUrgent, task.IsFeatured,
		task.Stats.TotalApplications, task.Stats.ApprovedApplications,
		task.Stats.TotalVolunteers, task.Stats.TotalHours, task.Stats.AverageRating,
		task.CreatedAt, task.UpdatedAt,
	); err != nil {
		return err
	}
	if err := saveChildren(ctx, tx, task); err != nil {
		return err
	}
	if fn != nil {
		if err := fn(tx); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	return loadTask(ctx, r.db, id, false)
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`

	conditions := []string{}
	args := []interface{}{}
	argID := 1

	if filter.NGOID != nil {
		conditions = append(conditions, fmt.Sprintf("ngo_id = $%d", argID))
		args = append(args, *filter.NGOID)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argID))
		args = append(args, *filter.Category)
		argID++
	}
	if filter.OpenOnly {
		conditions = append(conditions, "status = 'active' AND approved_applications < volunteers_needed")
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY is_featured DESC, is_urgent DESC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Mutate(ctx context.Context, id string, fn func(q Queryer, t *models.Task) error) (*models.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	task, err := loadTask(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if err := fn(tx, task); err != nil {
		return nil, err
	}

	query := `
		UPDATE tasks SET
			title=$1, description=$2, category=$3,
			address=$4, city=$5, state=$6, zip_code=$7,
			start_date=$8, end_date=$9, volunteers_needed=$10, skills=$11,
			status=$12, is_urgent=$13, is_featured=$14,
			total_applications=$15, approved_applications=$16, total_volunteers=$17,
			total_hours=$18, average_rating=$19, updated_at=$20
		WHERE id=$21`
	if _, err := tx.ExecContext(ctx, query,
		task.Title, task.Description, task.Category,
		task.Location.Address, task.Location.City, task.Location.State, task.Location.ZipCode,
		task.Schedule.StartDate, task.Schedule.EndDate,
		task.Requirements.VolunteersNeeded, task.Requirements.Skills,
		task.Status, task.IsUrgent, task.IsFeatured,
		task.Stats.TotalApplications, task.Stats.ApprovedApplications, task.Stats.TotalVolunteers,
		task.Stats.TotalHours, task.Stats.AverageRating, task.UpdatedAt,
		task.ID,
	); err != nil {
		return nil, err
	}
	if err := saveChildren(ctx, tx, task); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string, fn func(q Queryer, t *models.Task) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	task, err := loadTask(ctx, tx, id, true)
	if err != nil {
		return err
	}
	if fn != nil {
		if err := fn(tx, task); err != nil {
			return err
		}
	}
	// children go first; no FK cascade assumed
	if _, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE task_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM volunteer_records WHERE task_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// loadTask reads the full aggregate. With forUpdate the task row is locked,
// serializing every mutation of this consistency unit.
func loadTask(ctx context.Context, q Queryer, id string, forUpdate bool) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	task, err := scanTask(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, volunteer_id, status, message, availability,
		       applied_at, approved_at, rejected_at, rejection_reason
		FROM applications WHERE task_id = $1 ORDER BY applied_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a models.Application
		if err := rows.Scan(
			&a.ID, &a.VolunteerID, &a.Status, &a.Message, &a.Availability,
			&a.AppliedAt, &a.ApprovedAt, &a.RejectedAt, &a.RejectionReason,
		); err != nil {
			return nil, err
		}
		task.Applications = append(task.Applications, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	vrows, err := q.QueryContext(ctx, `
		SELECT id, volunteer_id, joined_at, hours_worked, rating, feedback, completed_at
		FROM volunteer_records WHERE task_id = $1 ORDER BY joined_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer vrows.Close()
	for vrows.Next() {
		var v models.VolunteerRecord
		if err := vrows.Scan(
			&v.ID, &v.VolunteerID, &v.JoinedAt, &v.HoursWorked, &v.Rating, &v.Feedback, &v.CompletedAt,
		); err != nil {
			return nil, err
		}
		task.Volunteers = append(task.Volunteers, v)
	}
	return task, vrows.Err()
}

// saveChildren upserts the child rows. Applications and roster entries are
// append-only at the SQL level (withdrawn stays as a row), so upsert covers
// both inserts and in-place status changes.
func saveChildren(ctx context.Context, q Queryer, task *models.Task) error {
	for i := range task.Applications {
		a := &task.Applications[i]
		if _, err := q.ExecContext(ctx, `
			INSERT INTO applications (
				id, task_id, volunteer_id, status, message, availability,
				applied_at, approved_at, rejected_at, rejection_reason
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (id) DO UPDATE SET
				status=EXCLUDED.status, approved_at=EXCLUDED.approved_at,
				rejected_at=EXCLUDED.rejected_at, rejection_reason=EXCLUDED.rejection_reason`,
			a.ID, task.ID, a.VolunteerID, a.Status, a.Message, a.Availability,
			a.AppliedAt, a.ApprovedAt, a.RejectedAt, a.RejectionReason,
		); err != nil {
			return err
		}
	}
	for i := range task.Volunteers {
		v := &task.Volunteers[i]
		if _, err := q.ExecContext(ctx, `
			INSERT INTO volunteer_records (
				id, task_id, volunteer_id, joined_at, hours_worked, rating, feedback, completed_at
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (id) DO UPDATE SET
				hours_worked=EXCLUDED.hours_worked, rating=EXCLUDED.rating,
				feedback=EXCLUDED.feedback, completed_at=EXCLUDED.completed_at`,
			v.ID, task.ID, v.VolunteerID, v.JoinedAt, v.HoursWorked, v.Rating, v.Feedback, v.CompletedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	err := row.Scan(
		&task.ID, &task.NGOID, &task.Title, &task.Description, &task.Category,
		&task.Location.Address, &task.Location.City, &task.Location.State, &task.Location.ZipCode,
		&task.Schedule.StartDate, &task.Schedule.EndDate,
		&task.Requirements.VolunteersNeeded, &task.Requirements.Skills,
		&task.Status, &task.IsUrgent, &task.IsFeatured,
		&task.Stats.TotalApplications, &task.Stats.ApprovedApplications,
		&task.Stats.TotalVolunteers, &task.Stats.TotalHours, &task.Stats.AverageRating,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}
