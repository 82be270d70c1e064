package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"helphive/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateRefresh(ctx context.Context, id, token string, expiresAt time.Time) error
	GetByRefresh(ctx context.Context, token string) (*models.User, error)

	// AppendCompletedTask records one completion in the volunteer's personal
	// history and adds the hours to their running total. Takes a Queryer so
	// the write shares the task mutation's transaction.
	AppendCompletedTask(ctx context.Context, q Queryer, userID string, rec models.CompletedTask) error
	ListCompletedTasks(ctx context.Context, userID string) ([]models.CompletedTask, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

var ErrUserNotFound = fmt.Errorf("user not found")

const userColumns = `id, name, email, password_hash, role, total_hours,
       refresh_token, refresh_expires_at, created_at`

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, total_hours, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.TotalHours, user.CreatedAt,
	)
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *userRepository) GetByRefresh(ctx context.Context, token string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE refresh_token = $1`, token)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.TotalHours,
		&user.RefreshToken, &user.RefreshExpiresAt, &user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) UpdateRefresh(ctx context.Context, id, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token=$1, refresh_expires_at=$2 WHERE id=$3`,
		token, expiresAt, id)
	return err
}

func (r *userRepository) AppendCompletedTask(ctx context.Context, q Queryer, userID string, rec models.CompletedTask) error {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO user_completed_tasks (user_id, task_id, task_title, hours_worked, rating, feedback, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		userID, rec.TaskID, rec.TaskTitle, rec.HoursWorked, rec.Rating, rec.Feedback, rec.CompletedAt,
	); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx,
		`UPDATE users SET total_hours = total_hours + $1 WHERE id = $2`,
		rec.HoursWorked, userID)
	return err
}

func (r *userRepository) ListCompletedTasks(ctx context.Context, userID string) ([]models.CompletedTask, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT task_id, task_title, hours_worked, rating, feedback, completed_at
		FROM user_completed_tasks WHERE user_id = $1 ORDER BY completed_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CompletedTask
	for rows.Next() {
		var rec models.CompletedTask
		if err := rows.Scan(
			&rec.TaskID, &rec.TaskTitle, &rec.HoursWorked, &rec.Rating, &rec.Feedback, &rec.CompletedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
