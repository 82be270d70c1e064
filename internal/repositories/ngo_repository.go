package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"helphive/internal/models"
)

type NGORepository interface {
	Store(ctx context.Context, ngo *models.NGO) error
	FindByID(ctx context.Context, id string) (*models.NGO, error)
	FindByOwner(ctx context.Context, ownerUserID string) (*models.NGO, error)
	FindAll(ctx context.Context) ([]models.NGO, error)
	UpdateVerification(ctx context.Context, id string, status models.NGOVerification) error

	// Stat deltas. These take a Queryer so task mutations can issue them
	// inside the task transaction.
	AddTaskDelta(ctx context.Context, q Queryer, ngoID string, delta int) error
	AddVolunteerDelta(ctx context.Context, q Queryer, ngoID string, delta int) error
	IncrementCompletedTasks(ctx context.Context, q Queryer, ngoID string) error
	ApplyCompletionDelta(ctx context.Context, q Queryer, ngoID string, hours float64, rating *int) error
}

type ngoRepository struct {
	db *sql.DB
}

func NewNGORepository(db *sql.DB) NGORepository {
	return &ngoRepository{db: db}
}

var ErrNGONotFound = fmt.Errorf("ngo not found")

const ngoColumns = `id, owner_user_id, name, description, website, verification,
       total_tasks, completed_tasks, total_volunteers, total_hours,
       rating_sum, rating_count, average_rating, created_at`

func (r *ngoRepository) Store(ctx context.Context, ngo *models.NGO) error {
	query := `
		INSERT INTO ngos (
			id, owner_user_id, name, description, website, verification,
			total_tasks, completed_tasks, total_volunteers, total_hours,
			rating_sum, rating_count, average_rating, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err := r.db.ExecContext(ctx, query,
		ngo.ID, ngo.OwnerUserID, ngo.Name, ngo.Description, ngo.Website, ngo.Verification,
		ngo.Stats.TotalTasks, ngo.Stats.CompletedTasks, ngo.Stats.TotalVolunteers, ngo.Stats.TotalHours,
		ngo.Stats.RatingSum, ngo.Stats.RatingCount, ngo.Stats.AverageRating, ngo.CreatedAt,
	)
	return err
}

func (r *ngoRepository) FindByID(ctx context.Context, id string) (*models.NGO, error) {
	return r.findOne(ctx, `SELECT `+ngoColumns+` FROM ngos WHERE id = $1`, id)
}

func (r *ngoRepository) FindByOwner(ctx context.Context, ownerUserID string) (*models.NGO, error) {
	return r.findOne(ctx, `SELECT `+ngoColumns+` FROM ngos WHERE owner_user_id = $1`, ownerUserID)
}

func (r *ngoRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.NGO, error) {
	ngo := &models.NGO{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&ngo.ID, &ngo.OwnerUserID, &ngo.Name, &ngo.Description, &ngo.Website, &ngo.Verification,
		&ngo.Stats.TotalTasks, &ngo.Stats.CompletedTasks, &ngo.Stats.TotalVolunteers, &ngo.Stats.TotalHours,
		&ngo.Stats.RatingSum, &ngo.Stats.RatingCount, &ngo.Stats.AverageRating, &ngo.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNGONotFound
		}
		return nil, err
	}
	return ngo, nil
}

func (r *ngoRepository) FindAll(ctx context.Context) ([]models.NGO, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+ngoColumns+` FROM ngos ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ngos []models.NGO
	for rows.Next() {
		var n models.NGO
		if err := rows.Scan(
			&n.ID, &n.OwnerUserID, &n.Name, &n.Description, &n.Website, &n.Verification,
			&n.Stats.TotalTasks, &n.Stats.CompletedTasks, &n.Stats.TotalVolunteers, &n.Stats.TotalHours,
			&n.Stats.RatingSum, &n.Stats.RatingCount, &n.Stats.AverageRating, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		ngos = append(ngos, n)
	}
	return ngos, rows.Err()
}

func (r *ngoRepository) UpdateVerification(ctx context.Context, id string, status models.NGOVerification) error {
	res, err := r.db.ExecContext(ctx, `UPDATE ngos SET verification=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNGONotFound
	}
	return nil
}

func (r *ngoRepository) AddTaskDelta(ctx context.Context, q Queryer, ngoID string, delta int) error {
	// GREATEST floors the counter at zero on decrement
	_, err := q.ExecContext(ctx,
		`UPDATE ngos SET total_tasks = GREATEST(total_tasks + $1, 0) WHERE id = $2`, delta, ngoID)
	return err
}

func (r *ngoRepository) AddVolunteerDelta(ctx context.Context, q Queryer, ngoID string, delta int) error {
	_, err := q.ExecContext(ctx,
		`UPDATE ngos SET total_volunteers = GREATEST(total_volunteers + $1, 0) WHERE id = $2`, delta, ngoID)
	return err
}

func (r *ngoRepository) IncrementCompletedTasks(ctx context.Context, q Queryer, ngoID string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE ngos SET completed_tasks = completed_tasks + 1 WHERE id = $1`, ngoID)
	return err
}

// ApplyCompletionDelta folds one volunteer completion into the NGO aggregate:
// hours always, rating when present. average_rating is derived from the
// sum/count columns in the same statement.
func (r *ngoRepository) ApplyCompletionDelta(ctx context.Context, q Queryer, ngoID string, hours float64, rating *int) error {
	ratingDelta := 0
	countDelta := 0
	if rating != nil {
		ratingDelta = *rating
		countDelta = 1
	}
	_, err := q.ExecContext(ctx, `
		UPDATE ngos SET
			total_hours = total_hours + $1,
			rating_sum = rating_sum + $2,
			rating_count = rating_count + $3,
			average_rating = CASE WHEN rating_count + $3 > 0
				THEN (rating_sum + $2)::float / (rating_count + $3)
				ELSE 0 END
		WHERE id = $4`,
		hours, ratingDelta, countDelta, ngoID)
	return err
}
