package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helphive/internal/authz"
	"helphive/internal/engine"
	"helphive/internal/models"
	"helphive/internal/repositories"
)

// ---- in-memory fakes ----

type fakeTaskRepo struct {
	tasks map[string]*models.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[string]*models.Task{}}
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	c.Applications = append([]models.Application(nil), t.Applications...)
	c.Volunteers = append([]models.VolunteerRecord(nil), t.Volunteers...)
	return &c
}

func (r *fakeTaskRepo) Store(ctx context.Context, task *models.Task, fn func(q repositories.Queryer) error) error {
	if fn != nil {
		if err := fn(nil); err != nil {
			return err
		}
	}
	r.tasks[task.ID] = cloneTask(task)
	return nil
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, id string) (*models.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, repositories.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (r *fakeTaskRepo) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	var out []models.Task
	for _, t := range r.tasks {
		if filter.NGOID != nil && t.NGOID != *filter.NGOID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.OpenOnly && !engine.IsOpen(t) {
			continue
		}
		out = append(out, *cloneTask(t))
	}
	return out, nil
}

func (r *fakeTaskRepo) Mutate(ctx context.Context, id string, fn func(q repositories.Queryer, t *models.Task) error) (*models.Task, error) {
	stored, ok := r.tasks[id]
	if !ok {
		return nil, repositories.ErrTaskNotFound
	}
	work := cloneTask(stored)
	if err := fn(nil, work); err != nil {
		return nil, err
	}
	r.tasks[id] = cloneTask(work)
	return work, nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id string, fn func(q repositories.Queryer, t *models.Task) error) error {
	stored, ok := r.tasks[id]
	if !ok {
		return repositories.ErrTaskNotFound
	}
	if fn != nil {
		if err := fn(nil, cloneTask(stored)); err != nil {
			return err
		}
	}
	delete(r.tasks, id)
	return nil
}

type fakeNGORepo struct {
	ngos map[string]*models.NGO
}

func newFakeNGORepo() *fakeNGORepo {
	return &fakeNGORepo{ngos: map[string]*models.NGO{}}
}

func (r *fakeNGORepo) Store(ctx context.Context, ngo *models.NGO) error {
	c := *ngo
	r.ngos[ngo.ID] = &c
	return nil
}

func (r *fakeNGORepo) FindByID(ctx context.Context, id string) (*models.NGO, error) {
	n, ok := r.ngos[id]
	if !ok {
		return nil, repositories.ErrNGONotFound
	}
	c := *n
	return &c, nil
}

func (r *fakeNGORepo) FindByOwner(ctx context.Context, ownerUserID string) (*models.NGO, error) {
	for _, n := range r.ngos {
		if n.OwnerUserID == ownerUserID {
			c := *n
			return &c, nil
		}
	}
	return nil, repositories.ErrNGONotFound
}

func (r *fakeNGORepo) FindAll(ctx context.Context) ([]models.NGO, error) {
	var out []models.NGO
	for _, n := range r.ngos {
		out = append(out, *n)
	}
	return out, nil
}

func (r *fakeNGORepo) UpdateVerification(ctx context.Context, id string, status models.NGOVerification) error {
	n, ok := r.ngos[id]
	if !ok {
		return repositories.ErrNGONotFound
	}
	n.Verification = status
	return nil
}

func (r *fakeNGORepo) AddTaskDelta(ctx context.Context, q repositories.Queryer, ngoID string, delta int) error {
	n := r.ngos[ngoID]
	n.Stats.TotalTasks += delta
	if n.Stats.TotalTasks < 0 {
		n.Stats.TotalTasks = 0
	}
	return nil
}

func (r *fakeNGORepo) AddVolunteerDelta(ctx context.Context, q repositories.Queryer, ngoID string, delta int) error {
	n := r.ngos[ngoID]
	n.Stats.TotalVolunteers += delta
	if n.Stats.TotalVolunteers < 0 {
		n.Stats.TotalVolunteers = 0
	}
	return nil
}

func (r *fakeNGORepo) IncrementCompletedTasks(ctx context.Context, q repositories.Queryer, ngoID string) error {
	r.ngos[ngoID].Stats.CompletedTasks++
	return nil
}

func (r *fakeNGORepo) ApplyCompletionDelta(ctx context.Context, q repositories.Queryer, ngoID string, hours float64, rating *int) error {
	n := r.ngos[ngoID]
	n.Stats.TotalHours += hours
	if rating != nil {
		n.Stats.RatingSum += *rating
		n.Stats.RatingCount++
	}
	if n.Stats.RatingCount > 0 {
		n.Stats.AverageRating = float64(n.Stats.RatingSum) / float64(n.Stats.RatingCount)
	}
	return nil
}

type fakeUserRepo struct {
	users     map[string]*models.User
	completed map[string][]models.CompletedTask
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}, completed: map[string][]models.CompletedTask{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByRefresh(ctx context.Context, token string) (*models.User, error) {
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == token {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateRefresh(ctx context.Context, id, token string, expiresAt time.Time) error {
	u := r.users[id]
	u.RefreshToken = &token
	u.RefreshExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) AppendCompletedTask(ctx context.Context, q repositories.Queryer, userID string, rec models.CompletedTask) error {
	r.completed[userID] = append(r.completed[userID], rec)
	if u, ok := r.users[userID]; ok {
		u.TotalHours += rec.HoursWorked
	}
	return nil
}

func (r *fakeUserRepo) ListCompletedTasks(ctx context.Context, userID string) ([]models.CompletedTask, error) {
	return r.completed[userID], nil
}

// ---- fixtures ----

type fixture struct {
	svc   TaskService
	tasks *fakeTaskRepo
	ngos  *fakeNGORepo
	users *fakeUserRepo

	owner     authz.Principal
	volunteer authz.Principal
	admin     authz.Principal
	ngoID     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tasks := newFakeTaskRepo()
	ngos := newFakeNGORepo()
	users := newFakeUserRepo()

	f := &fixture{
		svc:       NewTaskService(tasks, ngos, users),
		tasks:     tasks,
		ngos:      ngos,
		users:     users,
		owner:     authz.Principal{UserID: "owner-1", Role: authz.RoleNGO},
		volunteer: authz.Principal{UserID: "vol-1", Role: authz.RoleVolunteer},
		admin:     authz.Principal{UserID: "admin-1", Role: authz.RoleAdmin},
		ngoID:     "ngo-1",
	}
	require.NoError(t, ngos.Store(context.Background(), &models.NGO{
		ID:           f.ngoID,
		OwnerUserID:  "owner-1",
		Name:         "Helping Hands",
		Verification: models.NGOVerificationApproved,
	}))
	require.NoError(t, users.Create(context.Background(), &models.User{
		ID: "vol-1", Name: "Vera", Email: "vera@example.com", Role: string(authz.RoleVolunteer),
	}))
	return f
}

func validCreateInput(needed int) CreateTaskInput {
	start := time.Now().Add(24 * time.Hour)
	return CreateTaskInput{
		Title:            "River cleanup",
		Description:      "Pick up litter along the river bank",
		Category:         models.CategoryEnvironment,
		Location:         models.Location{City: "Springfield"},
		Schedule:         models.Schedule{StartDate: start, EndDate: start.Add(8 * time.Hour)},
		VolunteersNeeded: needed,
	}
}

func (f *fixture) createTask(t *testing.T, needed int) *models.Task {
	t.Helper()
	task, err := f.svc.Create(context.Background(), f.owner, validCreateInput(needed))
	require.NoError(t, err)
	return task
}

// ---- tests ----

func TestCreateRequiresVerifiedNGO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, authz.Principal{UserID: "nobody", Role: authz.RoleNGO}, validCreateInput(1))
	assert.ErrorIs(t, err, ErrNGOProfileRequired)

	f.ngos.ngos[f.ngoID].Verification = models.NGOVerificationPending
	_, err = f.svc.Create(ctx, f.owner, validCreateInput(1))
	assert.ErrorIs(t, err, ErrNGONotVerified)

	_, err = f.svc.Create(ctx, f.volunteer, validCreateInput(1))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreatePostsActiveAndCountsTask(t *testing.T) {
	f := newFixture(t)

	task := f.createTask(t, 2)
	assert.Equal(t, models.StatusActive, task.Status)
	assert.Equal(t, f.ngoID, task.NGOID)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, 1, f.ngos.ngos[f.ngoID].Stats.TotalTasks)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validCreateInput(0)
	_, err := f.svc.Create(ctx, f.owner, in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "volunteers_needed", verr.Field)

	in = validCreateInput(1)
	in.Title = "  "
	_, err = f.svc.Create(ctx, f.owner, in)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	in = validCreateInput(1)
	in.Schedule.EndDate = in.Schedule.StartDate.Add(-time.Hour)
	_, err = f.svc.Create(ctx, f.owner, in)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "schedule", verr.Field)

	in = validCreateInput(1)
	in.Category = "knitting"
	_, err = f.svc.Create(ctx, f.owner, in)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category", verr.Field)
}

func TestAdminCreateNeedsNGOID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validCreateInput(1)
	_, err := f.svc.Create(ctx, f.admin, in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "ngo_id", verr.Field)

	in.NGOID = f.ngoID
	task, err := f.svc.Create(ctx, f.admin, in)
	require.NoError(t, err)
	assert.Equal(t, f.ngoID, task.NGOID)
}

// Scenario A end to end through the controller.
func TestApplyAndApproveUpToCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, 1)

	updated, err := f.svc.Apply(ctx, f.volunteer, task.ID, ApplyInput{Message: "count me in"})
	require.NoError(t, err)
	require.Len(t, updated.Applications, 1)
	appID := updated.Applications[0].ID

	updated, err = f.svc.Decide(ctx, f.owner, task.ID, appID, models.ApplicationApproved, "")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Stats.ApprovedApplications)
	assert.Equal(t, 1, f.ngos.ngos[f.ngoID].Stats.TotalVolunteers)

	// waiting list still open
	v2 := authz.Principal{UserID: "vol-2", Role: authz.RoleVolunteer}
	updated, err = f.svc.Apply(ctx, v2, task.ID, ApplyInput{})
	require.NoError(t, err)
	secondID := updated.Applications[1].ID

	_, err = f.svc.Decide(ctx, f.owner, task.ID, secondID, models.ApplicationApproved, "")
	assert.ErrorIs(t, err, engine.ErrTaskFull)

	// the failed approval must not have leaked into storage
	stored, err := f.svc.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Stats.ApprovedApplications)
	assert.Equal(t, models.ApplicationPending, stored.Applications[1].Status)
	assert.Equal(t, 1, f.ngos.ngos[f.ngoID].Stats.TotalVolunteers)
}

func TestApplyOnlyForVolunteers(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, 1)

	_, err := f.svc.Apply(context.Background(), f.owner, task.ID, ApplyInput{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDecideForbiddenForStrangers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, 1)

	updated, err := f.svc.Apply(ctx, f.volunteer, task.ID, ApplyInput{})
	require.NoError(t, err)
	appID := updated.Applications[0].ID

	otherNGO := authz.Principal{UserID: "owner-2", Role: authz.RoleNGO}
	require.NoError(t, f.ngos.Store(ctx, &models.NGO{
		ID: "ngo-2", OwnerUserID: "owner-2", Verification: models.NGOVerificationApproved,
	}))

	_, err = f.svc.Decide(ctx, otherNGO, task.ID, appID, models.ApplicationApproved, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Decide(ctx, f.volunteer, task.ID, appID, models.ApplicationApproved, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestWithdrawOnlyByApplicant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, 1)

	updated, err := f.svc.Apply(ctx, f.volunteer, task.ID, ApplyInput{})
	require.NoError(t, err)
	appID := updated.Applications[0].ID

	stranger := authz.Principal{UserID: "vol-9", Role: authz.RoleVolunteer}
	_, err = f.svc.Decide(ctx, stranger, task.ID, appID, models.ApplicationWithdrawn, "")
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err = f.svc.Decide(ctx, f.volunteer, task.ID, appID, models.ApplicationWithdrawn, "")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationWithdrawn, updated.Applications[0].Status)
}

// Scenario C: deleting a task decrements the NGO counter, floored at zero.
func TestDeleteDecrementsNGOTaskCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, 1)
	require.Equal(t, 1, f.ngos.ngos[f.ngoID].Stats.TotalTasks)

	require.NoError(t, f.svc.Delete(ctx, f.owner, task.ID))
	assert.Equal(t, 0, f.ngos.ngos[f.ngoID].Stats.TotalTasks)

	_, err := f.svc.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)

	// floor: a drifted counter never goes negative
	task2 := f.createTask(t, 1)
	f.ngos.ngos[f.ngoID].Stats.TotalTasks = 0
	require.NoError(t, f.svc.Delete(ctx, f.owner, task2.ID))
	assert.Equal(t, 0, f.ngos.ngos[f.ngoID].Stats.TotalTasks)
}

// Scenario D: completion propagates to the user and NGO aggregates, and a
// second completion fails without changing state.
func TestCompleteVolunteerPropagates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, 1)

	updated, err := f.svc.Apply(ctx, f.volunteer, task.ID, ApplyInput{})
	require.NoError(t, err)
	_, err = f.svc.Decide(ctx, f.owner, task.ID, updated.Applications[0].ID, models.ApplicationApproved, "")
	require.NoError(t, err)

	rating := 5
	updated, err = f.svc.CompleteVolunteer(ctx, f.owner, task.ID, "vol-1", CompletionInput{
		HoursWorked: 3, Rating: &rating, Feedback: "excellent",
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, updated.Stats.TotalHours)
	assert.Equal(t, 5.0, updated.Stats.AverageRating)

	user, err := f.users.GetByID(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, user.TotalHours)
	records, _ := f.users.ListCompletedTasks(ctx, "vol-1")
	require.Len(t, records, 1)
	assert.Equal(t, task.ID, records[0].TaskID)
	assert.Equal(t, task.Title, records[0].TaskTitle)

	ngo := f.ngos.ngos[f.ngoID]
	assert.Equal(t, 3.0, ngo.Stats.TotalHours)
	assert.Equal(t, 5.0, ngo.Stats.AverageRating)

	_, err = f.svc.CompleteVolunteer(ctx, f.owner, task.ID, "vol-1", CompletionInput{HoursWorked: 1})
	assert.ErrorIs(t, err, engine.ErrAlreadyCompleted)

	// nothing moved on the failed retry
	user, _ = f.users.GetByID(ctx, "vol-1")
	assert.Equal(t, 3.0, user.TotalHours)
	records, _ = f.users.ListCompletedTasks(ctx, "vol-1")
	assert.Len(t, records, 1)
}

func TestCompleteNonRosterMember(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, 1)

	_, err := f.svc.CompleteVolunteer(context.Background(), f.owner, task.ID, "vol-1", CompletionInput{HoursWorked: 1})
	assert.ErrorIs(t, err, engine.ErrNotARosterMember)
}

func TestStatusChangeToCompletedCountsForNGO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, 1)

	updated, err := f.svc.ChangeStatus(ctx, f.owner, task.ID, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, 1, f.ngos.ngos[f.ngoID].Stats.CompletedTasks)

	_, err = f.svc.ChangeStatus(ctx, f.owner, task.ID, models.StatusActive)
	assert.ErrorIs(t, err, engine.ErrIllegalTransition)
}

func TestUpdateForbiddenForNonOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, 1)

	title := "New title"
	_, err := f.svc.Update(ctx, f.volunteer, task.ID, TaskUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := f.svc.Update(ctx, f.admin, task.ID, TaskUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
}

func TestListOpenOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open := f.createTask(t, 1)
	full := f.createTask(t, 1)

	updated, err := f.svc.Apply(ctx, f.volunteer, full.ID, ApplyInput{})
	require.NoError(t, err)
	_, err = f.svc.Decide(ctx, f.owner, full.ID, updated.Applications[0].ID, models.ApplicationApproved, "")
	require.NoError(t, err)

	tasks, err := f.svc.GetAll(ctx, models.TaskFilter{OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, open.ID, tasks[0].ID)
}
