package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helphive/internal/authz"
	"helphive/internal/engine"
	"helphive/internal/models"
	"helphive/internal/repositories"
	"helphive/internal/services"
)

// stubTaskService fails every mutating call with a fixed error so the
// handler's status mapping can be checked in isolation.
type stubTaskService struct {
	err  error
	task *models.Task
}

func (s *stubTaskService) Create(ctx context.Context, p authz.Principal, in services.CreateTaskInput) (*models.Task, error) {
	return s.result()
}

func (s *stubTaskService) GetByID(ctx context.Context, id string) (*models.Task, error) {
	return s.result()
}

func (s *stubTaskService) GetAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []models.Task{*s.task}, nil
}

func (s *stubTaskService) Update(ctx context.Context, p authz.Principal, id string, upd services.TaskUpdate) (*models.Task, error) {
	return s.result()
}

func (s *stubTaskService) ChangeStatus(ctx context.Context, p authz.Principal, id string, to models.TaskStatus) (*models.Task, error) {
	return s.result()
}

func (s *stubTaskService) Delete(ctx context.Context, p authz.Principal, id string) error {
	return s.err
}

func (s *stubTaskService) Apply(ctx context.Context, p authz.Principal, taskID string, in services.ApplyInput) (*models.Task, error) {
	return s.result()
}

func (s *stubTaskService) Decide(ctx context.Context, p authz.Principal, taskID, applicationID string, decision models.ApplicationStatus, rejectionReason string) (*models.Task, error) {
	return s.result()
}

func (s *stubTaskService) CompleteVolunteer(ctx context.Context, p authz.Principal, taskID, volunteerID string, in services.CompletionInput) (*models.Task, error) {
	return s.result()
}

func (s *stubTaskService) result() (*models.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.task, nil
}

func newTestRouter(svc services.TaskService, role authz.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Set("role", string(role))
	})
	h := NewTaskHandler(svc, nil, nil, nil)
	r.POST("/tasks/:id/applications", h.Apply)
	r.POST("/tasks/:id/applications/:application_id/decision", h.Decide)
	r.POST("/tasks/:id/status", h.ChangeStatus)
	r.GET("/tasks/:id", h.GetByID)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{engine.ErrTaskFull, http.StatusConflict},
		{engine.ErrDuplicateApplication, http.StatusConflict},
		{engine.ErrTaskNotAccepting, http.StatusConflict},
		{engine.ErrAlreadyCompleted, http.StatusConflict},
		{engine.ErrApplicationDecided, http.StatusConflict},
		{engine.ErrIllegalTransition, http.StatusConflict},
		{services.ErrNGOProfileExists, http.StatusConflict},
		{engine.ErrRejectionReasonNeeded, http.StatusBadRequest},
		{engine.ErrInvalidRating, http.StatusBadRequest},
		{engine.ErrNegativeHours, http.StatusBadRequest},
		{&services.ValidationError{Field: "title", Msg: "required"}, http.StatusBadRequest},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrNGONotVerified, http.StatusForbidden},
		{repositories.ErrTaskNotFound, http.StatusNotFound},
		{engine.ErrApplicationNotFound, http.StatusNotFound},
		{engine.ErrNotARosterMember, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusForError(tc.err), "error %v", tc.err)
	}
}

func TestApplyMapsTaskFullConflict(t *testing.T) {
	r := newTestRouter(&stubTaskService{err: engine.ErrTaskNotAccepting}, authz.RoleVolunteer)

	w := doJSON(t, r, http.MethodPost, "/tasks/t1/applications", gin.H{"message": "hi"})

	assert.Equal(t, http.StatusConflict, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, engine.ErrTaskNotAccepting.Error(), body["error"])
}

func TestDecideMapsApproveFull(t *testing.T) {
	r := newTestRouter(&stubTaskService{err: engine.ErrTaskFull}, authz.RoleNGO)

	w := doJSON(t, r, http.MethodPost, "/tasks/t1/applications/a1/decision",
		gin.H{"decision": "approved"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestChangeStatusMapsIllegalTransition(t *testing.T) {
	r := newTestRouter(&stubTaskService{err: engine.ErrIllegalTransition}, authz.RoleNGO)

	w := doJSON(t, r, http.MethodPost, "/tasks/t1/status", gin.H{"to": "active"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetByIDNotFound(t *testing.T) {
	r := newTestRouter(&stubTaskService{err: repositories.ErrTaskNotFound}, authz.RoleVolunteer)

	req := httptest.NewRequest(http.MethodGet, "/tasks/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInternalErrorIsOpaque(t *testing.T) {
	r := newTestRouter(&stubTaskService{err: context.DeadlineExceeded}, authz.RoleVolunteer)

	w := doJSON(t, r, http.MethodPost, "/tasks/t1/applications", gin.H{})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body["error"])
}

func TestApplyHappyPath(t *testing.T) {
	task := &models.Task{ID: "t1", Status: models.StatusActive}
	task.Stats.TotalApplications = 1
	r := newTestRouter(&stubTaskService{task: task}, authz.RoleVolunteer)

	w := doJSON(t, r, http.MethodPost, "/tasks/t1/applications", gin.H{"message": "hi"})

	assert.Equal(t, http.StatusCreated, w.Code)
	var got models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "t1", got.ID)
}
