package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"helphive/internal/models"
	"helphive/internal/pdf"
	"helphive/internal/services"
)

type TaskHandler struct {
	service services.TaskService
	users   services.UserService
	ngos    services.NGOService
	certGen pdf.Generator
}

func NewTaskHandler(service services.TaskService, users services.UserService, ngos services.NGOService, certGen pdf.Generator) *TaskHandler {
	return &TaskHandler{service: service, users: users, ngos: ngos, certGen: certGen}
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	p, ok := principalFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	log.Printf("[task][create] call by userID=%s role=%s", p.UserID, p.Role)

	var req struct {
		NGOID            string              `json:"ngo_id"`
		Title            string              `json:"title" binding:"required"`
		Description      string              `json:"description"`
		Category         models.TaskCategory `json:"category" binding:"required"`
		Location         models.Location     `json:"location"`
		StartDate        string              `json:"start_date" binding:"required"` // RFC3339
		EndDate          string              `json:"end_date" binding:"required"`   // RFC3339
		VolunteersNeeded int                 `json:"volunteers_needed" binding:"required"`
		Skills           []string            `json:"skills"`
		IsUrgent         bool                `json:"is_urgent"`
		IsFeatured       bool                `json:"is_featured"`
		Draft            bool                `json:"draft"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		log.Printf("[task][create][err] invalid start_date=%q: %v", req.StartDate, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date (RFC3339)"})
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		log.Printf("[task][create][err] invalid end_date=%q: %v", req.EndDate, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date (RFC3339)"})
		return
	}

	task, err := h.service.Create(c.Request.Context(), p, services.CreateTaskInput{
		NGOID:            req.NGOID,
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Location:         req.Location,
		Schedule:         models.Schedule{StartDate: start, EndDate: end},
		VolunteersNeeded: req.VolunteersNeeded,
		Skills:           req.Skills,
		IsUrgent:         req.IsUrgent,
		IsFeatured:       req.IsFeatured,
		Draft:            req.Draft,
	})
	if err != nil {
		log.Printf("[task][create][err] %v", err)
		respondError(c, err)
		return
	}
	log.Printf("[task][create][ok] id=%s ngo=%s title=%q", task.ID, task.NGOID, task.Title)
	c.JSON(http.StatusCreated, task)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	task, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[task][getByID][err] id=%s: %v", id, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// GET /tasks
func (h *TaskHandler) GetAll(c *gin.Context) {
	var filter models.TaskFilter
	if v, ok := c.GetQuery("ngo_id"); ok {
		filter.NGOID = &v
	}
	if v, ok := c.GetQuery("status"); ok {
		st := models.TaskStatus(v)
		filter.Status = &st
	}
	if v, ok := c.GetQuery("category"); ok {
		cat := models.TaskCategory(v)
		filter.Category = &cat
	}
	if v, ok := c.GetQuery("open"); ok && v == "true" {
		filter.OpenOnly = true
	}

	tasks, err := h.service.GetAll(c.Request.Context(), filter)
	if err != nil {
		log.Printf("[task][list][err] %v", err)
		respondError(c, err)
		return
	}
	log.Printf("[task][list][ok] count=%d", len(tasks))
	c.JSON(http.StatusOK, tasks)
}

// PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	p, ok := principalFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id := c.Param("id")
	log.Printf("[task][update] call by userID=%s role=%s id=%s", p.UserID, p.Role, id)

	var req struct {
		Title            *string              `json:"title"`
		Description      *string              `json:"description"`
		Category         *models.TaskCategory `json:"category"`
		Location         *models.Location     `json:"location"`
		StartDate        *string              `json:"start_date"` // RFC3339
		EndDate          *string              `json:"end_date"`   // RFC3339
		VolunteersNeeded *int                 `json:"volunteers_needed"`
		Skills           *[]string            `json:"skills"`
		IsUrgent         *bool                `json:"is_urgent"`
		IsFeatured       *bool                `json:"is_featured"`
		Status           *models.TaskStatus   `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][update][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upd := services.TaskUpdate{
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Location:         req.Location,
		VolunteersNeeded: req.VolunteersNeeded,
		Skills:           req.Skills,
		IsUrgent:         req.IsUrgent,
		IsFeatured:       req.IsFeatured,
		Status:           req.Status,
	}
	if req.StartDate != nil || req.EndDate != nil {
		if req.StartDate == nil || req.EndDate == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date and end_date must be updated together"})
			return
		}
		start, err := time.Parse(time.RFC3339, *req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date (RFC3339)"})
			return
		}
		end, err := time.Parse(time.RFC3339, *req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date (RFC3339)"})
			return
		}
		upd.Schedule = &models.Schedule{StartDate: start, EndDate: end}
	}

	task, err := h.service.Update(c.Request.Context(), p, id, upd)
	if err != nil {
		log.Printf("[task][update][err] id=%s: %v", id, err)
		respondError(c, err)
		return
	}
	log.Printf("[task][update][ok] id=%s", id)
	c.JSON(http.StatusOK, task)
}

// POST /tasks/:id/status { "to": "completed" }
func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	p, ok := principalFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id := c.Param("id")
	log.Printf("[task][status] call by userID=%s role=%s id=%s", p.UserID, p.Role, id)

	var body struct {
		To models.TaskStatus `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		log.Printf("[task][status][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.service.ChangeStatus(c.Request.Context(), p, id, body.To)
	if err != nil {
		log.Printf("[task][status][err] id=%s to=%q: %v", id, body.To, err)
		respondError(c, err)
		return
	}
	log.Printf("[task][status][ok] id=%s new=%q", id, body.To)
	c.JSON(http.StatusOK, task)
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	p, ok := principalFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id := c.Param("id")
	log.Printf("[task][delete] call by userID=%s role=%s id=%s", p.UserID, p.Role, id)

	if err := h.service.Delete(c.Request.Context(), p, id); err != nil {
		log.Printf("[task][delete][err] id=%s: %v", id, err)
		respondError(c, err)
		return
	}
	log.Printf("[task][delete][ok] id=%s", id)
	c.Status(http.StatusNoContent)
}

// POST /tasks/:id/applications
func (h *TaskHandler) Apply(c *gin.Context) {
	p, ok := principalFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id := c.Param("id")
	log.Printf("[task][apply] call by userID=%s id=%s", p.UserID, id)

	var req struct {
		Message      string              `json:"message"`
		Availability models.Availability `json:"availability"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][apply][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.service.Apply(c.Request.Context(), p, id, services.ApplyInput{
		Message:      req.Message,
		Availability: req.Availability,
	})
	if err != nil {
		log.Printf("[task][apply][err] id=%s volunteer=%s: %v", id, p.UserID, err)
		respondError(c, err)
		return
	}
	log.Printf("[task][apply][ok] id=%s volunteer=%s total=%d", id, p.UserID, task.Stats.TotalApplications)
	c.JSON(http.StatusCreated, task)
}

// POST /tasks/:id/applications/:application_id/decision
// { "decision": "approved" | "rejected" | "withdrawn", "rejection_reason": "..." }
func (h *TaskHandler) Decide(c *gin.Context) {
	p, ok := principalFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id := c.Param("id")
	appID := c.Param("application_id")
	log.Printf("[task][decide] call by userID=%s role=%s id=%s application=%s", p.UserID, p.Role, id, appID)

	var body struct {
		Decision        models.ApplicationStatus `json:"decision" binding:"required"`
		RejectionReason string                   `json:"rejection_reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		log.Printf("[task][decide][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.service.Decide(c.Request.Context(), p, id, appID, body.Decision, body.RejectionReason)
	if err != nil {
		log.Printf("[task][decide][err] id=%s application=%s decision=%q: %v", id, appID, body.Decision, err)
		respondError(c, err)
		return
	}
	log.Printf("[task][decide][ok] id=%s application=%s decision=%q approved=%d", id, appID, body.Decision, task.Stats.ApprovedApplications)
	c.JSON(http.StatusOK, task)
}

// POST /tasks/:id/volunteers/:volunteer_id/complete
// { "hours_worked": 3, "rating": 5, "feedback": "..." }
func (h *TaskHandler) CompleteVolunteer(c *gin.Context) {
	p, ok := principalFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id := c.Param("id")
	volunteerID := c.Param("volunteer_id")
	log.Printf("[task][complete] call by userID=%s role=%s id=%s volunteer=%s", p.UserID, p.Role, id, volunteerID)

	var body struct {
		HoursWorked float64 `json:"hours_worked"`
		Rating      *int    `json:"rating"`
		Feedback    string  `json:"feedback"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		log.Printf("[task][complete][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.service.CompleteVolunteer(c.Request.Context(), p, id, volunteerID, services.CompletionInput{
		HoursWorked: body.HoursWorked,
		Rating:      body.Rating,
		Feedback:    body.Feedback,
	})
	if err != nil {
		log.Printf("[task][complete][err] id=%s volunteer=%s: %v", id, volunteerID, err)
		respondError(c, err)
		return
	}
	log.Printf("[task][complete][ok] id=%s volunteer=%s hours=%.1f", id, volunteerID, body.HoursWorked)
	c.JSON(http.StatusOK, task)
}

// GET /tasks/:id/volunteers/:volunteer_id/certificate
// PDF certificate for a completed roster entry. The volunteer themself, the
// owning NGO and admins may download it.
func (h *TaskHandler) Certificate(c *gin.Context) {
	p, ok := principalFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id := c.Param("id")
	volunteerID := c.Param("volunteer_id")
	log.Printf("[task][certificate] call by userID=%s id=%s volunteer=%s", p.UserID, id, volunteerID)

	task, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	rec := task.VolunteerRecordFor(volunteerID)
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "volunteer is not on the task roster"})
		return
	}
	if rec.CompletedAt == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "participation is not completed yet"})
		return
	}

	if !p.IsAdmin() && p.UserID != volunteerID {
		ngo, err := h.ngos.GetByID(c.Request.Context(), task.NGOID)
		if err != nil || ngo.OwnerUserID != p.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
	}

	volunteer, err := h.users.GetByID(c.Request.Context(), volunteerID)
	if err != nil {
		respondError(c, err)
		return
	}
	ngo, err := h.ngos.GetByID(c.Request.Context(), task.NGOID)
	if err != nil {
		respondError(c, err)
		return
	}

	path, err := h.certGen.GenerateCertificate(pdf.CertificateData{
		VolunteerName: volunteer.Name,
		TaskTitle:     task.Title,
		NGOName:       ngo.Name,
		HoursWorked:   rec.HoursWorked,
		CompletedAt:   *rec.CompletedAt,
	})
	if err != nil {
		log.Printf("[task][certificate][err] generate id=%s volunteer=%s: %v", id, volunteerID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate certificate"})
		return
	}
	log.Printf("[task][certificate][ok] id=%s volunteer=%s file=%s", id, volunteerID, path)
	c.FileAttachment(path, "certificate.pdf")
}
