package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"helphive/internal/models"
	"helphive/internal/services"
)

type NGOHandler struct {
	service services.NGOService
}

func NewNGOHandler(service services.NGOService) *NGOHandler {
	return &NGOHandler{service: service}
}

// POST /ngos
func (h *NGOHandler) Create(c *gin.Context) {
	p, ok := principalFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	log.Printf("[ngo][create] call by userID=%s", p.UserID)

	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Website     string `json:"website"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[ngo][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ngo, err := h.service.Create(c.Request.Context(), p.UserID, req.Name, req.Description, req.Website)
	if err != nil {
		log.Printf("[ngo][create][err] owner=%s: %v", p.UserID, err)
		respondError(c, err)
		return
	}
	log.Printf("[ngo][create][ok] id=%s owner=%s", ngo.ID, p.UserID)
	c.JSON(http.StatusCreated, ngo)
}

// GET /ngos
func (h *NGOHandler) List(c *gin.Context) {
	ngos, err := h.service.List(c.Request.Context())
	if err != nil {
		log.Printf("[ngo][list][err] %v", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ngos)
}

// GET /ngos/:id
func (h *NGOHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	ngo, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[ngo][getByID][err] id=%s: %v", id, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ngo)
}

// GET /ngos/me
func (h *NGOHandler) Mine(c *gin.Context) {
	p, ok := principalFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ngo, err := h.service.GetByOwner(c.Request.Context(), p.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ngo)
}

// POST /ngos/:id/verification { "status": "approved" | "rejected" }
// Admin-only status flip; approved NGOs may post tasks.
func (h *NGOHandler) SetVerification(c *gin.Context) {
	p, ok := principalFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id := c.Param("id")
	log.Printf("[ngo][verification] call by userID=%s role=%s id=%s", p.UserID, p.Role, id)

	var body struct {
		Status models.NGOVerification `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		log.Printf("[ngo][verification][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ngo, err := h.service.SetVerification(c.Request.Context(), id, body.Status)
	if err != nil {
		log.Printf("[ngo][verification][err] id=%s status=%q: %v", id, body.Status, err)
		respondError(c, err)
		return
	}
	log.Printf("[ngo][verification][ok] id=%s status=%q", id, body.Status)
	c.JSON(http.StatusOK, ngo)
}
