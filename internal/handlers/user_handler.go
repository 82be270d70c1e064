package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"helphive/internal/authz"
	"helphive/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// @Summary      Register
// @Description  Creates a volunteer or ngo account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      201  {object}  models.User
// @Failure      400  {object}  map[string]string
// @Router       /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[user][register][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Name, req.Email, req.Password, authz.Role(req.Role))
	if err != nil {
		log.Printf("[user][register][err] email=%q: %v", req.Email, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[user][register][ok] id=%s role=%s", user.ID, user.Role)
	c.JSON(http.StatusCreated, user)
}

// GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	p, ok := principalFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), p.UserID)
	if err != nil {
		log.Printf("[user][me][err] id=%s: %v", p.UserID, err)
		respondError(c, err)
		return
	}
	completed, err := h.service.CompletedTasks(c.Request.Context(), p.UserID)
	if err != nil {
		log.Printf("[user][me][err] completed tasks id=%s: %v", p.UserID, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":            user,
		"completed_tasks": completed,
	})
}
