package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"helphive/internal/authz"
	"helphive/internal/engine"
	"helphive/internal/repositories"
	"helphive/internal/services"
)

func principalFromCtx(c *gin.Context) (authz.Principal, bool) {
	idV, ok := c.Get("user_id")
	if !ok {
		return authz.Principal{}, false
	}
	roleV, ok := c.Get("role")
	if !ok {
		return authz.Principal{}, false
	}
	id, _ := idV.(string)
	role, _ := roleV.(string)
	if id == "" || !authz.IsValidRole(authz.Role(role)) {
		return authz.Principal{}, false
	}
	return authz.Principal{UserID: id, Role: authz.Role(role)}, true
}

// statusForError maps engine/service/repository errors to HTTP statuses.
// Matching is on error identity, never on message text.
func statusForError(err error) int {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, engine.ErrInvalidDecision),
		errors.Is(err, engine.ErrRejectionReasonNeeded),
		errors.Is(err, engine.ErrInvalidRating),
		errors.Is(err, engine.ErrNegativeHours):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrNGONotVerified),
		errors.Is(err, services.ErrNGOProfileRequired):
		return http.StatusForbidden
	case errors.Is(err, repositories.ErrTaskNotFound),
		errors.Is(err, repositories.ErrNGONotFound),
		errors.Is(err, repositories.ErrUserNotFound),
		errors.Is(err, engine.ErrApplicationNotFound),
		errors.Is(err, engine.ErrNotARosterMember):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrDuplicateApplication),
		errors.Is(err, engine.ErrTaskNotAccepting),
		errors.Is(err, engine.ErrTaskFull),
		errors.Is(err, engine.ErrAlreadyCompleted),
		errors.Is(err, engine.ErrApplicationDecided),
		errors.Is(err, engine.ErrIllegalTransition),
		errors.Is(err, services.ErrNGOProfileExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the mapped status. Internal failures get a generic
// message so storage details never leak to callers.
func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.JSON(status, gin.H{"error": verr.Msg, "field": verr.Field})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
