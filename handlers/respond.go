package handlers

import (
	"RetinaCare/clinicerrors"
	"RetinaCare/middlewares"
	"RetinaCare/services"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// actorFromContext builds the explicit caller context from the verified
// token claims the auth middleware stored. Handlers abort with 401 when the
// claims are missing, which only happens on routes wired without the
// middleware.
func actorFromContext(c *gin.Context) (services.Actor, bool) {
	ctx := c.Request.Context()
	userID, err := middlewares.ExtractUserIDFromContext(ctx)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing caller identity"})
		return services.Actor{}, false
	}
	role, err := middlewares.ExtractUserRoleFromContext(ctx)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing caller role"})
		return services.Actor{}, false
	}
	return services.Actor{UserID: userID, Role: role}, true
}

// statusForError maps the core's typed error kinds onto HTTP statuses. The
// mapping is deterministic so API clients can branch on status alone.
func statusForError(err error) int {
	switch {
	case errors.Is(err, clinicerrors.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, clinicerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, clinicerrors.ErrInvalidStateTransition),
		errors.Is(err, clinicerrors.ErrInsufficientStock),
		errors.Is(err, clinicerrors.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, clinicerrors.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
