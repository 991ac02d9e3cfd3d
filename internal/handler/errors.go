package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/meeting-service/internal/errs"
)

// respondError maps domain sentinel errors to HTTP codes. State errors get
// 409 so clients know not to retry; capability failures get 502 and are
// retryable.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrMeetingNotFound),
		errors.Is(err, errs.ErrUserNotFound),
		errors.Is(err, errs.ErrTaskNotFound),
		errors.Is(err, errs.ErrTranscriptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, errs.ErrSessionActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrCapability):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// idParam parses a uint path parameter; responds 400 and returns false on
// malformed input.
func idParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}
