package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homeservices-marketplace/internal/services"
)

// statusFor maps a service error to its HTTP status. Anything unclassified
// is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": ...}. Classified errors carry their own
// message; internal ones are logged and replaced by fallback.
func respondError(c *gin.Context, log *zap.Logger, err error, fallback string) {
	respondErrorStatus(c, log, statusFor(err), err, fallback)
}

func respondErrorStatus(c *gin.Context, log *zap.Logger, status int, err error, fallback string) {
	if status >= http.StatusInternalServerError {
		log.Error(fallback,
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": services.Message(err, fallback)})
}
