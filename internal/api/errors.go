package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"wheel-rotation-backend/internal/store"
	"wheel-rotation-backend/internal/wheel"
)

// respondError writes err as a JSON error body. Unknown errors are logged
// and answered with fallback as a 500.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	var verr *wheel.ValidationError
	var bindErrs validator.ValidationErrors

	switch {
	case errors.As(err, &verr):
		fields := make(map[string]string, len(verr.Fields))
		for _, f := range verr.Fields {
			fields[f.Field] = f.Message
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
	case errors.As(err, &bindErrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fieldMessages(bindErrs)})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "wheel was modified concurrently, retry"})
	default:
		h.log.Error(fallback,
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// bindError answers a failed ShouldBindJSON.
func (h *Handler) bindError(c *gin.Context, err error) {
	var bindErrs validator.ValidationErrors
	if errors.As(err, &bindErrs) {
		h.respondError(c, err, "invalid request")
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}
