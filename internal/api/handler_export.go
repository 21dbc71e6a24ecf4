package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wheel-rotation-backend/internal/export"
)

// ExportWheels handles GET /api/exports/wheel-rotation.xlsx. It accepts the
// same filters as the list.
func (h *Handler) ExportWheels(c *gin.Context) {
	wheels, err := h.wheels.List(c.Request.Context(), wheelFilter(c))
	if err != nil {
		h.respondError(c, err, "internal error")
		return
	}

	data, err := export.WheelsXLSX(wheels, h.wheels.Now(), h.horizon)
	if err != nil {
		h.respondError(c, err, "failed to export")
		return
	}

	h.limitCache(c, wheels...)
	c.Header("Content-Disposition", "attachment; filename=wheel-rotation.xlsx")
	c.Data(http.StatusOK, export.ContentType, data)
}
