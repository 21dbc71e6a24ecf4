package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wheel-rotation-backend/internal/permission"
	"wheel-rotation-backend/internal/wheel"
)

type permissionsResponse struct {
	UserID       string                  `json:"userId"`
	Capabilities permission.Capabilities `json:"capabilities"`
}

type putPermissionsRequest struct {
	Capabilities map[string]bool `json:"capabilities" binding:"required"`
}

// GetPermissions returns the effective capability set of a user.
func (h *Handler) GetPermissions(c *gin.Context) {
	userID := c.Param("user_id")
	caps, err := permission.Resolve(c.Request.Context(), h.store, userID)
	if err != nil {
		h.respondError(c, err, "internal error")
		return
	}
	c.JSON(http.StatusOK, permissionsResponse{UserID: userID, Capabilities: caps})
}

// PutPermissions stores capability overrides for a user and returns the
// resulting capability set.
func (h *Handler) PutPermissions(c *gin.Context) {
	var req putPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	if err := permission.Validate(req.Capabilities); err != nil {
		verr := &wheel.ValidationError{}
		verr.Add("capabilities", err.Error())
		h.respondError(c, verr, "invalid request")
		return
	}

	userID := c.Param("user_id")
	if err := h.store.SetPermissions(c.Request.Context(), userID, req.Capabilities); err != nil {
		h.respondError(c, err, "failed to save")
		return
	}

	h.GetPermissions(c)
}
