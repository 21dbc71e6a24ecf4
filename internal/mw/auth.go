package mw

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wheel-rotation-backend/internal/permission"
	"wheel-rotation-backend/internal/store"
)

// UserHeader carries the user identifier set by the upstream auth layer.
const UserHeader = "X-User-Id"

const capabilitiesKey = "capabilities"

// RequireCapability aborts with 401 when no user is identified and 403 when
// the user's capability set does not grant name. When enabled is false every
// request passes.
func RequireCapability(perms store.PermissionStore, log *zap.Logger, enabled bool, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		userID := c.GetHeader(UserHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + UserHeader + " header"})
			return
		}

		caps, err := permission.Resolve(c.Request.Context(), perms, userID)
		if err != nil {
			log.Error("failed to resolve permissions", zap.String("user_id", userID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !caps.Allows(name) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing capability " + name})
			return
		}

		c.Set(capabilitiesKey, caps)
		c.Next()
	}
}
