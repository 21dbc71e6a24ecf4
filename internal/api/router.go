package api

import (
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"wheel-rotation-backend/config"
	"wheel-rotation-backend/internal/mw"
	"wheel-rotation-backend/internal/permission"
)

// NewRouter creates the gin engine serving the /api routes.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery(), mw.AccessLog(h.log))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Every wheel and climate write through this middleware flushes the
	// shared cache. A zero TTL disables caching.
	var caching gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if ttl := cfg.CacheTTL(); ttl > 0 {
		caching = mw.Cache(cache.New(ttl, 2*ttl), ttl)
	}

	require := func(name string) gin.HandlerFunc {
		return mw.RequireCapability(h.store, h.log, cfg.RequirePermissions, name)
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		wheels := api.Group("/wheel-rotation", caching)
		wheels.GET("", h.ListWheels)
		wheels.POST("", require(permission.WriteWheels), h.CreateWheel)
		wheels.GET("/:id", h.GetWheel)
		wheels.GET("/:id/history", h.GetWheelHistory)
		wheels.POST("/:id/rotate", require(permission.WriteWheels), h.RotateWheel)
		wheels.DELETE("/:id", require(permission.DeleteWheels), h.DeleteWheel)

		api.GET("/exports/wheel-rotation.xlsx", require(permission.ExportWheels), caching, h.ExportWheels)

		climateGroup := api.Group("/climate", caching)
		climateGroup.POST("/readings", h.AddClimateReading)
		climateGroup.GET("/summary", h.GetClimateSummary)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)

		api.GET("/users/:user_id/permissions", h.GetPermissions)
		api.PUT("/users/:user_id/permissions", require(permission.ManagePermissions), h.PutPermissions)
	}

	return r
}
