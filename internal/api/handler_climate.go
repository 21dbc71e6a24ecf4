package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wheel-rotation-backend/internal/climate"
	"wheel-rotation-backend/internal/model"
	"wheel-rotation-backend/internal/parse"
	"wheel-rotation-backend/internal/wheel"
)

type addReadingRequest struct {
	Location    string   `json:"location" binding:"required,notblank"`
	RecordedAt  string   `json:"recordedAt"`
	Temperature *float64 `json:"temperature" binding:"required"`
	Humidity    *float64 `json:"humidity" binding:"required,gte=0,lte=100"`
}

type addReadingResponse struct {
	Reading    model.ClimateReading `json:"reading"`
	Violations []climate.Violation  `json:"violations"`
}

// AddClimateReading handles POST /api/climate/readings.
func (h *Handler) AddClimateReading(c *gin.Context) {
	var req addReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	recordedAt := h.wheels.Now()
	if req.RecordedAt != "" {
		t, err := parse.Date(req.RecordedAt)
		if err != nil {
			verr := &wheel.ValidationError{}
			verr.Add("recordedAt", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
			h.respondError(c, verr, "invalid request")
			return
		}
		recordedAt = t
	}

	reading := model.ClimateReading{
		Location:    parse.Text(req.Location),
		RecordedAt:  recordedAt,
		Temperature: *req.Temperature,
		Humidity:    *req.Humidity,
	}
	if err := h.store.AddClimateReading(c.Request.Context(), &reading); err != nil {
		h.respondError(c, err, "failed to save")
		return
	}

	violations := h.climate.Thresholds.Evaluate(reading)
	if violations == nil {
		violations = []climate.Violation{}
	}
	c.JSON(http.StatusCreated, addReadingResponse{Reading: reading, Violations: violations})
}

// GetClimateSummary handles GET /api/climate/summary?location=.
func (h *Handler) GetClimateSummary(c *gin.Context) {
	location := parse.Text(c.Query("location"))
	if location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location is required"})
		return
	}

	now := h.wheels.Now()
	readings, err := h.store.ClimateReadings(c.Request.Context(), location, h.climate.Since(now), h.climate.MaxSamples)
	if err != nil {
		h.respondError(c, err, "internal error")
		return
	}

	c.JSON(http.StatusOK, h.climate.Summarize(location, readings, now))
}
