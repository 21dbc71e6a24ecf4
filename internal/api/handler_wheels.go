package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wheel-rotation-backend/internal/model"
	"wheel-rotation-backend/internal/mw"
	"wheel-rotation-backend/internal/parse"
	"wheel-rotation-backend/internal/schedule"
	"wheel-rotation-backend/internal/store"
	"wheel-rotation-backend/internal/wheel"
)

// WheelResponse is a wheel with its derived due status.
type WheelResponse struct {
	model.WheelRotation
	Status schedule.DueStatus `json:"status"`
}

// WheelDetailResponse always carries the history, even when empty.
type WheelDetailResponse struct {
	WheelResponse
	RotationHistory []model.RotationHistory `json:"rotationHistory"`
}

type createWheelRequest struct {
	ArrivalDate       string `json:"arrivalDate" binding:"required,notblank"`
	Station           string `json:"station" binding:"required,notblank"`
	Airline           string `json:"airline" binding:"required,notblank"`
	WheelPartNumber   string `json:"wheelPartNumber" binding:"required,notblank"`
	WheelSerialNumber string `json:"wheelSerialNumber" binding:"required,notblank"`
	RotationFrequency string `json:"rotationFrequency" binding:"required,cadence"`
	Notes             string `json:"notes"`
}

type rotateWheelRequest struct {
	NewPosition json.RawMessage `json:"newPosition"`
	Notes       string          `json:"notes"`
	PerformedBy string          `json:"performedBy"`
}

func (h *Handler) wheelResponse(w model.WheelRotation) WheelResponse {
	return WheelResponse{
		WheelRotation: w,
		Status:        schedule.Status(w.NextRotationDue, h.wheels.Now(), h.horizon),
	}
}

// limitCache keeps a cached response from outliving the next due status
// change of any wheel in it.
func (h *Handler) limitCache(c *gin.Context, wheels ...model.WheelRotation) {
	now := h.wheels.Now()
	for _, w := range wheels {
		if at, ok := schedule.NextChange(w.NextRotationDue, now, h.horizon); ok {
			mw.LimitCacheTTL(c, at.Sub(now))
		}
	}
}

func (h *Handler) wheelError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "wheel not found"})
		return
	}
	h.respondError(c, err, fallback)
}

func wheelFilter(c *gin.Context) store.WheelFilter {
	active, _ := strconv.ParseBool(c.Query("active"))
	return store.WheelFilter{
		Station:    parse.Text(c.Query("station")),
		Airline:    parse.Text(c.Query("airline")),
		ActiveOnly: active,
	}
}

// ListWheels handles GET /api/wheel-rotation.
func (h *Handler) ListWheels(c *gin.Context) {
	wheels, err := h.wheels.List(c.Request.Context(), wheelFilter(c))
	if err != nil {
		h.respondError(c, err, "internal error")
		return
	}

	resp := make([]WheelResponse, len(wheels))
	for i, w := range wheels {
		resp[i] = h.wheelResponse(w)
	}
	h.limitCache(c, wheels...)
	c.JSON(http.StatusOK, resp)
}

// GetWheel handles GET /api/wheel-rotation/:id.
func (h *Handler) GetWheel(c *gin.Context) {
	w, err := h.wheels.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.wheelError(c, err, "internal error")
		return
	}

	history := w.RotationHistory
	if history == nil {
		history = []model.RotationHistory{}
	}
	h.limitCache(c, *w)
	c.JSON(http.StatusOK, WheelDetailResponse{
		WheelResponse:   h.wheelResponse(*w),
		RotationHistory: history,
	})
}

// CreateWheel handles POST /api/wheel-rotation.
func (h *Handler) CreateWheel(c *gin.Context) {
	var req createWheelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	w, err := h.wheels.Create(c.Request.Context(), wheel.CreateCommand{
		ArrivalDate:       req.ArrivalDate,
		Station:           req.Station,
		Airline:           req.Airline,
		WheelPartNumber:   req.WheelPartNumber,
		WheelSerialNumber: req.WheelSerialNumber,
		RotationFrequency: req.RotationFrequency,
		Notes:             req.Notes,
	})
	if err != nil {
		h.respondError(c, err, "failed to save")
		return
	}
	c.JSON(http.StatusCreated, h.wheelResponse(*w))
}

// RotateWheel handles POST /api/wheel-rotation/:id/rotate.
func (h *Handler) RotateWheel(c *gin.Context) {
	var req rotateWheelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	position, err := parse.Position(req.NewPosition)
	if err != nil {
		msg := "must be a whole number of degrees"
		if errors.Is(err, parse.ErrMissing) {
			msg = "is required"
		}
		verr := &wheel.ValidationError{}
		verr.Add("newPosition", msg)
		h.respondError(c, verr, "invalid request")
		return
	}

	performedBy := parse.Text(req.PerformedBy)
	if performedBy == "" {
		performedBy = c.GetHeader(mw.UserHeader)
	}

	w, err := h.wheels.Rotate(c.Request.Context(), wheel.RotateCommand{
		WheelID:     c.Param("id"),
		NewPosition: position,
		Notes:       req.Notes,
		PerformedBy: performedBy,
	})
	if err != nil {
		h.wheelError(c, err, "failed to save")
		return
	}
	c.JSON(http.StatusOK, h.wheelResponse(*w))
}

// GetWheelHistory handles GET /api/wheel-rotation/:id/history.
func (h *Handler) GetWheelHistory(c *gin.Context) {
	history, err := h.wheels.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.wheelError(c, err, "internal error")
		return
	}
	c.JSON(http.StatusOK, history)
}

// DeleteWheel handles DELETE /api/wheel-rotation/:id.
func (h *Handler) DeleteWheel(c *gin.Context) {
	if err := h.wheels.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.wheelError(c, err, "failed to delete")
		return
	}
	c.Status(http.StatusNoContent)
}
