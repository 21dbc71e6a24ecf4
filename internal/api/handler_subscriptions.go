package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wheel-rotation-backend/internal/model"
	"wheel-rotation-backend/internal/store"
)

type putSubscriptionRequest struct {
	Endpoint         string   `json:"endpoint" binding:"required,notblank"`
	P256DH           string   `json:"p256dh" binding:"required,notblank"`
	Auth             string   `json:"auth" binding:"required,notblank"`
	SubscribedWheels []string `json:"subscribed_wheels"`
}

// PutSubscription creates or replaces a subscription and the wheels it
// gets reminders for.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	subscription := &model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := h.store.PutSubscription(c.Request.Context(), subscription, req.SubscribedWheels); err != nil {
		h.respondError(c, err, "failed to save")
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription removes a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	if err := h.store.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		h.respondError(c, err, "failed to delete")
		return
	}

	c.Status(http.StatusNoContent)
}

// rawQueryParam reads key from the query without URL decoding; push
// endpoints are matched byte for byte.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription returns the wheel IDs a subscription follows.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	subscription, err := h.store.GetSubscription(c.Request.Context(), raw)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
			return
		}
		h.respondError(c, err, "internal error")
		return
	}

	wheelIDs := make([]string, len(subscription.Wheels))
	for i, w := range subscription.Wheels {
		wheelIDs[i] = w.ID
	}

	c.JSON(http.StatusOK, gin.H{"subscribed_wheels": wheelIDs})
}
