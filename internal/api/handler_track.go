package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type trackRequest struct {
	Destination string   `json:"destination" binding:"required"`
	Latitude    *float64 `json:"latitude" binding:"required"`
	Longitude   *float64 `json:"longitude" binding:"required"`
}

// StartTracking begins live tracking for the user's current trip. Starting
// again replaces any existing session.
func (h *Handler) StartTracking(c *gin.Context) {
	username, ok := currentUser(c)
	if !ok {
		return
	}

	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "destination, latitude and longitude are required"})
		return
	}

	// The session must outlive this request; it is cancelled by StopTracking
	// or by the tracker's shutdown sweep, not by the request context.
	status := h.tracker.Start(context.Background(), username, req.Destination, *req.Latitude, *req.Longitude)
	c.JSON(http.StatusAccepted, status)
}

// TrackingStatus reports the state of the user's live-tracking session.
func (h *Handler) TrackingStatus(c *gin.Context) {
	username, ok := currentUser(c)
	if !ok {
		return
	}

	status, found := h.tracker.Status(username)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active tracking session"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// StopTracking ends the user's live-tracking session.
func (h *Handler) StopTracking(c *gin.Context) {
	username, ok := currentUser(c)
	if !ok {
		return
	}

	if !h.tracker.Stop(username) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active tracking session"})
		return
	}
	c.Status(http.StatusNoContent)
}
