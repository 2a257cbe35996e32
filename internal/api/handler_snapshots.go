package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lastmile-backend/internal/model"
	"lastmile-backend/internal/trip"
)

type shareRequest struct {
	To       string        `json:"to" binding:"required"`
	Analysis trip.Analysis `json:"analysis" binding:"required"`
}

// Share copies the given analysis into an immutable snapshot addressed to
// another user, appends it to the global snapshot log and queues a push
// notification for the recipient.
func (h *Handler) Share(c *gin.Context) {
	username, ok := currentUser(c)
	if !ok {
		return
	}

	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient and analysis are required"})
		return
	}

	snap, err := model.NewSharedSnapshot(username, req.To, req.Analysis)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build snapshot"})
		return
	}
	if snap.ToUser == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient must not be empty"})
		return
	}

	if err := h.store.SaveSnapshot(c.Request.Context(), snap); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save snapshot"})
		return
	}

	if h.notify != nil {
		h.notify.Dispatch(snap.ID)
	}

	c.JSON(http.StatusCreated, gin.H{"id": snap.ID, "to": snap.ToUser, "sentAt": snap.SentAt})
}

// GetInbox lists the snapshots shared with the user, most recent first.
func (h *Handler) GetInbox(c *gin.Context) {
	username, ok := currentUser(c)
	if !ok {
		return
	}

	inbox, err := h.store.Inbox(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load inbox"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inbox": inbox})
}

// ClearInbox removes every snapshot addressed to the user. Individual
// snapshots cannot be deleted; the inbox only clears as a whole.
func (h *Handler) ClearInbox(c *gin.Context) {
	username, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.store.ClearInbox(c.Request.Context(), username); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear inbox"})
		return
	}
	c.Status(http.StatusNoContent)
}
