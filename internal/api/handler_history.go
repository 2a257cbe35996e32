package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetHistory returns the user's recent destinations, most recent first.
func (h *Handler) GetHistory(c *gin.Context) {
	username, ok := currentUser(c)
	if !ok {
		return
	}

	history, err := h.store.History(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// ClearHistory removes all of the user's history entries.
func (h *Handler) ClearHistory(c *gin.Context) {
	username, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.store.ClearHistory(c.Request.Context(), username); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear history"})
		return
	}
	c.Status(http.StatusNoContent)
}
