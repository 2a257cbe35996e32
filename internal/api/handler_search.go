package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lastmile-backend/internal/intel"
)

type searchRequest struct {
	Destination string   `json:"destination" binding:"required"`
	Latitude    *float64 `json:"latitude" binding:"required"`
	Longitude   *float64 `json:"longitude" binding:"required"`
}

// Search runs a full interactive trip analysis. The caller supplies its
// position (the browser owns geolocation); a request without coordinates is
// rejected rather than guessed at. The destination is recorded in the user's
// history whether or not the analysis succeeds, matching the original
// client, which appends to history before fetching.
func (h *Handler) Search(c *gin.Context) {
	username, ok := currentUser(c)
	if !ok {
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "destination, latitude and longitude are required"})
		return
	}

	ctx := c.Request.Context()
	if err := h.store.AddSearch(ctx, username, req.Destination); err != nil {
		// History is a convenience; a failure here must not block the search.
		c.Error(err)
	}

	analysis, err := h.analyzer.Analyze(ctx, req.Destination, *req.Latitude, *req.Longitude)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "could not fetch trip intelligence",
			"code":  errorCode(err),
		})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// errorCode maps intel failures onto stable machine-readable codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, intel.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, intel.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, intel.ErrInvalidTimeValues):
		return "invalid_time_values"
	}
	return "upstream_error"
}
