package api

import (
	"context"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"lastmile-backend/internal/model"
	"lastmile-backend/internal/store"
	"lastmile-backend/internal/tracker"
	"lastmile-backend/internal/trip"
)

// Analyzer runs one full two-stage trip analysis.
type Analyzer interface {
	Analyze(ctx context.Context, destination string, lat, lng float64) (trip.Analysis, error)
}

// Dispatcher queues a snapshot-share notification.
type Dispatcher interface {
	Dispatch(snapshotID string)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	analyzer Analyzer
	tracker  *tracker.Tracker
	notify   Dispatcher
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, analyzer Analyzer, tr *tracker.Tracker, notify Dispatcher, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		analyzer: analyzer,
		tracker:  tr,
		notify:   notify,
		webpush:  webpushOptions,
	}
}

// currentUser reads the caller's identity from the X-Username header. The
// header plays the role the browser's saved session played in the original
// client; requests without it are rejected.
func currentUser(c *gin.Context) (string, bool) {
	username := model.NormalizeUsername(c.GetHeader("X-Username"))
	if username == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-Username header is required"})
		return "", false
	}
	return username, true
}
