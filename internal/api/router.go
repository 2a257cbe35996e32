package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"lastmile-backend/config"
	"lastmile-backend/internal/mw"
	"lastmile-backend/internal/store"
	"lastmile-backend/internal/tracker"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store, analyzer Analyzer, tr *tracker.Tracker, notify Dispatcher, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, analyzer, tr, notify, webpushOptions)

	rateLimiter := mw.RateLimit(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	caching := mw.Cache(cache.New(cacheTTL, 2*cacheTTL), cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/login", handler.Login)

		api.POST("/search", handler.Search)
		api.GET("/history", caching, handler.GetHistory)
		api.DELETE("/history", handler.ClearHistory)

		api.POST("/share", handler.Share)
		api.GET("/inbox", handler.GetInbox)
		api.DELETE("/inbox", handler.ClearInbox)

		api.POST("/track", handler.StartTracking)
		api.GET("/track", handler.TrackingStatus)
		api.DELETE("/track", handler.StopTracking)

		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
