package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit rejects requests from a client IP that exceed the given rate.
// Each IP gets its own token bucket, created on first sight.
func RateLimit(limit rate.Limit, burst int) gin.HandlerFunc {
	var limiters sync.Map // client IP -> *rate.Limiter

	return func(c *gin.Context) {
		v, ok := limiters.Load(c.ClientIP())
		if !ok {
			v, _ = limiters.LoadOrStore(c.ClientIP(), rate.NewLimiter(limit, burst))
		}
		if !v.(*rate.Limiter).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
