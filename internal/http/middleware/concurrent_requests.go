package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// LimitConcurrentRequests caps how many requests of the wrapped routes run
// at once. Requests beyond maxConcurrent are rejected with 429 rather than
// queued.
//
// Live viewers hold their request for as long as they watch, so this bounds
// the number of open streams:
//
//	r.GET("/streams/:id", LimitConcurrentRequests(64), streamshndlr.Stream)
func LimitConcurrentRequests(maxConcurrent int) gin.HandlerFunc {
	sem := semaphore.NewWeighted(int64(maxConcurrent))

	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "too many concurrent requests",
			})
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
