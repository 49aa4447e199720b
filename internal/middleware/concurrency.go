package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// ConcurrencyLimit returns a middleware that lets at most limit requests
// run at once. Further requests wait for a slot and give up with 503 when
// their client goes away first. A limit of zero or less disables the
// middleware.
func ConcurrencyLimit(limit int64) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	sem := semaphore.NewWeighted(limit)

	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Service Unavailable",
				"message": "request cancelled while waiting for a worker",
			})
			return
		}
		defer sem.Release(1)

		c.Next()
	}
}
