package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler returns the gin handler serving GET /health. A sampling failure
// answers 503 with the error text.
func Handler(c *Collector) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		snap, err := c.Snapshot(ctx.Request.Context())
		if err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"status": StatusUnhealthy,
				"error":  err.Error(),
			})
			return
		}
		ctx.JSON(http.StatusOK, snap)
	}
}
