package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avaroute/internal/observability"
)

// Metrics returns a middleware that records request metrics labelled by
// the matched handler pattern (gin's FullPath), so that the dynamic part
// of /proxy/*path never becomes a label value.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.IncrementActiveRequests()
		defer m.DecrementActiveRequests()

		c.Next()

		m.RecordRequest(
			c.Request.Method,
			c.FullPath(),
			c.Writer.Status(),
			time.Since(start),
			c.Writer.Size(),
		)
	}
}
