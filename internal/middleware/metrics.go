package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskhub/server/internal/metrics"
)

// Metrics records request counts, durations, and in-flight gauge for every
// request. Uses the route template, not the raw URL, to keep label
// cardinality bounded.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()

		c.Next()

		m.HTTPRequestsInFlight.Dec()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
