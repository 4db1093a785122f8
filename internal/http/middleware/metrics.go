package middleware

import (
	"github.com/edirooss/nvr-server/internal/infrastructure/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics counts every request and every error (4xx or 5xx) response.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		m.IncRequests()
		if c.Writer.Status() >= 400 {
			m.IncErrors()
		}
	}
}
