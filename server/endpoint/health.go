package endpoint

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/statekit/observability"
)

// HealthChecker aggregates component health, typically Registry.Health.
type HealthChecker func(ctx context.Context) *observability.ServiceHealth

// Health answers 200 while the service is up or degraded and 503 once any
// component is down.
func Health(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := checker(c.Request.Context())
		status := http.StatusOK
		if !sh.Serving() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, sh)
	}
}
