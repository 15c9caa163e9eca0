package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type liveness struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime"`
}

// Liveness answers 200 without consulting components. Uptime counts from
// the moment the handler is built.
func Liveness(service, version string) gin.HandlerFunc {
	started := time.Now()
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, liveness{
			Status:  "alive",
			Service: service,
			Version: version,
			Uptime:  time.Since(started).Truncate(time.Second).String(),
		})
	}
}
