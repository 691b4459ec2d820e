package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check statuses reported by health checks.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Check is the health of one service dependency.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthChecker returns health status for service dependencies.
type HealthChecker func(ctx context.Context) []Check

// Health returns a handler that reports service health including dependency
// statuses.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := StatusHealthy
		var checks []Check

		if checker != nil {
			checks = checker(c.Request.Context())
			for _, ch := range checks {
				if ch.Status == StatusUnhealthy {
					status = StatusUnhealthy
					break
				}
				if ch.Status == StatusDegraded && status != StatusUnhealthy {
					status = StatusDegraded
				}
			}
		}

		httpStatus := http.StatusOK
		if status == StatusUnhealthy {
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":     status,
			"service":    serviceName,
			"components": checks,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		})
	}
}
