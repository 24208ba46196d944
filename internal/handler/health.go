package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// HealthCheck pings one dependency.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Health reports every dependency as "up" or "down" and answers 503 when any
// is down. Error details stay in the server log.
func Health(checks ...HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(gin.H, len(checks))
		for _, check := range checks {
			if err := check.Ping(ctx); err != nil {
				log.Warn().Err(err).Str("check", check.Name).Msg("health check failed")
				results[check.Name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			results[check.Name] = "up"
		}

		c.JSON(status, gin.H{
			"ok":     status == http.StatusOK,
			"checks": results,
		})
	}
}
