package handlers

import (
	"net/http"

	"caredesk/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the last dependency check; 503 when MongoDB is unreachable.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// MetricsHandler exposes the Prometheus registry.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(utils.MetricsHandler())
}
