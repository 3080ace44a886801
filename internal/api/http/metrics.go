package http

import (
	"net/http"

	"github.com/engdocs/docregister-backend/internal/documents/service"
	"github.com/gin-gonic/gin"
)

// MetricsHandler exposes the register's operation counters.
func MetricsHandler(c *gin.Context) {
	m := service.GetMetrics()
	c.JSON(http.StatusOK, gin.H{
		"ok":                  true,
		"metrics":             m,
		"avgSummaryLatencyMs": m.AverageSummaryLatency(),
	})
}
