package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/craftid/internal/monitoring"
)

// MonitoringHandler surfaces background job summaries for operators.
type MonitoringHandler struct {
	jobs            *monitoring.JobTracker
	metricsEnabled  bool
	metricsEndpoint string
}

// NewMonitoringHandler constructs a monitoring handler. Returns nil when there is nothing to report.
func NewMonitoringHandler(jobs *monitoring.JobTracker, metricsEnabled bool, metricsEndpoint string) *MonitoringHandler {
	if jobs == nil {
		return nil
	}
	endpoint := strings.TrimSpace(metricsEndpoint)
	if endpoint == "" {
		endpoint = "/metrics"
	}
	return &MonitoringHandler{jobs: jobs, metricsEnabled: metricsEnabled, metricsEndpoint: endpoint}
}

// Summary returns background job statistics and metrics configuration hints.
func (h *MonitoringHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"jobs": h.jobs.Snapshot(),
		"prometheus": gin.H{
			"enabled":  h.metricsEnabled,
			"endpoint": h.metricsEndpoint,
		},
	})
}
