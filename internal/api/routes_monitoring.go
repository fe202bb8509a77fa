package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/craftid/internal/handlers"
)

func registerMonitoringRoutes(r gin.IRouter, handler *handlers.MonitoringHandler) {
	if handler == nil {
		return
	}

	group := r.Group("/monitoring")
	group.GET("/summary", handler.Summary)
}
