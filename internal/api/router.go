package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/craftid/internal/app"
	"github.com/charlesng35/craftid/internal/handlers"
	"github.com/charlesng35/craftid/internal/middleware"
	"github.com/charlesng35/craftid/internal/monitoring"
	"github.com/charlesng35/craftid/internal/services"
	"github.com/charlesng35/craftid/internal/store"
)

// Dependencies carries the components the router mounts. Health and Jobs are optional.
type Dependencies struct {
	Config   *app.Config
	Store    store.Store
	CraftIDs *services.CraftIDService
	Health   *monitoring.HealthManager
	Jobs     *monitoring.JobTracker
}

// NewRouter builds the Gin engine, wires middleware and registers the CraftID routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store must be provided")
	}
	if deps.CraftIDs == nil {
		return nil, fmt.Errorf("craftid service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(strings.HasPrefix(cfg.CraftID.BaseURL, "https://")))

	r.GET("/", handlers.Root())

	registerHealthRoutes(r, cfg, deps.Health)
	registerCraftIDRoutes(r, handlers.NewCraftIDHandler(deps.CraftIDs, cfg.CraftID.BaseURL))
	registerAdminRoutes(r, handlers.NewAdminHandler(deps.Store, 0))
	registerMonitoringRoutes(r, handlers.NewMonitoringHandler(deps.Jobs, cfg.Monitoring.Prometheus.Enabled, cfg.Monitoring.Prometheus.Endpoint))

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
