package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/craftid/internal/api"
	"github.com/charlesng35/craftid/internal/app"
	"github.com/charlesng35/craftid/internal/app/maintenance"
	"github.com/charlesng35/craftid/internal/credential"
	"github.com/charlesng35/craftid/internal/database"
	"github.com/charlesng35/craftid/internal/monitoring"
	"github.com/charlesng35/craftid/internal/monitoring/checks"
	"github.com/charlesng35/craftid/internal/services"
	"github.com/charlesng35/craftid/internal/store"
)

const (
	schemaTimeout        = 30 * time.Second
	maintenanceStaleness = 15 * time.Minute
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	Store   store.Store
	Signer  *credential.Signer
	CraftID *services.CraftIDService
	Jobs    *monitoring.JobTracker
	Health  *monitoring.HealthManager
	Stats   *maintenance.StatsReporter
	Router  *gin.Engine
}

// bootstrapRuntime opens the record store and wires services, background jobs and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			if shutdownErr := stack.Shutdown(context.Background()); shutdownErr != nil {
				log.Warn("partial bootstrap cleanup failed", zap.Error(shutdownErr))
			}
		}
	}()

	// enable gin debug mode
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.Store, err = openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	stack.Signer, err = credential.NewSigner(cfg.CraftID.SignerConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise credential signer: %w", err)
	}

	stack.CraftID, err = services.NewCraftIDService(stack.Store, stack.Signer, cfg.Store.ServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise craftid service: %w", err)
	}

	stack.Jobs = monitoring.NewJobTracker()
	stack.Stats = maintenance.NewStatsReporter(stack.Store,
		maintenance.WithTracker(stack.Jobs),
		maintenance.WithSchedule(cfg.Maintenance.StatsSchedule),
		maintenance.WithTimeout(cfg.Store.Timeout),
	)
	if err := stack.Stats.RunOnce(ctx); err != nil {
		log.Warn("initial record stats failed", zap.Error(err))
	}
	if err := stack.Stats.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	if cfg.Monitoring.Health.Enabled {
		stack.Health = monitoring.NewHealthManager(monitoring.WithProbeTimeout(cfg.Monitoring.Health.Timeout))
		stack.Health.RegisterReadiness(checks.Store(stack.Store, cfg.Store.BackendName(), cfg.Monitoring.Health.Timeout))
		stack.Health.RegisterReadiness(checks.Maintenance(stack.Jobs, maintenanceStaleness))
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:   cfg,
		Store:    stack.Store,
		CraftIDs: stack.CraftID,
		Health:   stack.Health,
		Jobs:     stack.Jobs,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var errs error
	if s.Stats != nil {
		select {
		case <-s.Stats.Stop().Done():
		case <-ctx.Done():
			errs = multierr.Append(errs, fmt.Errorf("stop maintenance jobs: %w", ctx.Err()))
		}
	}

	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errs
}

func openStore(ctx context.Context, cfg *app.Config, log *zap.Logger) (store.Store, error) {
	backend := cfg.Store.BackendName()
	switch backend {
	case app.StoreBackendDatabase:
		dbCfg := cfg.Database.DatabaseOptions()
		db, err := database.Open(dbCfg)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}

		var counters []string
		if counter := strings.TrimSpace(cfg.Store.Counter); counter != "" {
			counters = append(counters, counter)
		}
		st := store.NewDatabaseStore(db, counters...).WithMaxIdleConns(cfg.Database.MaxIdleConns)

		schemaCtx, cancel := context.WithTimeout(ctx, schemaTimeout)
		defer cancel()
		if err := st.EnsureSchema(schemaCtx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}

		log.Info("database store ready", zap.String("driver", dbCfg.Driver))
		return st, nil

	case app.StoreBackendRedis:
		client, err := store.NewRedisClient(ctx, cfg.Redis.ClientConfig())
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("redis store ready", zap.String("addr", cfg.Redis.Address))
		return store.NewRedisStore(client, store.WithKeyPrefix(cfg.Redis.KeyPrefix)), nil

	default:
		return nil, fmt.Errorf("unsupported store backend %q", backend)
	}
}

// ensureSecretsPresent validates the credential signing key for the configured environment.
func ensureSecretsPresent(cfg *app.Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.CraftID.SigningKey = strings.TrimSpace(cfg.CraftID.SigningKey)
	return app.ValidateSigningKey(cfg.CraftID.SigningKey, cfg.Server.IsProduction())
}
