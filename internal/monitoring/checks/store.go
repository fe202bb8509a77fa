package checks

import (
	"context"
	"time"

	"github.com/charlesng35/craftid/internal/monitoring"
)

const defaultStoreTimeout = 2 * time.Second

// Pinger is the minimal interface required to probe a record store backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store returns a readiness probe that pings the active record store. backend
// names the implementation ("database" or "redis") in the probe details.
func Store(store Pinger, backend string, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("store", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if store == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDown,
				Details:  "store not configured",
				Duration: time.Since(start),
			}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultStoreTimeout))
		defer cancel()

		if err := store.Ping(probeCtx); err != nil {
			return monitoring.ResultFromError("store", err, time.Since(start))
		}

		return monitoring.ProbeResult{
			Status:   monitoring.StatusUp,
			Details:  backend,
			Duration: time.Since(start),
		}
	})
}

func chooseTimeout(provided, fallback time.Duration) time.Duration {
	if provided <= 0 {
		return fallback
	}
	return provided
}
