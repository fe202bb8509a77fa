package monitoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/craftid/internal/monitoring"
	"github.com/charlesng35/craftid/internal/monitoring/checks"
)

type pinger struct {
	err   error
	delay time.Duration
}

func (p pinger) Ping(ctx context.Context) error {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.err
}

func TestHealthManagerEvaluate(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager()
	manager.RegisterReadiness(monitoring.NewCheck("store", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	manager.RegisterReadiness(monitoring.NewCheck("redis", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "connection refused"}
	}))

	report := manager.EvaluateReadiness(context.Background())
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Len(t, report.Checks, 2)
	require.Equal(t, "redis", report.Checks[1].Component)
}

func TestHealthManagerRecoversPanics(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager()
	manager.RegisterLiveness(monitoring.NewCheck("boom", func(ctx context.Context) monitoring.ProbeResult {
		panic("exploded")
	}))

	report := manager.EvaluateLiveness(context.Background())
	require.False(t, report.Success)
	require.Equal(t, "exploded", report.Checks[0].Details)
	require.Equal(t, "boom", report.Checks[0].Component)
}

func TestHealthManagerProbeTimeout(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager(monitoring.WithProbeTimeout(20 * time.Millisecond))
	manager.RegisterReadiness(checks.Store(pinger{delay: time.Second}, "database", time.Minute))

	report := manager.EvaluateReadiness(context.Background())
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDegraded, report.Status)
}

func TestStoreCheck(t *testing.T) {
	t.Parallel()

	up := checks.Store(pinger{}, "redis", 0).Run(context.Background())
	require.Equal(t, monitoring.StatusUp, up.Status)
	require.Equal(t, "redis", up.Details)

	down := checks.Store(pinger{err: errors.New("connection refused")}, "database", 0).Run(context.Background())
	require.Equal(t, monitoring.StatusDown, down.Status)
	require.Equal(t, "connection refused", down.Details)

	missing := checks.Store(nil, "database", 0).Run(context.Background())
	require.Equal(t, monitoring.StatusDown, missing.Status)
}

func TestMaintenanceCheck(t *testing.T) {
	t.Parallel()

	tracker := monitoring.NewJobTracker()
	idle := checks.Maintenance(tracker, 0).Run(context.Background())
	require.Equal(t, monitoring.StatusUp, idle.Status)

	tracker.RecordRun("record_stats", "success", "", time.Second)
	tracker.RecordRun("other_job", "failure", "count timed out", time.Second)

	result := checks.Maintenance(tracker, 0).Run(context.Background())
	require.Equal(t, monitoring.StatusDegraded, result.Status)
	require.Contains(t, result.Details, "count timed out")
}

func TestJobTrackerSnapshot(t *testing.T) {
	t.Parallel()

	tracker := monitoring.NewJobTracker()
	tracker.RecordRun(" Record_Stats ", "failure", "boom", time.Millisecond)
	tracker.RecordRun("record_stats", "success", "", 2*time.Millisecond)

	jobs := tracker.Snapshot()
	require.Len(t, jobs, 1)
	require.Equal(t, "record_stats", jobs[0].Job)
	require.Equal(t, "success", jobs[0].LastStatus)
	require.EqualValues(t, 2, jobs[0].TotalRuns)
	require.Zero(t, jobs[0].ConsecutiveFailures)
	require.False(t, jobs[0].LastSuccessAt.IsZero())
}
