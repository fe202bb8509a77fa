package monitoring

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlesng35/craftid/pkg/metrics"
)

// JobSummary is a point-in-time view of a background job's run history.
type JobSummary struct {
	Job                 string        `json:"job"`
	LastStatus          string        `json:"last_status"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastDuration        time.Duration `json:"last_duration"`
	LastError           string        `json:"last_error,omitempty"`
	ConsecutiveFailures uint64        `json:"consecutive_failures"`
	LastSuccessAt       time.Time     `json:"last_success_at"`
	TotalRuns           uint64        `json:"total_runs"`
}

// JobTracker records background job outcomes for health probes and metrics.
type JobTracker struct {
	jobs sync.Map // string -> *jobStats
}

// NewJobTracker constructs an empty tracker.
func NewJobTracker() *JobTracker {
	return &JobTracker{}
}

// RecordRun records the completion of a job run. result is "success" or a failure label.
func (t *JobTracker) RecordRun(job, result, message string, duration time.Duration) {
	if t == nil {
		return
	}
	job = normalizeLabel(job)
	if job == "" {
		job = "unknown"
	}
	result = normalizeLabel(result)
	if result == "" {
		result = "unknown"
	}

	metrics.MaintenanceRuns.WithLabelValues(job, result).Inc()

	value, _ := t.jobs.LoadOrStore(job, &jobStats{})
	value.(*jobStats).record(result, strings.TrimSpace(message), duration)
}

// Snapshot returns summaries for every job seen so far, ordered by name.
func (t *JobTracker) Snapshot() []JobSummary {
	summaries := []JobSummary{}
	if t == nil {
		return summaries
	}
	t.jobs.Range(func(key, value any) bool {
		summaries = append(summaries, value.(*jobStats).snapshot(key.(string)))
		return true
	})
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Job < summaries[j].Job })
	return summaries
}

type jobStats struct {
	lastStatus          atomic.Value // string
	lastError           atomic.Value // string
	lastRun             atomic.Int64 // unix nano
	lastDuration        atomic.Int64 // nanoseconds
	lastSuccessfulRun   atomic.Int64 // unix nano
	consecutiveFailures atomic.Uint64
	totalRuns           atomic.Uint64
}

func (j *jobStats) record(result, message string, duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	now := time.Now()
	j.lastStatus.Store(result)
	j.lastError.Store(message)
	j.lastRun.Store(now.UnixNano())
	j.lastDuration.Store(int64(duration))
	j.totalRuns.Add(1)

	if result == "success" {
		j.consecutiveFailures.Store(0)
		j.lastSuccessfulRun.Store(now.UnixNano())
		return
	}
	j.consecutiveFailures.Add(1)
}

func (j *jobStats) snapshot(job string) JobSummary {
	status, _ := j.lastStatus.Load().(string)
	errMsg, _ := j.lastError.Load().(string)

	summary := JobSummary{
		Job:                 job,
		LastStatus:          status,
		LastDuration:        time.Duration(j.lastDuration.Load()),
		LastError:           errMsg,
		ConsecutiveFailures: j.consecutiveFailures.Load(),
		TotalRuns:           j.totalRuns.Load(),
	}
	if ts := j.lastRun.Load(); ts > 0 {
		summary.LastRunAt = time.Unix(0, ts)
	}
	if ts := j.lastSuccessfulRun.Load(); ts > 0 {
		summary.LastSuccessAt = time.Unix(0, ts)
	}
	return summary
}

func normalizeLabel(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
