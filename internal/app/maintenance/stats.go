package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/craftid/internal/monitoring"
	"github.com/charlesng35/craftid/pkg/logger"
	"github.com/charlesng35/craftid/pkg/metrics"
)

const (
	// StatsJob is the job name reported to the tracker and metrics.
	StatsJob = "record_stats"

	defaultStatsSpec    = "@every 1m"
	defaultStatsTimeout = 5 * time.Second
)

// RecordCounter reports how many records the store holds.
type RecordCounter interface {
	Count(ctx context.Context) (int64, error)
}

// StatsReporter periodically refreshes the records gauge from the store.
type StatsReporter struct {
	counter  RecordCounter
	tracker  *monitoring.JobTracker
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger
	schedule string
	timeout  time.Duration
}

// Option customises the StatsReporter.
type Option func(*StatsReporter)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(r *StatsReporter) {
		if c != nil {
			r.cron = c
		}
	}
}

// WithNow overrides the clock used to measure job duration.
func WithNow(now func() time.Time) Option {
	return func(r *StatsReporter) {
		if now != nil {
			r.now = now
		}
	}
}

// WithSchedule overrides the cron schedule for the stats job.
func WithSchedule(spec string) Option {
	return func(r *StatsReporter) {
		if spec != "" {
			r.schedule = spec
		}
	}
}

// WithTimeout bounds each Count call.
func WithTimeout(timeout time.Duration) Option {
	return func(r *StatsReporter) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithTracker records job outcomes so health probes can report on them.
func WithTracker(tracker *monitoring.JobTracker) Option {
	return func(r *StatsReporter) {
		r.tracker = tracker
	}
}

// NewStatsReporter constructs a StatsReporter. A nil counter disables the job.
func NewStatsReporter(counter RecordCounter, opts ...Option) *StatsReporter {
	reporter := &StatsReporter{
		counter:  counter,
		now:      time.Now,
		schedule: defaultStatsSpec,
		timeout:  defaultStatsTimeout,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(reporter)
	}

	if reporter.cron == nil {
		reporter.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return reporter
}

// Start registers the stats job with the cron scheduler and launches it.
func (r *StatsReporter) Start() error {
	if r.counter == nil {
		return nil
	}

	if _, err := r.cron.AddFunc(r.schedule, func() {
		if err := r.refresh(context.Background()); err != nil {
			r.log.Warn("record stats refresh failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("maintenance: schedule %q: %w", r.schedule, err)
	}

	r.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (r *StatsReporter) Stop() context.Context {
	if r.cron == nil {
		return context.Background()
	}
	return r.cron.Stop()
}

// RunOnce executes every configured job sequentially. Used at startup and in tests.
func (r *StatsReporter) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if r.counter != nil {
		if err := r.refresh(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (r *StatsReporter) refresh(ctx context.Context) error {
	if r.counter == nil {
		return errors.New("maintenance: record counter is required")
	}

	started := r.now()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	count, err := r.counter.Count(ctx)
	duration := r.now().Sub(started)
	if err != nil {
		r.tracker.RecordRun(StatsJob, "failure", err.Error(), duration)
		return fmt.Errorf("maintenance: count records: %w", err)
	}

	metrics.Records.Set(float64(count))
	r.tracker.RecordRun(StatsJob, "success", "", duration)
	r.log.Debug("record stats refreshed", zap.Int64("records", count), zap.Duration("duration", duration))
	return nil
}
