// Package sweep schedules the background jobs of the accrual engine:
// the minute accrual tick, the cooldown unlock check and the daily
// referral payout. Each job loop runs independently; overlapping runs
// of the same job are prevented by a guard.
package sweep

import (
	"context"
	"fmt"
	"time"

	"mining_hub/internal/logger"
	"mining_hub/internal/metrics"
)

// Job is one periodic sweep. When AtHourUTC is non-nil the job runs
// once a day at that UTC hour instead of on Interval.
type Job struct {
	Name      string
	Interval  time.Duration
	AtHourUTC *int
	Run       func(ctx context.Context, now time.Time) error
}

type Runner struct {
	guard Guard
	jobs  []Job
}

func NewRunner(guard Guard, jobs ...Job) *Runner {
	if guard == nil {
		guard = NewLocalGuard()
	}
	return &Runner{guard: guard, jobs: jobs}
}

// Start launches one goroutine per job and returns. Loops exit when
// ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	for _, job := range r.jobs {
		go r.loop(ctx, job)
	}
}

func (r *Runner) loop(ctx context.Context, job Job) {
	if job.AtHourUTC != nil {
		r.dailyLoop(ctx, job)
		return
	}

	logger.Info("sweep scheduled", "sweep", job.Name, "interval", job.Interval)
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.runOnce(ctx, job, now)
		}
	}
}

func (r *Runner) dailyLoop(ctx context.Context, job Job) {
	logger.Info("sweep scheduled daily", "sweep", job.Name, "hour_utc", *job.AtHourUTC)
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day(), *job.AtHourUTC, 0, 0, 0, time.UTC)
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case fired := <-timer.C:
			r.runOnce(ctx, job, fired)
		}
	}
}

// runOnce executes a single guarded run. The guard TTL leaves headroom
// over the interval so a crashed holder cannot wedge the sweep forever.
func (r *Runner) runOnce(ctx context.Context, job Job, now time.Time) {
	ttl := 2 * job.Interval
	if job.AtHourUTC != nil {
		ttl = time.Hour
	}

	if !r.guard.TryLock(ctx, job.Name, ttl) {
		metrics.SweepSkips.WithLabelValues(job.Name).Inc()
		logger.Warn("sweep run skipped, previous run still in progress", "sweep", job.Name)
		return
	}
	defer r.guard.Unlock(ctx, job.Name)

	start := time.Now()
	err := r.safeRun(ctx, job, now)
	elapsed := time.Since(start)

	if err != nil {
		metrics.SweepRuns.WithLabelValues(job.Name, "error").Inc()
		logger.Error("sweep run failed", "sweep", job.Name, "elapsed", elapsed, "error", err)
		return
	}
	metrics.SweepRuns.WithLabelValues(job.Name, "ok").Inc()
	logger.Debug("sweep run finished", "sweep", job.Name, "elapsed", elapsed)
}

func (r *Runner) safeRun(ctx context.Context, job Job, now time.Time) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sweep panicked: %v", p)
		}
	}()
	return job.Run(ctx, now)
}
