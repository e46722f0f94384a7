// Package scheduler runs the periodic license maintenance jobs on gocron.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/licensegate/licensegate/internal/shared/logger"
)

const stopTimeout = 30 * time.Second

// BatchJob processes one batch and reports how many items it touched.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

type BatchJobFunc func(ctx context.Context) (int, error)

func (f BatchJobFunc) Execute(ctx context.Context) (int, error) { return f(ctx) }

// Intervals configures how often each job runs. Zero disables a job.
type Intervals struct {
	Expiry   time.Duration
	Reminder time.Duration
	Sweep    time.Duration
}

type jobSpec struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	job      BatchJob
}

// SchedulerManager owns the process's gocron scheduler. Jobs run in UTC,
// never overlap with themselves and fire once right after Start.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	log       logger.Interface
	running   atomic.Bool
}

func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithStopTimeout(stopTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &SchedulerManager{scheduler: s, log: log}, nil
}

// RegisterLicenseJobs schedules license expiry, expiry reminders and the
// in-memory state sweep. A nil job or a zero interval skips that job.
func (m *SchedulerManager) RegisterLicenseJobs(intervals Intervals, expireJob, reminderJob, sweepJob BatchJob) error {
	specs := []jobSpec{
		{name: "license-expiry", interval: intervals.Expiry, timeout: 10 * time.Minute, job: expireJob},
		{name: "license-expiry-reminder", interval: intervals.Reminder, timeout: 5 * time.Minute, job: reminderJob},
		{name: "state-sweep", interval: intervals.Sweep, timeout: time.Minute, job: sweepJob},
	}

	for _, spec := range specs {
		if spec.job == nil || spec.interval <= 0 {
			m.log.Infow("scheduled job disabled", "job", spec.name)
			continue
		}
		if err := m.add(spec); err != nil {
			return fmt.Errorf("failed to register job %s: %w", spec.name, err)
		}
		m.log.Infow("registered scheduled job", "job", spec.name, "interval", spec.interval.String())
	}
	return nil
}

func (m *SchedulerManager) add(spec jobSpec) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(spec.interval),
		gocron.NewTask(m.run, spec),
		gocron.WithName(spec.name),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithEventListeners(
			gocron.AfterJobRunsWithPanic(func(_ uuid.UUID, name string, recovered any) {
				m.log.Errorw("scheduled job panicked", "job", name, "panic", fmt.Sprint(recovered))
			}),
		),
	)
	return err
}

func (m *SchedulerManager) run(spec jobSpec) {
	ctx, cancel := context.WithTimeout(context.Background(), spec.timeout)
	defer cancel()

	start := time.Now()
	count, err := spec.job.Execute(ctx)
	elapsed := time.Since(start)

	switch {
	case err != nil && ctx.Err() != nil:
		m.log.Warnw("scheduled job cut short", "job", spec.name, "error", err, "duration", elapsed)
	case err != nil:
		m.log.Errorw("scheduled job failed", "job", spec.name, "error", err, "duration", elapsed)
	case count > 0:
		m.log.Infow("scheduled job processed items", "job", spec.name, "count", count, "duration", elapsed)
	default:
		m.log.Debugw("scheduled job found nothing to do", "job", spec.name, "duration", elapsed)
	}
}

func (m *SchedulerManager) Start() {
	if !m.running.CompareAndSwap(false, true) {
		return
	}
	m.scheduler.Start()
	m.log.Infow("scheduler started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs, up to the stop timeout. Calling it on a
// stopped manager is a no-op.
func (m *SchedulerManager) Stop() error {
	if !m.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := m.scheduler.Shutdown(); err != nil {
		m.log.Errorw("scheduler shutdown failed", "error", err)
		return err
	}
	m.log.Infow("scheduler stopped")
	return nil
}

func (m *SchedulerManager) IsStarted() bool { return m.running.Load() }

// Jobs lists the registered jobs.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
