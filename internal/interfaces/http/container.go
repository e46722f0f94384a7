package http

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/licensegate/licensegate/internal/domain/license"
	"github.com/licensegate/licensegate/internal/domain/nonce"
	"github.com/licensegate/licensegate/internal/domain/shared/events"
	"github.com/licensegate/licensegate/internal/infrastructure/auth"
	"github.com/licensegate/licensegate/internal/infrastructure/config"
	"github.com/licensegate/licensegate/internal/infrastructure/metrics"
	"github.com/licensegate/licensegate/internal/infrastructure/ratelimit"
	"github.com/licensegate/licensegate/internal/infrastructure/scheduler"
	"github.com/licensegate/licensegate/internal/interfaces/http/middleware"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

const (
	StateBackendMemory = "memory"
	StateBackendRedis  = "redis"
)

// sweeper is implemented by the in-memory state stores.
type sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Container holds all infrastructure components, repositories, use cases,
// handlers and background services, wired together. Shutdown releases them
// in reverse order.
type Container struct {
	// Core infrastructure
	engine  *gin.Engine
	db      *gorm.DB
	cfg     *config.Config
	log     logger.Interface
	redis   *redis.Client
	metrics *metrics.Registry

	// Shared protocol state
	nonces   nonce.Store
	limiter  ratelimit.RateLimiter
	sweepers []sweeper
	signer   *auth.Signer

	// Events
	dispatcher *events.InMemoryEventDispatcher

	// Repositories
	repos *repositories

	// Use cases
	ucs *allUseCases

	// Handlers
	hdlrs *allHandlers

	// Middlewares
	apiKeyMiddleware *middleware.APIKeyMiddleware
	rateLimiter      *middleware.RateLimiter

	// Background services
	schedulerManager *scheduler.SchedulerManager
}

// NewContainer creates a Container with all dependencies wired. The event
// dispatcher is started; the scheduler is not (see StartScheduler).
func NewContainer(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine:  gin.New(),
		db:      db,
		cfg:     cfg,
		log:     log,
		metrics: metrics.DefaultRegistry(),
	}

	// Section 1: Infrastructure - repositories, state stores, signer
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	// Section 2: Events - dispatcher and subscribers
	if err := c.initEvents(); err != nil {
		c.Shutdown(context.Background())
		return nil, err
	}

	// Section 3: Use cases
	c.initUseCases()

	// Section 4: Handlers and middlewares
	c.initHandlers()

	return c, nil
}

func (c *Container) initEvents() error {
	c.dispatcher = events.NewInMemoryEventDispatcher(256, time.Minute, c.log)

	for _, h := range c.eventHandlers() {
		for _, eventType := range license.AllEventTypes {
			if !h.CanHandle(eventType) {
				continue
			}
			if err := c.dispatcher.Subscribe(eventType, h); err != nil {
				return fmt.Errorf("failed to subscribe %s handler: %w", eventType, err)
			}
		}
	}

	if err := c.dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start event dispatcher: %w", err)
	}
	c.log.Infow("event dispatcher started")
	return nil
}

// StartScheduler registers the maintenance jobs and starts them. With
// withLicenseJobs false only the in-memory state sweep runs, leaving expiry
// and reminders to cmd/worker.
func (c *Container) StartScheduler(withLicenseJobs bool) error {
	manager, err := scheduler.NewSchedulerManager(c.log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	intervals := scheduler.Intervals{Sweep: c.cfg.Scheduler.NonceSweep}
	var expireJob, reminderJob scheduler.BatchJob
	if withLicenseJobs {
		intervals.Expiry = c.cfg.Scheduler.ExpiryInterval
		intervals.Reminder = c.cfg.Scheduler.ReminderInterval
		expireJob = c.ucs.expireLicenses
		reminderJob = c.ucs.sendReminders
	}

	var sweepJob scheduler.BatchJob
	if len(c.sweepers) > 0 {
		sweepJob = scheduler.BatchJobFunc(c.SweepState)
	}

	if err := manager.RegisterLicenseJobs(intervals, expireJob, reminderJob, sweepJob); err != nil {
		return fmt.Errorf("failed to register scheduled jobs: %w", err)
	}
	manager.Start()
	c.schedulerManager = manager
	return nil
}

// SweepState drops expired nonces and finished rate-limit windows from the
// in-memory stores. Redis expires its keys on its own.
func (c *Container) SweepState(ctx context.Context) (int, error) {
	total := 0
	for _, s := range c.sweepers {
		n, err := s.Sweep(ctx)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Shutdown stops background work: scheduler first so no job publishes into
// a stopped dispatcher, then the dispatcher (draining queued events), then
// Redis.
func (c *Container) Shutdown(ctx context.Context) {
	if c.schedulerManager != nil {
		if err := c.schedulerManager.Stop(); err != nil {
			c.log.Warnw("failed to stop scheduler", "error", err)
		}
	}

	if c.dispatcher != nil {
		done := make(chan struct{})
		go func() {
			if err := c.dispatcher.Stop(); err != nil {
				c.log.Warnw("failed to stop event dispatcher", "error", err)
			}
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			c.log.Warnw("event dispatcher did not drain before shutdown deadline")
		}
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Warnw("failed to close redis client", "error", err)
		}
	}
}

func validBackend(name string) bool {
	return slices.Contains([]string{StateBackendMemory, StateBackendRedis}, name)
}
