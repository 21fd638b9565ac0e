package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IntervalTriggerConfig holds configuration for the interval trigger
type IntervalTriggerConfig struct {
	// Interval between two drift checks
	Interval time.Duration

	// RunOnStart submits a check right after Start
	RunOnStart bool
}

// DefaultIntervalTriggerConfig returns default trigger configuration
func DefaultIntervalTriggerConfig() IntervalTriggerConfig {
	return IntervalTriggerConfig{
		Interval:   time.Hour,
		RunOnStart: false,
	}
}

// IntervalTrigger submits a drift check job every Interval
type IntervalTrigger struct {
	config    IntervalTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   time.Time
}

// NewIntervalTrigger creates a new interval trigger
func NewIntervalTrigger(config IntervalTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *IntervalTrigger {
	if config.Interval <= 0 {
		config.Interval = DefaultIntervalTriggerConfig().Interval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntervalTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger.Named("drift_trigger"),
	}
}

// Start starts the trigger loop
func (c *IntervalTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Drift check trigger started",
		zap.Duration("interval", c.config.Interval),
		zap.Bool("run_on_start", c.config.RunOnStart),
	)

	return nil
}

// Stop stops the trigger loop
func (c *IntervalTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Drift check trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastRun returns when a check was last submitted
func (c *IntervalTrigger) LastRun() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRun
}

func (c *IntervalTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	if c.config.RunOnStart {
		c.trigger()
	}

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.trigger()
		}
	}
}

// trigger submits a drift check. A check still queued or running from the
// previous tick is left alone.
func (c *IntervalTrigger) trigger() {
	err := c.TriggerNow()
	switch {
	case err == nil:
	case errors.Is(err, ErrJobAlreadyQueued):
		c.logger.Debug("Previous drift check still running, skipping tick")
	default:
		c.logger.Error("Failed to schedule drift check", zap.Error(err))
	}
}

// TriggerNow submits a drift check outside the regular interval
func (c *IntervalTrigger) TriggerNow() error {
	if err := c.scheduler.Schedule(JobKindDriftCheck, nil); err != nil {
		return err
	}
	c.mu.Lock()
	c.lastRun = time.Now()
	c.mu.Unlock()
	return nil
}
