package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"furniture-miniapp/internal/activity"
	"furniture-miniapp/internal/common"
	"furniture-miniapp/internal/config"

	"go.uber.org/zap"
)

// Scheduler defines the interface for the background retention sweeper
type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error
	IsRunning() bool
	// RunOnce performs a single purge pass and returns the rows removed.
	RunOnce(ctx context.Context) (int64, error)
	GetMetrics() *SchedulerMetrics
}

// Observer receives the outcome of every purge pass.
type Observer interface {
	ObservePurge(rows int64, duration time.Duration, err error)
}

type scheduler struct {
	config    config.SchedulerConfig
	activity  activity.Service
	clock     common.Clock
	observer  Observer
	logger    *zap.Logger
	metrics   *SchedulerMetrics
	retention time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	wg      sync.WaitGroup
	ticker  *time.Ticker
	running atomic.Bool
}

// Option customizes a scheduler.
type Option func(*scheduler)

// WithClock replaces the clock used to compute the purge cutoff.
func WithClock(clock common.Clock) Option {
	return func(s *scheduler) { s.clock = clock }
}

// WithObserver reports purge passes to o.
func WithObserver(o Observer) Option {
	return func(s *scheduler) { s.observer = o }
}

// NewScheduler creates the activity retention sweeper
func NewScheduler(cfg config.SchedulerConfig, activitySvc activity.Service, logger *zap.Logger, opts ...Option) (Scheduler, error) {
	if cfg.PollInterval <= 0 {
		return nil, NewConfigurationError("poll_interval", cfg.PollInterval, "must be greater than 0")
	}
	if cfg.ActivityRetention < 60 {
		return nil, NewConfigurationError("activity_retention", cfg.ActivityRetention, "must be at least 60 seconds")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, NewConfigurationError("shutdown_timeout", cfg.ShutdownTimeout, "must be greater than 0")
	}
	if activitySvc == nil {
		return nil, NewConfigurationError("activity", nil, "activity service is required")
	}

	s := &scheduler{
		config:    cfg,
		activity:  activitySvc,
		clock:     common.NewRealClock(),
		logger:    logger,
		metrics:   NewSchedulerMetrics(),
		retention: time.Duration(cfg.ActivityRetention) * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *scheduler) Start(ctx context.Context) error {
	if s.running.Load() {
		return NewSchedulerError(ErrSchedulerAlreadyRunning, "scheduler is already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.ticker = time.NewTicker(time.Duration(s.config.PollInterval) * time.Second)
	s.running.Store(true)

	s.logger.Info("Starting activity retention sweeper",
		zap.Int("poll_interval_seconds", s.config.PollInterval),
		zap.Duration("retention", s.retention))

	s.wg.Add(1)
	go s.loop()
	return nil
}

func (s *scheduler) Stop() error {
	if !s.running.Load() {
		return NewSchedulerError(ErrSchedulerNotRunning, "scheduler is not running")
	}

	s.logger.Info("Stopping activity retention sweeper...")
	s.cancel()
	s.ticker.Stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Duration(s.config.ShutdownTimeout) * time.Second):
		s.logger.Warn("Sweeper shutdown timed out, a purge may still be running")
		return NewShutdownError("shutdown timeout exceeded", s.config.ShutdownTimeout)
	}

	s.running.Store(false)
	s.logger.Info("Activity retention sweeper stopped")
	return nil
}

func (s *scheduler) IsRunning() bool {
	return s.running.Load()
}

func (s *scheduler) GetMetrics() *SchedulerMetrics {
	return s.metrics
}

func (s *scheduler) RunOnce(ctx context.Context) (int64, error) {
	start := time.Now()
	cutoff := s.clock.Now().Add(-s.retention)

	rows, err := s.activity.Purge(ctx, cutoff)
	duration := time.Since(start)
	if s.observer != nil {
		s.observer.ObservePurge(rows, duration, err)
	}
	if err != nil {
		s.metrics.RecordError()
		return 0, NewPurgeError(cutoff, err)
	}

	s.metrics.RecordRun(rows, duration)
	if rows > 0 {
		s.logger.Info("Purged old activity",
			zap.Int64("rows", rows),
			zap.Time("cutoff", cutoff),
			zap.Duration("duration", duration))
	} else {
		s.logger.Debug("No activity to purge", zap.Time("cutoff", cutoff))
	}
	return rows, nil
}

func (s *scheduler) loop() {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Sweeper panic recovered", zap.Any("panic", r))
			s.metrics.RecordError()
		}
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.ticker.C:
			if _, err := s.RunOnce(s.ctx); err != nil {
				s.logger.Error("Failed to purge activity", zap.Error(err))
			}
		}
	}
}
