// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yieldwallet/internal/domain"
	"yieldwallet/internal/lease"
	"yieldwallet/internal/service"
	"yieldwallet/internal/util"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule fires the accrual run five minutes after midnight.
const DefaultSchedule = "5 0 * * *"

// Config configures the AccrualScheduler.
type Config struct {
	Schedule string         // Standard 5-field cron expression
	Location *time.Location // Calendar used for run dates
	LeaseTTL time.Duration  // Upper bound on one run; the lease expires after it
}

// AccrualScheduler triggers the accrual engine once per calendar day. A lease keyed by
// run date makes sure only one replica runs a given day at a time.
type AccrualScheduler struct {
	runner   service.AccrualRunner
	locker   lease.Locker
	clock    util.Clock
	cron     *cron.Cron
	cfg      Config
	logger   *zap.Logger
	baseCtx  context.Context
	cancelFn context.CancelFunc
}

// NewAccrualScheduler creates a scheduler. It does nothing until Start is called.
func NewAccrualScheduler(runner service.AccrualRunner, locker lease.Locker, cfg Config, logger *zap.Logger) *AccrualScheduler {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 30 * time.Minute
	}
	return &AccrualScheduler{
		runner: runner,
		locker: locker,
		clock:  util.SystemClock{Location: cfg.Location},
		cron:   cron.New(cron.WithLocation(cfg.Location)),
		cfg:    cfg,
		logger: logger.Named("scheduler"),
	}
}

// Start registers the daily job and starts the cron loop. Scheduled runs are
// cancelled when ctx is done or Stop is called.
func (s *AccrualScheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.runScheduled); err != nil {
		return fmt.Errorf("invalid accrual schedule %q: %w", s.cfg.Schedule, err)
	}
	s.baseCtx, s.cancelFn = context.WithCancel(ctx)
	s.cron.Start()
	s.logger.Info("accrual scheduler started",
		zap.String("schedule", s.cfg.Schedule),
		zap.String("location", s.cfg.Location.String()))
	return nil
}

// Stop stops scheduling, cancels a run in progress and waits for it to return or for ctx to expire.
func (s *AccrualScheduler) Stop(ctx context.Context) {
	if s.cancelFn != nil {
		s.cancelFn()
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("accrual scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("accrual scheduler stop timed out", zap.Error(ctx.Err()))
	}
}

// RunOnce runs the engine for runDate under the day's lease. It fails with util.ErrConflict
// when another process is already running the same day.
func (s *AccrualScheduler) RunOnce(ctx context.Context, runDate time.Time) (*domain.AccrualReport, error) {
	day := runDate.Format(domain.DateLayout)
	held, err := s.locker.Acquire(ctx, "accrual:"+day, s.cfg.LeaseTTL)
	if errors.Is(err, lease.ErrLeaseHeld) {
		return nil, fmt.Errorf("accrual run for %s already in progress: %w", day, util.ErrConflict)
	}
	if err != nil {
		return nil, util.AsPersistence(fmt.Errorf("accrual run for %s: %w", day, err))
	}
	defer func() {
		if err := held.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release accrual lease", zap.String("run_date", day), zap.Error(err))
		}
	}()

	return s.runner.Run(ctx, runDate)
}

func (s *AccrualScheduler) runScheduled() {
	runDate := s.clock.Now()
	report, err := s.RunOnce(s.baseCtx, runDate)
	switch {
	case errors.Is(err, util.ErrConflict):
		s.logger.Info("accrual run skipped, another instance holds the lease",
			zap.String("run_date", runDate.Format(domain.DateLayout)))
	case err != nil:
		s.logger.Error("scheduled accrual run failed", zap.Error(err))
	case len(report.Failures) > 0 || report.Interrupted:
		s.logger.Warn("scheduled accrual run incomplete",
			zap.String("run_id", report.RunID),
			zap.Int("failed", len(report.Failures)),
			zap.Bool("interrupted", report.Interrupted))
	}
}
