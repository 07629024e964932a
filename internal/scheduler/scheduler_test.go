// internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"testing"
	"time"

	"yieldwallet/internal/domain"
	"yieldwallet/internal/lease"
	"yieldwallet/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockAccrualRunner struct {
	mock.Mock
}

func (m *MockAccrualRunner) Run(ctx context.Context, runDate time.Time) (*domain.AccrualReport, error) {
	args := m.Called(ctx, runDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccrualReport), args.Error(1)
}

func TestRunOnceTakesDailyLease(t *testing.T) {
	ctx := context.Background()
	runDate := time.Date(2026, 10, 16, 0, 5, 0, 0, time.UTC)
	locker := lease.NewLocalLocker()
	runner := new(MockAccrualRunner)
	runner.On("Run", mock.Anything, runDate).Return(&domain.AccrualReport{RunID: "r1", Processed: 3}, nil).Twice()

	s := NewAccrualScheduler(runner, locker, Config{}, zaptest.NewLogger(t))

	report, err := s.RunOnce(ctx, runDate)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Processed)

	// Lease is released after the run, so a second run for the day can proceed.
	_, err = s.RunOnce(ctx, runDate)
	require.NoError(t, err)

	held, err := locker.Acquire(ctx, "accrual:2026-10-16", time.Minute)
	require.NoError(t, err)
	defer held.Release(ctx)

	_, err = s.RunOnce(ctx, runDate)
	assert.ErrorIs(t, err, util.ErrConflict)

	runner.AssertExpectations(t)
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := NewAccrualScheduler(new(MockAccrualRunner), lease.NewLocalLocker(), Config{Schedule: "every day"}, zaptest.NewLogger(t))
	assert.Error(t, s.Start(context.Background()))
}

func TestStartAndStop(t *testing.T) {
	loc := time.FixedZone("WAT", 60*60)

	s := NewAccrualScheduler(new(MockAccrualRunner), lease.NewLocalLocker(), Config{Location: loc}, zaptest.NewLogger(t))
	require.NoError(t, s.Start(context.Background()))

	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	next := entries[0].Next.In(loc)
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 5, next.Minute())

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(stopCtx)
}
