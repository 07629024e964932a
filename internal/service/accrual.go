// internal/service/accrual.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"yieldwallet/internal/domain"
	"yieldwallet/internal/events"
	"yieldwallet/internal/metrics"
	"yieldwallet/internal/repository"
	"yieldwallet/internal/util"
	"yieldwallet/pkg/db"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultAccrualWorkers bounds concurrent position updates when none is configured.
const DefaultAccrualWorkers = 4

var errPositionNotDue = errors.New("position no longer due")

// AccrualRunner advances every due position by one day.
type AccrualRunner interface {
	Run(ctx context.Context, runDate time.Time) (*domain.AccrualReport, error)
}

// AccrualEngine pays daily profit on active positions. Each position is advanced in its
// own transaction, so one failure never affects the others.
type AccrualEngine struct {
	dbExecutor repository.DBExecutor
	tx         txRunner
	repos      Repositories
	publisher  events.Publisher
	logger     *zap.Logger
	workers    int
}

// NewAccrualEngine creates an AccrualEngine running at most workers positions at once.
func NewAccrualEngine(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	repos Repositories,
	txFuncs TxFuncs,
	publisher events.Publisher,
	logger *zap.Logger,
	workers int,
) *AccrualEngine {
	if workers <= 0 {
		workers = DefaultAccrualWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NewLogPublisher(logger)
	}
	return &AccrualEngine{
		dbExecutor: dbExecutor,
		tx:         txRunner{dbBeginner: dbBeginner, funcs: txFuncs},
		repos:      repos,
		publisher:  publisher,
		logger:     logger.Named("accrual"),
		workers:    workers,
	}
}

type accrualOutcome struct {
	position *domain.Position
	skipped  bool
	userID   int64
	err      error
}

// Run accrues every position due on runDate. Re-running for the same date pays nothing twice.
// A cancelled ctx stops new positions from starting; the report is then marked Interrupted
// and the remaining positions stay due for the next run.
func (e *AccrualEngine) Run(ctx context.Context, runDate time.Time) (*domain.AccrualReport, error) {
	day := domain.DateOf(runDate)
	report := &domain.AccrualReport{
		RunID:     uuid.NewString(),
		RunDate:   day,
		TotalPaid: decimal.Zero,
		Failures:  []domain.AccrualFailure{},
		StartedAt: time.Now().UTC(),
	}
	logger := e.logger.With(
		zap.String("run_id", report.RunID),
		zap.String("run_date", day.Format(domain.DateLayout)))

	ids, err := e.repos.Positions.ListDueIDs(ctx, e.dbExecutor, day)
	if err != nil {
		return nil, util.AsPersistence(fmt.Errorf("accrual run: failed to select due positions: %w", err))
	}
	report.Selected = len(ids)
	logger.Info("accrual run started", zap.Int("due_positions", len(ids)), zap.Int("workers", e.workers))

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(e.workers)

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		id := id
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcome := e.accrueOne(ctx, id, day)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case outcome.err != nil:
				report.Failures = append(report.Failures, domain.AccrualFailure{PositionID: id, Error: outcome.err.Error()})
				metrics.RecordAccrualPosition(metrics.OutcomeFailed)
				logger.Error("failed to accrue position",
					zap.Int64("position_id", id),
					zap.Int64("user_id", outcome.userID),
					zap.Error(outcome.err))
			case outcome.skipped:
				report.Skipped++
				metrics.RecordAccrualPosition(metrics.OutcomeSkipped)
			default:
				report.Processed++
				report.TotalPaid = report.TotalPaid.Add(outcome.position.DailyProfitAmount)
				if outcome.position.Status == domain.PositionStatusCompleted {
					report.Completed++
				}
				metrics.RecordAccrualPosition(metrics.OutcomeSuccess)
			}
			return nil
		})
	}
	_ = g.Wait()

	attempted := report.Processed + report.Skipped + len(report.Failures)
	report.Interrupted = attempted < report.Selected
	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].PositionID < report.Failures[j].PositionID
	})
	report.FinishedAt = time.Now().UTC()
	metrics.ObserveAccrualRun(report.FinishedAt.Sub(report.StartedAt))

	logger.Info("accrual run finished",
		zap.Int("processed", report.Processed),
		zap.Int("completed", report.Completed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failures)),
		zap.String("total_paid", report.TotalPaid.String()),
		zap.Bool("interrupted", report.Interrupted))

	// A cancelled run still announces what it committed.
	if err := e.publisher.Publish(context.WithoutCancel(ctx), &events.LedgerEvent{
		EventType:  events.TypeAccrualRunFinished,
		RunID:      report.RunID,
		Amount:     report.TotalPaid.String(),
		OccurredAt: report.FinishedAt,
	}); err != nil {
		logger.Debug("accrual event dropped", zap.Error(err))
	}
	return report, nil
}

// accrueOne advances one position, credits its owner and logs the payout in one transaction.
func (e *AccrualEngine) accrueOne(ctx context.Context, positionID int64, day time.Time) accrualOutcome {
	var outcome accrualOutcome
	err := e.tx.within(ctx, fmt.Sprintf("accrue position %d", positionID), func(q repository.DBExecutor) error {
		position, err := e.repos.Positions.GetDueForUpdate(ctx, q, positionID, day)
		if errors.Is(err, util.ErrNotFound) {
			return errPositionNotDue
		}
		if err != nil {
			return err
		}
		outcome.userID = position.UserID
		if !position.Accrue(day) {
			return errPositionNotDue
		}

		if err := e.repos.Positions.SaveAccrual(ctx, q, position); err != nil {
			return fmt.Errorf("failed to save position: %w", err)
		}
		// A zero-profit plan still counts down, but the ledger only carries positive entries.
		if position.DailyProfitAmount.IsPositive() {
			if _, err := e.repos.Wallets.Adjust(ctx, q, position.UserID, position.DailyProfitAmount); err != nil {
				return fmt.Errorf("failed to credit wallet: %w", err)
			}

			entry := domain.NewTransaction(position.UserID, domain.TransactionTypeProfit, position.DailyProfitAmount,
				domain.DescriptionDailyProfit, domain.TransactionStatusCompleted)
			if err := e.repos.Transactions.Append(ctx, q, entry); err != nil {
				return fmt.Errorf("failed to record profit: %w", err)
			}
		}

		outcome.position = position
		return nil
	})

	switch {
	case errors.Is(err, errPositionNotDue):
		outcome.skipped = true
	case err != nil:
		outcome.err = err
	}
	return outcome
}
