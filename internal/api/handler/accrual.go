// internal/api/handler/accrual.go
package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"yieldwallet/internal/api/types"
	"yieldwallet/internal/domain"
	"yieldwallet/internal/util"
)

// AccrualTrigger runs the accrual batch for one calendar day.
type AccrualTrigger interface {
	RunOnce(ctx context.Context, runDate time.Time) (*domain.AccrualReport, error)
}

// AccrualHandler lets operators start an accrual run on demand.
type AccrualHandler struct {
	trigger AccrualTrigger
	clock   util.Clock
	logger  *zap.Logger
}

// NewAccrualHandler creates a new AccrualHandler.
func NewAccrualHandler(trigger AccrualTrigger, clock util.Clock, logger *zap.Logger) *AccrualHandler {
	return &AccrualHandler{
		trigger: trigger,
		clock:   clock,
		logger:  logger.Named("http"),
	}
}

// RunRequest optionally names the day to run; today when empty.
type RunRequest struct {
	RunDate string `json:"run_date,omitempty"`
}

// Run executes the batch synchronously and returns its report.
// POST /admin/accrual/runs
func (h *AccrualHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondWithError(w, h.logger, err)
			return
		}
	}

	runDate := h.clock.Now()
	if req.RunDate != "" {
		day, err := domain.ParseDate(req.RunDate)
		if err != nil {
			respondWithError(w, h.logger, fmt.Errorf("%w: run_date must be YYYY-MM-DD", util.ErrInvalidInput))
			return
		}
		runDate = day
	}

	// The run outlives the request timeout so a dropped connection does not abort it halfway.
	report, err := h.trigger.RunOnce(context.WithoutCancel(r.Context()), runDate)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	message := "Accrual run completed"
	if len(report.Failures) > 0 || report.Interrupted {
		status = http.StatusMultiStatus
		message = "Accrual run completed with failures"
	}
	respondWithJSON(w, h.logger, status, types.OK(message, report))
}
