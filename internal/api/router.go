// internal/api/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"yieldwallet/internal/api/handler"
	apimw "yieldwallet/internal/api/middleware"
	"yieldwallet/internal/metrics"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(
	ledgerHandler *handler.LedgerHandler,
	accrualHandler *handler.AccrualHandler,
	limiter *apimw.RateLimiter,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apimw.RequestLogger(logger.Named("http")))
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/wallets/{userID}", func(r chi.Router) {
		r.Use(middleware.Timeout(handler.DefaultTimeout))
		r.Use(limiter.Handler)
		r.Get("/", ledgerHandler.GetBalance)
		r.Post("/", ledgerHandler.OpenWallet)
		r.Get("/reconciliation", ledgerHandler.Reconcile)
		r.Post("/plans", ledgerHandler.PurchasePlan)
		r.Post("/withdrawals", ledgerHandler.RequestWithdrawal)
		r.Post("/checkin", ledgerHandler.ClaimCheckin)
		r.Post("/recharges", ledgerHandler.RequestRecharge)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(handler.DefaultTimeout))
			r.Post("/wallets/{userID}/credit", ledgerHandler.CreditWallet)
			r.Post("/withdrawals/{requestID}/approve", ledgerHandler.ApproveWithdrawal)
			r.Post("/withdrawals/{requestID}/reject", ledgerHandler.RejectWithdrawal)
			r.Post("/recharges/{transactionID}/approve", ledgerHandler.ApproveRecharge)
			r.Post("/recharges/{transactionID}/reject", ledgerHandler.RejectRecharge)
		})

		// Accrual runs can take longer than the request timeout.
		r.Post("/accrual/runs", accrualHandler.Run)
	})

	return r
}
