// internal/api/handler/ledger.go
package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"yieldwallet/internal/api/types"
	"yieldwallet/internal/domain"
	"yieldwallet/internal/service"
	"yieldwallet/internal/util"
)

// LedgerHandler handles HTTP requests for wallet operations.
type LedgerHandler struct {
	service service.LedgerService
	logger  *zap.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(svc service.LedgerService, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		service: svc,
		logger:  logger.Named("http"),
	}
}

// PurchaseRequest is the body of a plan purchase.
type PurchaseRequest struct {
	PlanID int64 `json:"plan_id"`
}

// WithdrawalRequest is the body of a withdrawal request.
type WithdrawalRequest struct {
	Amount decimal.Decimal `json:"amount"`
	domain.BankDetails
}

// AmountRequest carries a single amount, for recharges and admin credits.
type AmountRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// NotesRequest carries optional admin notes for a review decision.
type NotesRequest struct {
	Notes string `json:"notes"`
}

// OpenWallet provisions an empty wallet for a user, returning the existing one if already open.
// POST /wallets/{userID}
func (h *LedgerHandler) OpenWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	wallet, err := h.service.OpenWallet(r.Context(), userID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.OK("Wallet opened", wallet))
}

// GetBalance returns the wallet of a user.
// GET /wallets/{userID}
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	wallet, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.OK("", wallet))
}

// Reconcile compares the stored balance with the ledger.
// GET /wallets/{userID}/reconciliation
func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	rec, err := h.service.Reconcile(r.Context(), userID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.OK("", rec))
}

// PurchasePlan buys an investment plan.
// POST /wallets/{userID}/plans
func (h *LedgerHandler) PurchasePlan(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	var req PurchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	result, err := h.service.PurchasePlan(r.Context(), userID, req.PlanID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusCreated, types.OK("Plan purchased", result))
}

// RequestWithdrawal holds funds for a payout awaiting review.
// POST /wallets/{userID}/withdrawals
func (h *LedgerHandler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	var req WithdrawalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	result, err := h.service.RequestWithdrawal(r.Context(), userID, req.Amount, req.BankDetails)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusCreated, types.OK("Withdrawal requested", result))
}

// ClaimCheckin pays the daily check-in bonus.
// POST /wallets/{userID}/checkin
func (h *LedgerHandler) ClaimCheckin(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	result, err := h.service.ClaimCheckinBonus(r.Context(), userID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.OK("Check-in bonus credited", result))
}

// RequestRecharge records a pending deposit.
// POST /wallets/{userID}/recharges
func (h *LedgerHandler) RequestRecharge(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	var req AmountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	result, err := h.service.RequestRecharge(r.Context(), userID, req.Amount)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusCreated, types.OK("Recharge requested", result))
}

// CreditWallet credits a wallet directly.
// POST /admin/wallets/{userID}/credit
func (h *LedgerHandler) CreditWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	var req AmountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	result, err := h.service.CreditWalletAdmin(r.Context(), userID, req.Amount, req.Description)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.OK("Wallet credited", result))
}

// ApproveWithdrawal marks a pending withdrawal as paid out.
// POST /admin/withdrawals/{requestID}/approve
func (h *LedgerHandler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.reviewWithdrawal(w, r, h.service.ApproveWithdrawal, "Withdrawal approved")
}

// RejectWithdrawal refunds a pending withdrawal.
// POST /admin/withdrawals/{requestID}/reject
func (h *LedgerHandler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.reviewWithdrawal(w, r, h.service.RejectWithdrawal, "Withdrawal rejected")
}

type withdrawalDecision func(ctx context.Context, requestID int64, notes string) (*service.WithdrawalResult, error)

func (h *LedgerHandler) reviewWithdrawal(w http.ResponseWriter, r *http.Request, decide withdrawalDecision, message string) {
	requestID, err := idParam(r, "requestID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	notes, err := optionalNotes(w, r)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	result, err := decide(r.Context(), requestID, notes)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.OK(message, result))
}

// ApproveRecharge credits a pending recharge.
// POST /admin/recharges/{transactionID}/approve
func (h *LedgerHandler) ApproveRecharge(w http.ResponseWriter, r *http.Request) {
	txID, err := idParam(r, "transactionID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	result, err := h.service.ApproveRecharge(r.Context(), txID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.OK("Recharge approved", result))
}

// RejectRecharge closes a pending recharge without crediting it.
// POST /admin/recharges/{transactionID}/reject
func (h *LedgerHandler) RejectRecharge(w http.ResponseWriter, r *http.Request) {
	txID, err := idParam(r, "transactionID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	notes, err := optionalNotes(w, r)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	result, err := h.service.RejectRecharge(r.Context(), txID, notes)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.OK("Recharge rejected", result))
}

// optionalNotes decodes a NotesRequest when the request has a body.
func optionalNotes(w http.ResponseWriter, r *http.Request) (string, error) {
	if r.ContentLength == 0 {
		return "", nil
	}
	var req NotesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", util.ErrInvalidInput
	}
	return req.Notes, nil
}
