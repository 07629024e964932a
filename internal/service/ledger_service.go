// internal/service/ledger_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"yieldwallet/internal/domain"
	"yieldwallet/internal/events"
	"yieldwallet/internal/metrics"
	"yieldwallet/internal/repository"
	"yieldwallet/internal/util"
	"yieldwallet/pkg/db"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultCheckinBonus is the daily check-in bonus when none is configured.
var DefaultCheckinBonus = decimal.NewFromInt(50)

// LedgerService defines the money-moving operations on wallets.
// Every method is one atomic unit: it either commits all of its changes or none.
type LedgerService interface {
	OpenWallet(ctx context.Context, userID int64) (*domain.Wallet, error)
	PurchasePlan(ctx context.Context, userID, planID int64) (*PurchaseResult, error)
	RequestWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, bank domain.BankDetails) (*WithdrawalResult, error)
	ApproveWithdrawal(ctx context.Context, requestID int64, adminNotes string) (*WithdrawalResult, error)
	RejectWithdrawal(ctx context.Context, requestID int64, adminNotes string) (*WithdrawalResult, error)
	ClaimCheckinBonus(ctx context.Context, userID int64) (*LedgerResult, error)
	CreditWalletAdmin(ctx context.Context, userID int64, amount decimal.Decimal, description string) (*LedgerResult, error)
	RequestRecharge(ctx context.Context, userID int64, amount decimal.Decimal) (*LedgerResult, error)
	ApproveRecharge(ctx context.Context, transactionID int64) (*LedgerResult, error)
	RejectRecharge(ctx context.Context, transactionID int64, notes string) (*LedgerResult, error)
	GetBalance(ctx context.Context, userID int64) (*domain.Wallet, error)
	Reconcile(ctx context.Context, userID int64) (*domain.Reconciliation, error)
}

// Repositories groups the storage collaborators of the ledger.
type Repositories struct {
	Wallets      repository.WalletRepository
	Transactions repository.TransactionRepository
	Positions    repository.PositionRepository
	Withdrawals  repository.WithdrawalRepository
	Plans        repository.PlanCatalog
}

// LedgerOptions configures a LedgerService.
type LedgerOptions struct {
	CheckinBonus decimal.Decimal
	Clock        util.Clock
	Publisher    events.Publisher
	Logger       *zap.Logger
}

// PurchaseResult is returned by PurchasePlan.
type PurchaseResult struct {
	Balance     decimal.Decimal     `json:"balance"`
	Transaction *domain.Transaction `json:"transaction"`
	Position    *domain.Position    `json:"position"`
}

// WithdrawalResult is returned by the withdrawal workflow. Transaction is nil when
// the paired ledger entry could not be located.
type WithdrawalResult struct {
	Balance     decimal.Decimal           `json:"balance"`
	Request     *domain.WithdrawalRequest `json:"request"`
	Transaction *domain.Transaction       `json:"transaction,omitempty"`
}

// LedgerResult is returned by single-entry operations.
type LedgerResult struct {
	Balance     decimal.Decimal     `json:"balance"`
	Transaction *domain.Transaction `json:"transaction"`
}

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	dbExecutor   repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	tx           txRunner
	repos        Repositories
	checkinBonus decimal.Decimal
	clock        util.Clock
	publisher    events.Publisher
	logger       *zap.Logger
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	repos Repositories,
	txFuncs TxFuncs,
	opts LedgerOptions,
) LedgerService {
	if opts.CheckinBonus.LessThanOrEqual(decimal.Zero) {
		opts.CheckinBonus = DefaultCheckinBonus
	}
	if opts.Clock == nil {
		opts.Clock = util.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NewLogPublisher(opts.Logger)
	}
	return &ledgerService{
		dbExecutor:   dbExecutor,
		tx:           txRunner{dbBeginner: dbBeginner, funcs: txFuncs},
		repos:        repos,
		checkinBonus: opts.CheckinBonus,
		clock:        opts.Clock,
		publisher:    opts.Publisher,
		logger:       opts.Logger.Named("ledger"),
	}
}

// PurchasePlan debits the plan price and opens a position with the plan's terms.
func (s *ledgerService) PurchasePlan(ctx context.Context, userID, planID int64) (*PurchaseResult, error) {
	const op = "purchase_plan"
	if userID <= 0 || planID <= 0 {
		return nil, s.finish(op, fmt.Errorf("purchase plan: %w: user and plan are required", util.ErrInvalidInput))
	}

	plan, err := s.repos.Plans.GetActivePlan(ctx, s.dbExecutor, planID)
	if err != nil {
		return nil, s.finish(op, util.AsPersistence(fmt.Errorf("purchase plan: %w", err)))
	}
	if err := s.checkFunds(ctx, userID, plan.Price); err != nil {
		return nil, s.finish(op, fmt.Errorf("purchase plan: %w", err))
	}

	result := &PurchaseResult{}
	err = s.tx.within(ctx, "purchase plan", func(q repository.DBExecutor) error {
		balance, err := s.repos.Wallets.Adjust(ctx, q, userID, plan.Price.Neg())
		if err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}

		entry := domain.NewTransaction(userID, domain.TransactionTypePlanPurchase, plan.Price,
			domain.DescriptionPurchasePrefix+plan.Name, domain.TransactionStatusCompleted)
		if err := s.repos.Transactions.Append(ctx, q, entry); err != nil {
			return fmt.Errorf("failed to record purchase: %w", err)
		}

		position := domain.NewPosition(userID, plan, s.clock.Now())
		if err := s.repos.Positions.CreatePosition(ctx, q, position); err != nil {
			return fmt.Errorf("failed to create position: %w", err)
		}

		result.Balance, result.Transaction, result.Position = balance, entry, position
		return nil
	})
	if err != nil {
		return nil, s.finish(op, err)
	}

	s.publish(ctx, &events.LedgerEvent{
		EventType:     events.TypePlanPurchased,
		UserID:        userID,
		TransactionID: result.Transaction.ID,
		ReferenceID:   result.Position.ID,
		Amount:        plan.Price.String(),
		Balance:       result.Balance.String(),
	})
	return result, s.finish(op, nil)
}

// RequestWithdrawal holds amount from the wallet and opens a pending request.
func (s *ledgerService) RequestWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, bank domain.BankDetails) (*WithdrawalResult, error) {
	const op = "request_withdrawal"
	if err := validateWithdrawal(userID, amount, bank); err != nil {
		return nil, s.finish(op, fmt.Errorf("request withdrawal: %w", err))
	}
	if err := s.checkFunds(ctx, userID, amount); err != nil {
		return nil, s.finish(op, fmt.Errorf("request withdrawal: %w", err))
	}

	result := &WithdrawalResult{}
	err := s.tx.within(ctx, "request withdrawal", func(q repository.DBExecutor) error {
		balance, err := s.repos.Wallets.Adjust(ctx, q, userID, amount.Neg())
		if err != nil {
			return fmt.Errorf("failed to hold funds: %w", err)
		}

		entry := domain.NewTransaction(userID, domain.TransactionTypeWithdrawal, amount,
			domain.DescriptionWithdrawalPrefix+bank.BankName, domain.TransactionStatusPending)
		if err := s.repos.Transactions.Append(ctx, q, entry); err != nil {
			return fmt.Errorf("failed to record withdrawal: %w", err)
		}

		req := domain.NewWithdrawalRequest(userID, amount, bank, entry.ID)
		if err := s.repos.Withdrawals.CreateRequest(ctx, q, req); err != nil {
			return fmt.Errorf("failed to create withdrawal request: %w", err)
		}

		result.Balance, result.Request, result.Transaction = balance, req, entry
		return nil
	})
	if err != nil {
		return nil, s.finish(op, err)
	}

	s.publish(ctx, &events.LedgerEvent{
		EventType:     events.TypeWithdrawalRequested,
		UserID:        userID,
		TransactionID: result.Transaction.ID,
		ReferenceID:   result.Request.ID,
		Amount:        amount.String(),
		Balance:       result.Balance.String(),
	})
	return result, s.finish(op, nil)
}

// ApproveWithdrawal finalizes a pending request. The funds were already debited when it was requested.
func (s *ledgerService) ApproveWithdrawal(ctx context.Context, requestID int64, adminNotes string) (*WithdrawalResult, error) {
	return s.processWithdrawal(ctx, requestID, domain.WithdrawalStatusApproved, adminNotes)
}

// RejectWithdrawal refunds the held amount and cancels the paired ledger entry.
func (s *ledgerService) RejectWithdrawal(ctx context.Context, requestID int64, adminNotes string) (*WithdrawalResult, error) {
	return s.processWithdrawal(ctx, requestID, domain.WithdrawalStatusRejected, adminNotes)
}

func (s *ledgerService) processWithdrawal(ctx context.Context, requestID int64, status domain.WithdrawalStatus, notes string) (*WithdrawalResult, error) {
	op, label, defaultNotes := "approve_withdrawal", "approve withdrawal", domain.DefaultApproveNotes
	if status == domain.WithdrawalStatusRejected {
		op, label, defaultNotes = "reject_withdrawal", "reject withdrawal", domain.DefaultRejectNotes
	}
	if requestID <= 0 {
		return nil, s.finish(op, fmt.Errorf("%s: %w: request id is required", label, util.ErrInvalidInput))
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		notes = defaultNotes
	}

	result := &WithdrawalResult{}
	err := s.tx.within(ctx, label, func(q repository.DBExecutor) error {
		req, err := s.repos.Withdrawals.GetForUpdate(ctx, q, requestID)
		if err != nil {
			return err
		}
		if !req.IsPending() {
			return fmt.Errorf("request %d is %s: %w", requestID, req.Status, util.ErrInvalidState)
		}

		entry, err := s.pairedEntry(ctx, q, req)
		if err != nil {
			return err
		}

		req.Process(status, notes, s.clock.Now().UTC())
		if err := s.repos.Withdrawals.SaveProcessed(ctx, q, req); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}

		txStatus, suffix := domain.TransactionStatusCompleted, ""
		if status == domain.WithdrawalStatusRejected {
			txStatus, suffix = domain.TransactionStatusCancelled, domain.RejectionSuffix(notes)

			result.Balance, err = s.repos.Wallets.Adjust(ctx, q, req.UserID, req.Amount)
			if err != nil {
				return fmt.Errorf("failed to refund wallet: %w", err)
			}
		} else {
			wallet, err := s.repos.Wallets.GetWallet(ctx, q, req.UserID)
			if err != nil {
				return err
			}
			result.Balance = wallet.Balance
		}

		if entry != nil {
			if err := s.repos.Transactions.Finalize(ctx, q, entry.ID, txStatus, suffix); err != nil {
				return fmt.Errorf("failed to finalize transaction %d: %w", entry.ID, err)
			}
			entry.Status = txStatus
			entry.Description += suffix
		}

		result.Request, result.Transaction = req, entry
		return nil
	})
	if err != nil {
		return nil, s.finish(op, err)
	}

	eventType := events.TypeWithdrawalApproved
	if status == domain.WithdrawalStatusRejected {
		eventType = events.TypeWithdrawalRejected
	}
	event := &events.LedgerEvent{
		EventType:   eventType,
		UserID:      result.Request.UserID,
		ReferenceID: result.Request.ID,
		Amount:      result.Request.Amount.String(),
		Balance:     result.Balance.String(),
	}
	if result.Transaction != nil {
		event.TransactionID = result.Transaction.ID
	}
	s.publish(ctx, event)
	return result, s.finish(op, nil)
}

// pairedEntry locates the pending withdrawal entry held for req. Requests created by this
// service carry its ID; older rows fall back to the latest pending entry with the same
// user and amount. A missing entry is logged and does not block the transition.
func (s *ledgerService) pairedEntry(ctx context.Context, q repository.DBExecutor, req *domain.WithdrawalRequest) (*domain.Transaction, error) {
	if req.TransactionID != nil {
		entry, err := s.repos.Transactions.GetForUpdate(ctx, q, *req.TransactionID)
		switch {
		case err == nil && entry.Status == domain.TransactionStatusPending:
			return entry, nil
		case err == nil:
			s.logger.Warn("paired withdrawal transaction is not pending",
				zap.Int64("request_id", req.ID),
				zap.Int64("transaction_id", entry.ID),
				zap.String("status", string(entry.Status)))
			return nil, nil
		case !errors.Is(err, util.ErrNotFound):
			return nil, err
		}
	}

	entry, err := s.repos.Transactions.FindLatestPending(ctx, q, req.UserID, req.Amount, domain.TransactionTypeWithdrawal)
	if errors.Is(err, util.ErrNotFound) {
		s.logger.Warn("no pending withdrawal transaction found for request",
			zap.Int64("request_id", req.ID),
			zap.Int64("user_id", req.UserID),
			zap.String("amount", req.Amount.String()))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ClaimCheckinBonus credits the daily bonus once per calendar day.
func (s *ledgerService) ClaimCheckinBonus(ctx context.Context, userID int64) (*LedgerResult, error) {
	const op = "claim_checkin_bonus"
	if userID <= 0 {
		return nil, s.finish(op, fmt.Errorf("claim check-in bonus: %w: user is required", util.ErrInvalidInput))
	}

	today := s.clock.Now()
	wallet, err := s.repos.Wallets.GetWallet(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, s.finish(op, util.AsPersistence(fmt.Errorf("claim check-in bonus: %w", err)))
	}
	if wallet.CheckedInOn(today) {
		return nil, s.finish(op, fmt.Errorf("claim check-in bonus: %w", util.ErrAlreadyClaimed))
	}

	result := &LedgerResult{}
	err = s.tx.within(ctx, "claim check-in bonus", func(q repository.DBExecutor) error {
		balance, err := s.repos.Wallets.CreditCheckinBonus(ctx, q, userID, s.checkinBonus, today)
		if err != nil {
			return err
		}

		entry := domain.NewTransaction(userID, domain.TransactionTypeCheckinBonus, s.checkinBonus,
			domain.DescriptionCheckinBonus, domain.TransactionStatusCompleted)
		if err := s.repos.Transactions.Append(ctx, q, entry); err != nil {
			return fmt.Errorf("failed to record bonus: %w", err)
		}

		result.Balance, result.Transaction = balance, entry
		return nil
	})
	if err != nil {
		return nil, s.finish(op, err)
	}

	s.publishResult(ctx, events.TypeCheckinBonus, userID, result)
	return result, s.finish(op, nil)
}

// CreditWalletAdmin credits a wallet directly on an administrator's behalf.
func (s *ledgerService) CreditWalletAdmin(ctx context.Context, userID int64, amount decimal.Decimal, description string) (*LedgerResult, error) {
	const op = "credit_wallet_admin"
	if userID <= 0 {
		return nil, s.finish(op, fmt.Errorf("admin credit: %w: user is required", util.ErrInvalidInput))
	}
	if err := validateAmount(amount); err != nil {
		return nil, s.finish(op, fmt.Errorf("admin credit: %w", err))
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = domain.DescriptionAdminCredit
	}

	result := &LedgerResult{}
	err := s.tx.within(ctx, "admin credit", func(q repository.DBExecutor) error {
		balance, err := s.repos.Wallets.Adjust(ctx, q, userID, amount)
		if err != nil {
			return fmt.Errorf("failed to credit wallet: %w", err)
		}

		entry := domain.NewTransaction(userID, domain.TransactionTypeAdminCredit, amount, description, domain.TransactionStatusCompleted)
		if err := s.repos.Transactions.Append(ctx, q, entry); err != nil {
			return fmt.Errorf("failed to record credit: %w", err)
		}

		result.Balance, result.Transaction = balance, entry
		return nil
	})
	if err != nil {
		return nil, s.finish(op, err)
	}

	s.publishResult(ctx, events.TypeAdminCredit, userID, result)
	return result, s.finish(op, nil)
}

// RequestRecharge records a pending recharge. The wallet is credited only on approval.
func (s *ledgerService) RequestRecharge(ctx context.Context, userID int64, amount decimal.Decimal) (*LedgerResult, error) {
	const op = "request_recharge"
	if userID <= 0 {
		return nil, s.finish(op, fmt.Errorf("request recharge: %w: user is required", util.ErrInvalidInput))
	}
	if err := validateAmount(amount); err != nil {
		return nil, s.finish(op, fmt.Errorf("request recharge: %w", err))
	}

	result := &LedgerResult{}
	err := s.tx.within(ctx, "request recharge", func(q repository.DBExecutor) error {
		wallet, err := s.repos.Wallets.GetWallet(ctx, q, userID)
		if err != nil {
			return err
		}

		entry := domain.NewTransaction(userID, domain.TransactionTypeRecharge, amount, domain.DescriptionRecharge, domain.TransactionStatusPending)
		if err := s.repos.Transactions.Append(ctx, q, entry); err != nil {
			return fmt.Errorf("failed to record recharge: %w", err)
		}

		result.Balance, result.Transaction = wallet.Balance, entry
		return nil
	})
	if err != nil {
		return nil, s.finish(op, err)
	}

	s.publishResult(ctx, events.TypeRechargeRequested, userID, result)
	return result, s.finish(op, nil)
}

// ApproveRecharge credits a pending recharge and completes its entry.
func (s *ledgerService) ApproveRecharge(ctx context.Context, transactionID int64) (*LedgerResult, error) {
	return s.processRecharge(ctx, transactionID, true, "")
}

// RejectRecharge cancels a pending recharge without touching the balance.
func (s *ledgerService) RejectRecharge(ctx context.Context, transactionID int64, notes string) (*LedgerResult, error) {
	return s.processRecharge(ctx, transactionID, false, notes)
}

func (s *ledgerService) processRecharge(ctx context.Context, transactionID int64, approve bool, notes string) (*LedgerResult, error) {
	op, label := "approve_recharge", "approve recharge"
	if !approve {
		op, label = "reject_recharge", "reject recharge"
	}
	if transactionID <= 0 {
		return nil, s.finish(op, fmt.Errorf("%s: %w: transaction id is required", label, util.ErrInvalidInput))
	}

	result := &LedgerResult{}
	err := s.tx.within(ctx, label, func(q repository.DBExecutor) error {
		entry, err := s.repos.Transactions.GetForUpdate(ctx, q, transactionID)
		if err != nil {
			return err
		}
		if entry.Type != domain.TransactionTypeRecharge || entry.Status != domain.TransactionStatusPending {
			return fmt.Errorf("transaction %d is a %s %s entry: %w", transactionID, entry.Status, entry.Type, util.ErrInvalidState)
		}

		if approve {
			result.Balance, err = s.repos.Wallets.Adjust(ctx, q, entry.UserID, entry.Amount)
			if err != nil {
				return fmt.Errorf("failed to credit wallet: %w", err)
			}
			if err := s.repos.Transactions.Finalize(ctx, q, entry.ID, domain.TransactionStatusCompleted, ""); err != nil {
				return err
			}
			entry.Status = domain.TransactionStatusCompleted
		} else {
			notes = strings.TrimSpace(notes)
			if notes == "" {
				notes = domain.DefaultRejectNotes
			}
			suffix := domain.RejectionSuffix(notes)
			if err := s.repos.Transactions.Finalize(ctx, q, entry.ID, domain.TransactionStatusCancelled, suffix); err != nil {
				return err
			}
			entry.Status = domain.TransactionStatusCancelled
			entry.Description += suffix

			wallet, err := s.repos.Wallets.GetWallet(ctx, q, entry.UserID)
			if err != nil {
				return err
			}
			result.Balance = wallet.Balance
		}

		result.Transaction = entry
		return nil
	})
	if err != nil {
		return nil, s.finish(op, err)
	}

	eventType := events.TypeRechargeApproved
	if !approve {
		eventType = events.TypeRechargeRejected
	}
	s.publishResult(ctx, eventType, result.Transaction.UserID, result)
	return result, s.finish(op, nil)
}

// OpenWallet provisions an empty wallet for a user registered by the identity service.
// Opening a wallet that already exists returns it unchanged.
func (s *ledgerService) OpenWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	const op = "open_wallet"
	if userID <= 0 {
		return nil, s.finish(op, fmt.Errorf("open wallet: %w: user is required", util.ErrInvalidInput))
	}

	var wallet *domain.Wallet
	err := s.tx.within(ctx, "open wallet", func(q repository.DBExecutor) error {
		if err := s.repos.Wallets.CreateWallet(ctx, q, domain.NewWallet(userID)); err != nil {
			return fmt.Errorf("failed to create wallet: %w", err)
		}
		w, err := s.repos.Wallets.GetWallet(ctx, q, userID)
		if err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		return nil, s.finish(op, err)
	}
	return wallet, s.finish(op, nil)
}

// GetBalance returns the user's wallet.
func (s *ledgerService) GetBalance(ctx context.Context, userID int64) (*domain.Wallet, error) {
	const op = "get_balance"
	if userID <= 0 {
		return nil, s.finish(op, fmt.Errorf("get balance: %w: user is required", util.ErrInvalidInput))
	}
	wallet, err := s.repos.Wallets.GetWallet(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, s.finish(op, util.AsPersistence(fmt.Errorf("get balance: %w", err)))
	}
	return wallet, s.finish(op, nil)
}

// Reconcile compares the stored balance with the balance implied by the ledger.
func (s *ledgerService) Reconcile(ctx context.Context, userID int64) (*domain.Reconciliation, error) {
	const op = "reconcile"
	if userID <= 0 {
		return nil, s.finish(op, fmt.Errorf("reconcile: %w: user is required", util.ErrInvalidInput))
	}

	var rec *domain.Reconciliation
	err := s.tx.within(ctx, "reconcile", func(q repository.DBExecutor) error {
		wallet, err := s.repos.Wallets.GetWallet(ctx, q, userID)
		if err != nil {
			return err
		}
		ledgerBalance, err := s.repos.Transactions.LedgerBalance(ctx, q, userID)
		if err != nil {
			return err
		}
		rec = domain.NewReconciliation(userID, wallet.Balance, ledgerBalance)
		return nil
	})
	if err != nil {
		return nil, s.finish(op, err)
	}

	if !rec.Balanced {
		s.logger.Warn("wallet balance does not match ledger",
			zap.Int64("user_id", userID),
			zap.String("balance", rec.Balance.String()),
			zap.String("ledger_balance", rec.LedgerBalance.String()))
	}
	return rec, s.finish(op, nil)
}

// checkFunds rejects a debit early when the wallet clearly cannot cover it.
// The conditional debit inside the transaction remains the authoritative check.
func (s *ledgerService) checkFunds(ctx context.Context, userID int64, amount decimal.Decimal) error {
	wallet, err := s.repos.Wallets.GetWallet(ctx, s.dbExecutor, userID)
	if err != nil {
		return util.AsPersistence(err)
	}
	if wallet.Balance.LessThan(amount) {
		return util.ErrInsufficientBalance
	}
	return nil
}

// validateAmount refuses amounts the NUMERIC(20, 4) columns would round.
func validateAmount(amount decimal.Decimal) error {
	if !domain.ValidAmount(amount) {
		return fmt.Errorf("%w: amount must be positive with at most %d decimal places", util.ErrInvalidInput, domain.AmountScale)
	}
	return nil
}

func validateWithdrawal(userID int64, amount decimal.Decimal, bank domain.BankDetails) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user is required", util.ErrInvalidInput)
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	if strings.TrimSpace(bank.BankName) == "" || strings.TrimSpace(bank.AccountNumber) == "" || strings.TrimSpace(bank.AccountName) == "" {
		return fmt.Errorf("%w: bank name, account number and account name are required", util.ErrInvalidInput)
	}
	return nil
}

// finish records the outcome of op and logs storage failures.
func (s *ledgerService) finish(op string, err error) error {
	switch {
	case err == nil:
		metrics.RecordOperation(op, metrics.OutcomeSuccess)
	case errors.Is(err, util.ErrPersistence):
		metrics.RecordOperation(op, metrics.OutcomeFailed)
		s.logger.Error("ledger operation failed", zap.String("operation", op), zap.Error(err))
	default:
		metrics.RecordOperation(op, metrics.OutcomeRejected)
		s.logger.Debug("ledger operation rejected", zap.String("operation", op), zap.Error(err))
	}
	return err
}

func (s *ledgerService) publishResult(ctx context.Context, eventType string, userID int64, result *LedgerResult) {
	s.publish(ctx, &events.LedgerEvent{
		EventType:     eventType,
		UserID:        userID,
		TransactionID: result.Transaction.ID,
		Amount:        result.Transaction.Amount.String(),
		Balance:       result.Balance.String(),
	})
}

// publish sends a post-commit event. Failures are logged by the publisher and never
// surface to the caller, since the ledger change is already durable.
func (s *ledgerService) publish(ctx context.Context, event *events.LedgerEvent) {
	event.OccurredAt = s.clock.Now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Debug("ledger event dropped", zap.String("event_type", event.EventType), zap.Error(err))
	}
}
