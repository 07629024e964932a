// internal/service/fakes_test.go
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"yieldwallet/internal/domain"
	"yieldwallet/internal/repository"
	"yieldwallet/internal/util"
	"yieldwallet/pkg/db"

	"github.com/shopspring/decimal"
)

// storeState is everything a fake transaction can roll back.
type storeState struct {
	wallets      map[int64]domain.Wallet
	transactions map[int64]domain.Transaction
	positions    map[int64]domain.Position
	requests     map[int64]domain.WithdrawalRequest
	nextID       int64
}

func (s storeState) clone() storeState {
	c := storeState{
		wallets:      make(map[int64]domain.Wallet, len(s.wallets)),
		transactions: make(map[int64]domain.Transaction, len(s.transactions)),
		positions:    make(map[int64]domain.Position, len(s.positions)),
		requests:     make(map[int64]domain.WithdrawalRequest, len(s.requests)),
		nextID:       s.nextID,
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.positions {
		c.positions[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	return c
}

// fakeStore is an in-memory ledger with serialized, rollback-capable transactions.
// Holding txMu for the life of a transaction gives the same mutual exclusion as the
// row locks taken by the PostgreSQL repositories.
type fakeStore struct {
	txMu  sync.Mutex
	mu    sync.RWMutex
	state storeState
	plans map[int64]domain.Plan

	// failAppend, when set, can refuse ledger appends to simulate storage failures.
	failAppend func(*domain.Transaction) error
	commits    int
	rollbacks  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		state: storeState{
			wallets:      map[int64]domain.Wallet{},
			transactions: map[int64]domain.Transaction{},
			positions:    map[int64]domain.Position{},
			requests:     map[int64]domain.WithdrawalRequest{},
		},
		plans: map[int64]domain.Plan{},
	}
}

func (s *fakeStore) addWallet(userID int64, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := domain.NewWallet(userID)
	w.Balance = balance
	s.state.wallets[userID] = *w
}

func (s *fakeStore) addPlan(plan domain.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = plan
}

func (s *fakeStore) id() int64 {
	s.state.nextID++
	return s.state.nextID
}

func (s *fakeStore) wallet(userID int64) domain.Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.wallets[userID]
}

func (s *fakeStore) position(id int64) domain.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.positions[id]
}

func (s *fakeStore) transaction(id int64) domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.transactions[id]
}

func (s *fakeStore) request(id int64) domain.WithdrawalRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.requests[id]
}

func (s *fakeStore) transactionsOf(userID int64, txType domain.TransactionType) []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Transaction
	for _, tx := range s.state.transactions {
		if tx.UserID == userID && tx.Type == txType {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeStore) ledgerBalance(userID int64) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, tx := range s.state.transactions {
		if tx.UserID == userID {
			total = total.Add(tx.SignedEffect())
		}
	}
	return total
}

// txFuncs returns transaction functions bound to the store.
func (s *fakeStore) txFuncs() TxFuncs {
	return TxFuncs{
		Begin: func(ctx context.Context, _ db.DBTxBeginner) (db.TxController, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			s.txMu.Lock()
			s.mu.RLock()
			snapshot := s.state.clone()
			s.mu.RUnlock()
			return &fakeTx{store: s, snapshot: snapshot}, nil
		},
		Commit:   db.CommitTx,
		Rollback: db.RollbackTx,
	}
}

func (s *fakeStore) repositories() Repositories {
	return Repositories{
		Wallets:      fakeWallets{s},
		Transactions: fakeTransactions{s},
		Positions:    fakePositions{s},
		Withdrawals:  fakeWithdrawals{s},
		Plans:        fakePlans{s},
	}
}

// fakeTx implements db.TxController and repository.DBExecutor.
type fakeTx struct {
	store    *fakeStore
	snapshot storeState
	done     bool
}

func (t *fakeTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.store.mu.Lock()
	t.store.commits++
	t.store.mu.Unlock()
	t.store.txMu.Unlock()
	return nil
}

func (t *fakeTx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.store.mu.Lock()
	t.store.state = t.snapshot
	t.store.rollbacks++
	t.store.mu.Unlock()
	t.store.txMu.Unlock()
	return nil
}

var errNoSQL = errors.New("fake store does not execute SQL")

func (t *fakeTx) GetContext(context.Context, interface{}, string, ...interface{}) error    { return errNoSQL }
func (t *fakeTx) SelectContext(context.Context, interface{}, string, ...interface{}) error { return errNoSQL }
func (t *fakeTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}
func (t *fakeTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }

var _ repository.DBExecutor = (*fakeTx)(nil)

type fakeWallets struct{ s *fakeStore }

func (f fakeWallets) CreateWallet(_ context.Context, _ repository.DBExecutor, w *domain.Wallet) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.state.wallets[w.UserID]; !ok {
		f.s.state.wallets[w.UserID] = *w
	}
	return nil
}

func (f fakeWallets) GetWallet(_ context.Context, _ repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	w, ok := f.s.state.wallets[userID]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	return &w, nil
}

func (f fakeWallets) Adjust(_ context.Context, _ repository.DBExecutor, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	w, ok := f.s.state.wallets[userID]
	if !ok {
		return decimal.Zero, fmt.Errorf("user %d: %w", userID, util.ErrUserNotFound)
	}
	next := w.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, util.ErrInsufficientBalance
	}
	w.Balance = next
	f.s.state.wallets[userID] = w
	return next, nil
}

func (f fakeWallets) CreditCheckinBonus(_ context.Context, _ repository.DBExecutor, userID int64, amount decimal.Decimal, day time.Time) (decimal.Decimal, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	w, ok := f.s.state.wallets[userID]
	if !ok {
		return decimal.Zero, util.ErrUserNotFound
	}
	if w.CheckedInOn(day) {
		return decimal.Zero, util.ErrAlreadyClaimed
	}
	d := domain.DateOf(day)
	w.Balance = w.Balance.Add(amount)
	w.LastCheckinDate = &d
	f.s.state.wallets[userID] = w
	return w.Balance, nil
}

type fakeTransactions struct{ s *fakeStore }

func (f fakeTransactions) Append(_ context.Context, _ repository.DBExecutor, tx *domain.Transaction) error {
	if f.s.failAppend != nil {
		if err := f.s.failAppend(tx); err != nil {
			return err
		}
	}
	if !tx.Amount.IsPositive() {
		return errors.New(`pq: new row for relation "transactions" violates check constraint "transactions_amount_check"`)
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	tx.ID = f.s.id()
	f.s.state.transactions[tx.ID] = *tx
	return nil
}

func (f fakeTransactions) GetForUpdate(_ context.Context, _ repository.DBExecutor, id int64) (*domain.Transaction, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	tx, ok := f.s.state.transactions[id]
	if !ok {
		return nil, util.ErrTransactionNotFound
	}
	return &tx, nil
}

func (f fakeTransactions) FindLatestPending(_ context.Context, _ repository.DBExecutor, userID int64, amount decimal.Decimal, txType domain.TransactionType) (*domain.Transaction, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	var latest *domain.Transaction
	for _, tx := range f.s.state.transactions {
		if tx.UserID != userID || tx.Type != txType || tx.Status != domain.TransactionStatusPending || !tx.Amount.Equal(amount) {
			continue
		}
		if latest == nil || tx.CreatedAt.After(latest.CreatedAt) || (tx.CreatedAt.Equal(latest.CreatedAt) && tx.ID > latest.ID) {
			tx := tx
			latest = &tx
		}
	}
	if latest == nil {
		return nil, util.ErrTransactionNotFound
	}
	return latest, nil
}

func (f fakeTransactions) Finalize(_ context.Context, _ repository.DBExecutor, id int64, status domain.TransactionStatus, suffix string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	tx, ok := f.s.state.transactions[id]
	if !ok || tx.Status != domain.TransactionStatusPending {
		return util.ErrInvalidState
	}
	tx.Status = status
	tx.Description += suffix
	f.s.state.transactions[id] = tx
	return nil
}

func (f fakeTransactions) LedgerBalance(_ context.Context, _ repository.DBExecutor, userID int64) (decimal.Decimal, error) {
	return f.s.ledgerBalance(userID), nil
}

type fakePositions struct{ s *fakeStore }

func (f fakePositions) CreatePosition(_ context.Context, _ repository.DBExecutor, p *domain.Position) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p.ID = f.s.id()
	f.s.state.positions[p.ID] = *p
	return nil
}

func (f fakePositions) ListDueIDs(_ context.Context, _ repository.DBExecutor, runDate time.Time) ([]int64, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	ids := []int64{}
	for id, p := range f.s.state.positions {
		if p.IsDue(runDate) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f fakePositions) GetDueForUpdate(_ context.Context, _ repository.DBExecutor, id int64, runDate time.Time) (*domain.Position, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	p, ok := f.s.state.positions[id]
	if !ok || !p.IsDue(runDate) {
		return nil, util.ErrNotFound
	}
	return &p, nil
}

func (f fakePositions) SaveAccrual(_ context.Context, _ repository.DBExecutor, p *domain.Position) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.state.positions[p.ID]; !ok {
		return util.ErrNotFound
	}
	f.s.state.positions[p.ID] = *p
	return nil
}

type fakeWithdrawals struct{ s *fakeStore }

func (f fakeWithdrawals) CreateRequest(_ context.Context, _ repository.DBExecutor, req *domain.WithdrawalRequest) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	req.ID = f.s.id()
	f.s.state.requests[req.ID] = *req
	return nil
}

func (f fakeWithdrawals) GetForUpdate(_ context.Context, _ repository.DBExecutor, id int64) (*domain.WithdrawalRequest, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	req, ok := f.s.state.requests[id]
	if !ok {
		return nil, util.ErrRequestNotFound
	}
	return &req, nil
}

func (f fakeWithdrawals) SaveProcessed(_ context.Context, _ repository.DBExecutor, req *domain.WithdrawalRequest) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	stored, ok := f.s.state.requests[req.ID]
	if !ok || !stored.IsPending() {
		return util.ErrConflict
	}
	f.s.state.requests[req.ID] = *req
	return nil
}

type fakePlans struct{ s *fakeStore }

func (f fakePlans) GetActivePlan(_ context.Context, _ repository.DBExecutor, planID int64) (*domain.Plan, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	plan, ok := f.s.plans[planID]
	if !ok {
		return nil, util.ErrPlanNotFound
	}
	if !plan.IsActive {
		return nil, util.ErrPlanInactive
	}
	return &plan, nil
}
