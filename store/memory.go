package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsim/papertrader/ledger"
)

// Memory is an in-memory ledger.Store for tests and throwaway demos.
//
// WithTx stages writes against a deep copy of the state and swaps the
// copy in on success, so a failing fn rolls back for free.
type Memory struct {
	mu       sync.RWMutex
	nextID   int64
	accounts map[int64]ledger.Account
	holdings map[int64]map[string]int64 // accountID -> symbol -> shares
	txns     []ledger.Transaction
}

func NewMemory() *Memory {
	return &Memory{
		nextID:   1,
		accounts: make(map[int64]ledger.Account),
		holdings: make(map[int64]map[string]int64),
	}
}

func (m *Memory) Close() error { return nil }

// memTx operates on cloned state; commit happens in WithTx.
type memTx struct {
	accounts map[int64]ledger.Account
	holdings map[int64]map[string]int64
	txns     []ledger.Transaction
}

func (m *Memory) cloneLocked() *memTx {
	t := &memTx{
		accounts: make(map[int64]ledger.Account, len(m.accounts)),
		holdings: make(map[int64]map[string]int64, len(m.holdings)),
		txns:     append([]ledger.Transaction(nil), m.txns...),
	}
	for id, a := range m.accounts {
		t.accounts[id] = a
	}
	for id, hs := range m.holdings {
		cp := make(map[string]int64, len(hs))
		for sym, n := range hs {
			cp[sym] = n
		}
		t.holdings[id] = cp
	}
	return t
}

func (m *Memory) WithTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	staged := m.cloneLocked()
	if err := fn(staged); err != nil {
		return err
	}

	m.accounts = staged.accounts
	m.holdings = staged.holdings
	m.txns = staged.txns
	return nil
}

func (t *memTx) Account(id int64) (ledger.Account, error) {
	a, ok := t.accounts[id]
	if !ok {
		return ledger.Account{}, ledger.ErrNoAccount
	}
	return a, nil
}

func (t *memTx) UpdateCash(id int64, cash decimal.Decimal) error {
	a, ok := t.accounts[id]
	if !ok {
		return ledger.ErrNoAccount
	}
	a.Cash = cash
	t.accounts[id] = a
	return nil
}

func (t *memTx) Holding(accountID int64, symbol string) (ledger.Holding, bool, error) {
	shares, ok := t.holdings[accountID][symbol]
	if !ok {
		return ledger.Holding{}, false, nil
	}
	return ledger.Holding{AccountID: accountID, Symbol: symbol, Shares: shares}, true, nil
}

func (t *memTx) UpsertHolding(h ledger.Holding) error {
	hs, ok := t.holdings[h.AccountID]
	if !ok {
		hs = make(map[string]int64)
		t.holdings[h.AccountID] = hs
	}
	hs[h.Symbol] = h.Shares
	return nil
}

func (t *memTx) DeleteHolding(accountID int64, symbol string) error {
	delete(t.holdings[accountID], symbol)
	return nil
}

func (t *memTx) AppendTransaction(txn ledger.Transaction) error {
	t.txns = append(t.txns, txn)
	return nil
}

func (m *Memory) Account(ctx context.Context, id int64) (ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return ledger.Account{}, ledger.ErrNoAccount
	}
	return a, nil
}

func (m *Memory) AccountByUsername(ctx context.Context, username string) (ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return ledger.Account{}, ledger.ErrNoAccount
}

func (m *Memory) CreateAccount(ctx context.Context, username, passwordHash string, cash decimal.Decimal) (ledger.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := ledger.Account{
		ID:           m.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		Cash:         cash,
		CreatedAt:    time.Now().UTC(),
	}
	m.nextID++
	m.accounts[a.ID] = a
	return a, nil
}

func (m *Memory) Holdings(ctx context.Context, accountID int64) ([]ledger.Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.Holding
	for sym, shares := range m.holdings[accountID] {
		out = append(out, ledger.Holding{AccountID: accountID, Symbol: sym, Shares: shares})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *Memory) Transactions(ctx context.Context, accountID int64) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.Transaction
	for _, txn := range m.txns {
		if txn.AccountID == accountID {
			out = append(out, txn)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

var _ ledger.Store = (*Memory)(nil)
