package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Tx is the view a store transaction gives the engine. Every write made
// through a Tx commits atomically with the others or not at all.
type Tx interface {
	// Account loads an account by id. Returns ErrNoAccount if absent.
	Account(id int64) (Account, error)

	// UpdateCash sets the account's cash balance.
	UpdateCash(id int64, cash decimal.Decimal) error

	// Holding loads the account's position in symbol. ok is false when no
	// such holding exists.
	Holding(accountID int64, symbol string) (h Holding, ok bool, err error)

	// UpsertHolding creates or replaces the holding for
	// (h.AccountID, h.Symbol).
	UpsertHolding(h Holding) error

	// DeleteHolding removes a holding row. Never cascades to
	// transactions; the audit log is independent.
	DeleteHolding(accountID int64, symbol string) error

	// AppendTransaction records an immutable transaction.
	AppendTransaction(t Transaction) error
}

// Store is durable keyed storage for accounts, holdings and transactions.
type Store interface {
	// WithTx runs fn against a consistent snapshot. If fn returns an
	// error every write it performed is rolled back and the error is
	// returned unchanged; otherwise the writes commit as a unit.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Account loads an account by id. Returns ErrNoAccount if absent.
	Account(ctx context.Context, id int64) (Account, error)

	// AccountByUsername loads an account by username. Returns
	// ErrNoAccount if absent.
	AccountByUsername(ctx context.Context, username string) (Account, error)

	// CreateAccount registers a new account with an opening cash balance.
	CreateAccount(ctx context.Context, username, passwordHash string, cash decimal.Decimal) (Account, error)

	// Holdings lists the account's positions, sorted by symbol.
	Holdings(ctx context.Context, accountID int64) ([]Holding, error)

	// Transactions lists the account's history ascending by creation
	// time, ties broken by id.
	Transactions(ctx context.Context, accountID int64) ([]Transaction, error)

	Close() error
}
