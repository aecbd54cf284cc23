// Package store provides ledger.Store implementations: SQLite for
// durable state and an in-memory store for tests.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/finsim/papertrader/ledger"
)

// SQLite implements ledger.Store over a single SQLite database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if necessary) the database at path and
// applies the schema.
//
// _txlock=immediate makes every transaction take the write lock up
// front, so two writers conflict at BEGIN instead of deadlocking at
// COMMIT; the busy timeout lets the loser wait its turn.
func NewSQLite(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows one writer at a time; more write conns just fight.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// classify maps SQLite busy/locked errors onto ledger.ErrStoreConflict so
// callers can recognize the retryable case.
func classify(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) {
		if se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked {
			return fmt.Errorf("%w: %v", ledger.ErrStoreConflict, err)
		}
	}
	return err
}

// sqliteTx adapts *sql.Tx to ledger.Tx.
type sqliteTx struct {
	tx *sql.Tx
}

func (s *SQLite) WithTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}

func scanAccount(row *sql.Row) (ledger.Account, error) {
	var (
		a    ledger.Account
		cash string
	)
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &cash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Account{}, ledger.ErrNoAccount
		}
		return ledger.Account{}, err
	}
	a.Cash, err = decimal.NewFromString(cash)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("corrupt cash value %q: %w", cash, err)
	}
	return a, nil
}

const selectAccount = `
	SELECT id, username, password_hash, cash, created_at
	FROM accounts`

func (t *sqliteTx) Account(id int64) (ledger.Account, error) {
	return scanAccount(t.tx.QueryRow(selectAccount+` WHERE id = ?`, id))
}

func (t *sqliteTx) UpdateCash(id int64, cash decimal.Decimal) error {
	res, err := t.tx.Exec(`UPDATE accounts SET cash = ? WHERE id = ?`, cash.String(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNoAccount
	}
	return nil
}

func (t *sqliteTx) Holding(accountID int64, symbol string) (ledger.Holding, bool, error) {
	var h ledger.Holding
	err := t.tx.QueryRow(`
		SELECT account_id, symbol, shares
		FROM holdings
		WHERE account_id = ? AND symbol = ?`, accountID, symbol).
		Scan(&h.AccountID, &h.Symbol, &h.Shares)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Holding{}, false, nil
	}
	if err != nil {
		return ledger.Holding{}, false, err
	}
	return h, true, nil
}

func (t *sqliteTx) UpsertHolding(h ledger.Holding) error {
	_, err := t.tx.Exec(`
		INSERT INTO holdings (account_id, symbol, shares)
		VALUES (?, ?, ?)
		ON CONFLICT (account_id, symbol) DO UPDATE SET shares = excluded.shares`,
		h.AccountID, h.Symbol, h.Shares)
	return err
}

func (t *sqliteTx) DeleteHolding(accountID int64, symbol string) error {
	_, err := t.tx.Exec(`
		DELETE FROM holdings WHERE account_id = ? AND symbol = ?`,
		accountID, symbol)
	return err
}

func (t *sqliteTx) AppendTransaction(txn ledger.Transaction) error {
	_, err := t.tx.Exec(`
		INSERT INTO transactions (id, account_id, side, symbol, shares, price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.AccountID, string(txn.Side), txn.Symbol, txn.Shares,
		txn.Price.String(), txn.CreatedAt)
	return err
}

func (s *SQLite) Account(ctx context.Context, id int64) (ledger.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx, selectAccount+` WHERE id = ?`, id))
}

func (s *SQLite) AccountByUsername(ctx context.Context, username string) (ledger.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx, selectAccount+` WHERE username = ?`, username))
}

func (s *SQLite) CreateAccount(ctx context.Context, username, passwordHash string, cash decimal.Decimal) (ledger.Account, error) {
	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (username, password_hash, cash, created_at)
		VALUES (?, ?, ?, ?)`,
		username, passwordHash, cash.String(), createdAt)
	if err != nil {
		return ledger.Account{}, classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ledger.Account{}, err
	}
	return ledger.Account{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		Cash:         cash,
		CreatedAt:    createdAt,
	}, nil
}

func (s *SQLite) Holdings(ctx context.Context, accountID int64) ([]ledger.Holding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, symbol, shares
		FROM holdings
		WHERE account_id = ?
		ORDER BY symbol ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Holding
	for rows.Next() {
		var h ledger.Holding
		if err := rows.Scan(&h.AccountID, &h.Symbol, &h.Shares); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLite) Transactions(ctx context.Context, accountID int64) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, side, symbol, shares, price, created_at
		FROM transactions
		WHERE account_id = ?
		ORDER BY created_at ASC, id ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		var (
			txn   ledger.Transaction
			side  string
			price string
		)
		if err := rows.Scan(&txn.ID, &txn.AccountID, &side, &txn.Symbol,
			&txn.Shares, &price, &txn.CreatedAt); err != nil {
			return nil, err
		}
		txn.Side = ledger.Side(side)
		txn.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("corrupt price value %q: %w", price, err)
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

var _ ledger.Store = (*SQLite)(nil)
