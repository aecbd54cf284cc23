package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsim/papertrader/pkg/id"
	"github.com/finsim/papertrader/quote"
)

// Engine executes portfolio operations against a Store, pricing them
// through a quote.Oracle.
//
// Mutations on the same account are serialized by a per-account mutex;
// operations on different accounts never block each other. Reads take no
// lock: they see whatever the store last committed.
type Engine struct {
	store  Store
	oracle quote.Oracle

	mapMu sync.Mutex
	locks map[int64]*sync.Mutex

	now func() time.Time // test hook
}

func NewEngine(store Store, oracle quote.Oracle) *Engine {
	return &Engine{
		store:  store,
		oracle: oracle,
		locks:  make(map[int64]*sync.Mutex),
		now:    time.Now,
	}
}

func (e *Engine) accountLock(accountID int64) *sync.Mutex {
	e.mapMu.Lock()
	defer e.mapMu.Unlock()

	mu, ok := e.locks[accountID]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[accountID] = mu
	}
	return mu
}

// lookup resolves a symbol through the oracle and translates its errors
// into engine errors. Called before any store transaction is opened, so a
// slow or dead oracle never holds a database lock.
func (e *Engine) lookup(ctx context.Context, symbol string) (quote.Quote, error) {
	q, err := e.oracle.Lookup(ctx, symbol)
	if err != nil {
		if errors.Is(err, quote.ErrUnknownSymbol) {
			return quote.Quote{}, fmt.Errorf("%w: %q", ErrUnknownSymbol, quote.Normalize(symbol))
		}
		return quote.Quote{}, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	return q, nil
}

// Buy purchases shares of symbol at the oracle's current price, debiting
// cost = price * shares from the account's cash.
//
// The transaction append, holding upsert and cash debit commit atomically;
// a rejected or failed buy leaves no visible state change.
func (e *Engine) Buy(ctx context.Context, accountID int64, symbol string, shares int64) (Transaction, error) {
	if shares <= 0 {
		return Transaction{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, shares)
	}

	q, err := e.lookup(ctx, symbol)
	if err != nil {
		return Transaction{}, err
	}
	cost := q.Price.Mul(decimal.NewFromInt(shares))

	mu := e.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	txn := Transaction{
		ID:        id.New(),
		AccountID: accountID,
		Side:      SideBuy,
		Symbol:    q.Symbol,
		Shares:    shares,
		Price:     cost,
		CreatedAt: e.now().UTC(),
	}

	err = e.store.WithTx(ctx, func(tx Tx) error {
		acct, err := tx.Account(accountID)
		if err != nil {
			return err
		}
		if cost.GreaterThan(acct.Cash) {
			return fmt.Errorf("%w: cost %s exceeds cash %s", ErrInsufficientFunds, cost, acct.Cash)
		}

		if err := tx.AppendTransaction(txn); err != nil {
			return err
		}

		// Holdings are keyed on the oracle's canonical symbol, never the
		// user-typed spelling, so "aapl" and "AAPL" land on one row.
		h, ok, err := tx.Holding(accountID, q.Symbol)
		if err != nil {
			return err
		}
		if !ok {
			h = Holding{AccountID: accountID, Symbol: q.Symbol}
		}
		h.Shares += shares
		if err := tx.UpsertHolding(h); err != nil {
			return err
		}

		return tx.UpdateCash(accountID, acct.Cash.Sub(cost))
	})
	if err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

// Sell disposes of shares of symbol at the oracle's current price,
// crediting proceeds = price * shares to the account's cash. Selling the
// entire position deletes the holding row.
func (e *Engine) Sell(ctx context.Context, accountID int64, symbol string, shares int64) (Transaction, error) {
	if shares <= 0 {
		return Transaction{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, shares)
	}

	q, err := e.lookup(ctx, symbol)
	if err != nil {
		return Transaction{}, err
	}
	proceeds := q.Price.Mul(decimal.NewFromInt(shares))

	mu := e.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	txn := Transaction{
		ID:        id.New(),
		AccountID: accountID,
		Side:      SideSell,
		Symbol:    q.Symbol,
		Shares:    shares,
		Price:     proceeds,
		CreatedAt: e.now().UTC(),
	}

	err = e.store.WithTx(ctx, func(tx Tx) error {
		acct, err := tx.Account(accountID)
		if err != nil {
			return err
		}

		h, ok, err := tx.Holding(accountID, q.Symbol)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoPosition, q.Symbol)
		}
		if shares > h.Shares {
			return fmt.Errorf("%w: have %d, want to sell %d", ErrInsufficientShares, h.Shares, shares)
		}

		if err := tx.AppendTransaction(txn); err != nil {
			return err
		}

		if shares == h.Shares {
			// A holding with zero shares must not exist.
			if err := tx.DeleteHolding(accountID, q.Symbol); err != nil {
				return err
			}
		} else {
			h.Shares -= shares
			if err := tx.UpsertHolding(h); err != nil {
				return err
			}
		}

		return tx.UpdateCash(accountID, acct.Cash.Add(proceeds))
	})
	if err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

// Valuate marks every holding of the account at a fresh quote and returns
// the resulting snapshot. Pure read. If any symbol fails to price, the
// whole valuation fails rather than returning a partial total.
func (e *Engine) Valuate(ctx context.Context, accountID int64) (Portfolio, error) {
	acct, err := e.store.Account(ctx, accountID)
	if err != nil {
		return Portfolio{}, err
	}

	holdings, err := e.store.Holdings(ctx, accountID)
	if err != nil {
		return Portfolio{}, err
	}

	p := Portfolio{
		Cash:      acct.Cash,
		Positions: make([]Position, 0, len(holdings)),
		Total:     acct.Cash,
	}
	for _, h := range holdings {
		q, err := e.lookup(ctx, h.Symbol)
		if err != nil {
			return Portfolio{}, fmt.Errorf("valuate %s: %w", h.Symbol, err)
		}
		mv := q.Price.Mul(decimal.NewFromInt(h.Shares))
		p.Positions = append(p.Positions, Position{
			Symbol:      q.Symbol,
			Name:        q.Name,
			Shares:      h.Shares,
			Price:       q.Price,
			MarketValue: mv,
		})
		p.Total = p.Total.Add(mv)
	}
	return p, nil
}

// History returns the account's transactions ascending by creation time,
// ties broken by id. Pure read.
func (e *Engine) History(ctx context.Context, accountID int64) ([]Transaction, error) {
	if _, err := e.store.Account(ctx, accountID); err != nil {
		return nil, err
	}
	return e.store.Transactions(ctx, accountID)
}
