// Package ledger is the portfolio mutation core: it owns the cash balance,
// the per-symbol holdings, and the append-only transaction log of each
// account, and guarantees the three never diverge.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a transaction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Account is one user's ledger state. PasswordHash is opaque here; the
// auth layer owns it and the engine never reads it.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	Cash         decimal.Decimal
	CreatedAt    time.Time
}

// Holding is an account's position in one symbol. A Holding only exists
// while Shares > 0; a full liquidation deletes the row rather than
// leaving it at zero.
type Holding struct {
	AccountID int64
	Symbol    string
	Shares    int64
}

// Transaction is the immutable record of one completed buy or sell.
// Price is the total paid or received for the lot, not per share.
// Transactions are append-only; nothing in the system mutates or deletes
// one, including deletion of the Holding it traded against.
type Transaction struct {
	ID        string
	AccountID int64
	Side      Side
	Symbol    string
	Shares    int64
	Price     decimal.Decimal
	CreatedAt time.Time
}

// SignedPrice is the transaction's effect on cash: negative for a buy,
// positive for a sell. Summing signed prices over an account's history
// and adding its opening cash must reproduce the current balance exactly.
func (t Transaction) SignedPrice() decimal.Decimal {
	if t.Side == SideBuy {
		return t.Price.Neg()
	}
	return t.Price
}

// Position is one row of a portfolio valuation.
type Position struct {
	Symbol      string
	Name        string
	Shares      int64
	Price       decimal.Decimal
	MarketValue decimal.Decimal
}

// Portfolio is a point-in-time valuation of an account: cash plus every
// holding marked at a fresh quote.
type Portfolio struct {
	Cash      decimal.Decimal
	Positions []Position
	Total     decimal.Decimal
}
