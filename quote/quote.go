// Package quote provides price lookups for ticker symbols.
//
// The ledger engine only depends on the Oracle interface; the HTTP client,
// the static table used in demos/tests, and the read-through cache are
// interchangeable implementations.
package quote

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Quote is one price observation for a security.
//
// Symbol is the provider's canonical spelling, not whatever the caller
// typed. Price is per share.
type Quote struct {
	Symbol string
	Name   string
	Price  decimal.Decimal
}

// Oracle resolves a ticker symbol to a current quote.
type Oracle interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
}

var (
	// ErrUnknownSymbol means the provider definitively does not know the
	// symbol. Not retryable.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrUnavailable means the provider could not be reached or did not
	// answer in time. Retrying with the same symbol may succeed.
	ErrUnavailable = errors.New("quote provider unavailable")
)

// Normalize trims surrounding whitespace and upper-cases a user-typed
// symbol. Anything beyond that is the provider's problem.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
