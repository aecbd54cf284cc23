package ledger

import "errors"

// Engine errors. Handlers match with errors.Is; the engine never logs and
// never panics across its boundary.
var (
	// ErrInvalidQuantity rejects a non-positive share count before
	// anything else is touched.
	ErrInvalidQuantity = errors.New("quantity must be a positive number of shares")

	// ErrUnknownSymbol means the price oracle definitively does not know
	// the symbol.
	ErrUnknownSymbol = errors.New("no such symbol")

	// ErrNoAccount means the account id does not exist in the store.
	ErrNoAccount = errors.New("account not found")

	// ErrInsufficientFunds rejects a buy whose cost exceeds the account's
	// cash balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoPosition rejects a sell of a symbol the account does not hold.
	ErrNoPosition = errors.New("no position in symbol")

	// ErrInsufficientShares rejects a sell of more shares than held.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrQuoteUnavailable means the oracle timed out or failed. The
	// operation aborted before opening a store transaction, so retrying
	// with identical inputs is safe.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrStoreConflict means the store could not serialize the
	// transaction. Nothing was committed; the whole operation may be
	// retried.
	ErrStoreConflict = errors.New("store conflict")
)

// Retryable reports whether err is a transient failure the caller may
// retry with the same inputs. Atomic commits make retries safe: a failed
// operation left no partial state behind.
func Retryable(err error) bool {
	return errors.Is(err, ErrQuoteUnavailable) || errors.Is(err, ErrStoreConflict)
}
