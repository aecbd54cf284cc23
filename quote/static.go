package quote

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Static is a fixed in-memory quote table. It backs the demo command and
// tests, where deterministic prices matter more than live ones.
type Static struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

// NewStatic builds a static oracle from the given quotes, keyed by
// normalized symbol.
func NewStatic(quotes ...Quote) *Static {
	s := &Static{quotes: make(map[string]Quote, len(quotes))}
	for _, q := range quotes {
		s.Set(q)
	}
	return s
}

// Set inserts or replaces a quote.
func (s *Static) Set(q Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q.Symbol = Normalize(q.Symbol)
	s.quotes[q.Symbol] = q
}

// SetPrice adjusts the price of an existing symbol, adding it if absent.
func (s *Static) SetPrice(symbol string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	symbol = Normalize(symbol)
	q, ok := s.quotes[symbol]
	if !ok {
		q = Quote{Symbol: symbol, Name: symbol}
	}
	q.Price = price
	s.quotes[symbol] = q
}

func (s *Static) Lookup(ctx context.Context, symbol string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[Normalize(symbol)]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return q, nil
}
