package quote

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticLookup(t *testing.T) {
	t.Parallel()

	s := NewStatic(
		Quote{Symbol: "aapl", Name: "Apple Inc", Price: decimal.NewFromInt(150)},
	)

	// Keys normalize on the way in and on lookup.
	q, err := s.Lookup(context.Background(), " Aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)

	_, err = s.Lookup(context.Background(), "XYZ")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestStaticSetPrice(t *testing.T) {
	t.Parallel()

	s := NewStatic(
		Quote{Symbol: "AAPL", Name: "Apple Inc", Price: decimal.NewFromInt(150)},
	)
	s.SetPrice("AAPL", decimal.NewFromInt(160))

	q, err := s.Lookup(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.NewFromInt(160)))
	assert.Equal(t, "Apple Inc", q.Name, "SetPrice must not lose the name")
}

func TestStaticCancelledContext(t *testing.T) {
	t.Parallel()

	s := NewStatic(
		Quote{Symbol: "AAPL", Name: "Apple Inc", Price: decimal.NewFromInt(150)},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Lookup(ctx, "AAPL")
	assert.ErrorIs(t, err, ErrUnavailable)
}
