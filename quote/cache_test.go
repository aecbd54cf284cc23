package quote

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingOracle wraps Static and counts upstream hits.
type countingOracle struct {
	*Static
	calls atomic.Int64
}

func (c *countingOracle) Lookup(ctx context.Context, symbol string) (Quote, error) {
	c.calls.Add(1)
	return c.Static.Lookup(ctx, symbol)
}

func TestCacheHitsUpstreamOnce(t *testing.T) {
	t.Parallel()

	upstream := &countingOracle{Static: NewStatic(
		Quote{Symbol: "AAPL", Name: "Apple Inc", Price: decimal.NewFromInt(150)},
	)}
	c := NewCache(upstream, time.Minute)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		q, err := c.Lookup(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "AAPL", q.Symbol)
	}

	assert.Equal(t, int64(1), upstream.calls.Load())
}

func TestCacheSharesCasings(t *testing.T) {
	t.Parallel()

	upstream := &countingOracle{Static: NewStatic(
		Quote{Symbol: "AAPL", Name: "Apple Inc", Price: decimal.NewFromInt(150)},
	)}
	c := NewCache(upstream, time.Minute)

	ctx := context.Background()
	_, err := c.Lookup(ctx, "aapl")
	require.NoError(t, err)
	_, err = c.Lookup(ctx, " AAPL ")
	require.NoError(t, err)

	assert.Equal(t, int64(1), upstream.calls.Load())
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()

	upstream := &countingOracle{Static: NewStatic(
		Quote{Symbol: "AAPL", Name: "Apple Inc", Price: decimal.NewFromInt(150)},
	)}
	c := NewCache(upstream, time.Minute)

	clock := time.Now()
	c.now = func() time.Time { return clock }

	ctx := context.Background()
	_, err := c.Lookup(ctx, "AAPL")
	require.NoError(t, err)

	// Within the TTL: served from cache.
	clock = clock.Add(30 * time.Second)
	_, err = c.Lookup(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(1), upstream.calls.Load())

	// Past the TTL: refetched.
	clock = clock.Add(31 * time.Second)
	_, err = c.Lookup(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(2), upstream.calls.Load())
}

func TestCacheNeverCachesErrors(t *testing.T) {
	t.Parallel()

	upstream := &countingOracle{Static: NewStatic()}
	c := NewCache(upstream, time.Minute)

	ctx := context.Background()
	_, err := c.Lookup(ctx, "XYZ")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
	_, err = c.Lookup(ctx, "XYZ")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	assert.Equal(t, int64(2), upstream.calls.Load())
}

func TestCacheDisabled(t *testing.T) {
	t.Parallel()

	upstream := &countingOracle{Static: NewStatic(
		Quote{Symbol: "AAPL", Name: "Apple Inc", Price: decimal.NewFromInt(150)},
	)}
	c := NewCache(upstream, 0)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := c.Lookup(ctx, "AAPL")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), upstream.calls.Load())
}
