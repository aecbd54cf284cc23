package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsim/papertrader/ledger"
	"github.com/finsim/papertrader/quote"
	"github.com/finsim/papertrader/store"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newTestEngine(t *testing.T) (*ledger.Engine, *store.Memory, *quote.Static, ledger.Account) {
	t.Helper()

	oracle := quote.NewStatic(
		quote.Quote{Symbol: "AAPL", Name: "Apple Inc", Price: d("150")},
		quote.Quote{Symbol: "NFLX", Name: "Netflix Inc", Price: d("400.50")},
	)
	st := store.NewMemory()
	engine := ledger.NewEngine(st, oracle)

	acct, err := st.CreateAccount(context.Background(), "alice", "-", d("10000"))
	require.NoError(t, err)

	return engine, st, oracle, acct
}

// requireUnchanged asserts the account still has its opening state: full
// cash, no holdings, no transactions.
func requireUnchanged(t *testing.T, st *store.Memory, acctID int64) {
	t.Helper()
	ctx := context.Background()

	acct, err := st.Account(ctx, acctID)
	require.NoError(t, err)
	assert.True(t, acct.Cash.Equal(d("10000")), "cash changed: %s", acct.Cash)

	holdings, err := st.Holdings(ctx, acctID)
	require.NoError(t, err)
	assert.Empty(t, holdings)

	txns, err := st.Transactions(ctx, acctID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestBuyThenSellRoundTrip(t *testing.T) {
	t.Parallel()

	engine, st, oracle, acct := newTestEngine(t)
	ctx := context.Background()

	// Buy 10 aapl at 150: cash 10000 -> 8500.
	txn, err := engine.Buy(ctx, acct.ID, "aapl", 10)
	require.NoError(t, err)
	assert.Equal(t, ledger.SideBuy, txn.Side)
	assert.Equal(t, "AAPL", txn.Symbol)
	assert.Equal(t, int64(10), txn.Shares)
	assert.True(t, txn.Price.Equal(d("1500")), "cost: %s", txn.Price)

	after, err := st.Account(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, after.Cash.Equal(d("8500")), "cash: %s", after.Cash)

	holdings, err := st.Holdings(ctx, acct.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, ledger.Holding{AccountID: acct.ID, Symbol: "AAPL", Shares: 10}, holdings[0])

	// Price moves to 160, sell everything: cash 8500 + 1600 = 10100,
	// holding row deleted.
	oracle.SetPrice("AAPL", d("160"))

	txn, err = engine.Sell(ctx, acct.ID, "AAPL", 10)
	require.NoError(t, err)
	assert.Equal(t, ledger.SideSell, txn.Side)
	assert.True(t, txn.Price.Equal(d("1600")), "proceeds: %s", txn.Price)

	after, err = st.Account(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, after.Cash.Equal(d("10100")), "cash: %s", after.Cash)

	holdings, err = st.Holdings(ctx, acct.ID)
	require.NoError(t, err)
	assert.Empty(t, holdings, "full liquidation must delete the holding")

	txns, err := st.Transactions(ctx, acct.ID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, ledger.SideBuy, txns[0].Side)
	assert.Equal(t, ledger.SideSell, txns[1].Side)
}

func TestMoneyConservation(t *testing.T) {
	t.Parallel()

	engine, st, oracle, acct := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Buy(ctx, acct.ID, "AAPL", 7)
	require.NoError(t, err)
	_, err = engine.Buy(ctx, acct.ID, "NFLX", 3)
	require.NoError(t, err)
	oracle.SetPrice("AAPL", d("151.37"))
	_, err = engine.Sell(ctx, acct.ID, "AAPL", 5)
	require.NoError(t, err)
	_, err = engine.Buy(ctx, acct.ID, "NFLX", 2)
	require.NoError(t, err)

	txns, err := st.Transactions(ctx, acct.ID)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, txn := range txns {
		sum = sum.Add(txn.SignedPrice())
	}

	after, err := st.Account(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, after.Cash.Equal(d("10000").Add(sum)),
		"opening cash + signed transactions = %s, balance = %s", d("10000").Add(sum), after.Cash)
}

func TestBuyRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		symbol  string
		shares  int64
		wantErr error
	}{
		{"zero shares", "AAPL", 0, ledger.ErrInvalidQuantity},
		{"negative shares", "AAPL", -3, ledger.ErrInvalidQuantity},
		{"unknown symbol", "XYZ", 1, ledger.ErrUnknownSymbol},
		{"unaffordable", "NFLX", 100, ledger.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, st, _, acct := newTestEngine(t)

			_, err := engine.Buy(context.Background(), acct.ID, tt.symbol, tt.shares)
			require.ErrorIs(t, err, tt.wantErr)
			requireUnchanged(t, st, acct.ID)
		})
	}
}

func TestSellRejections(t *testing.T) {
	t.Parallel()

	t.Run("no position", func(t *testing.T) {
		engine, st, _, acct := newTestEngine(t)

		_, err := engine.Sell(context.Background(), acct.ID, "AAPL", 5)
		require.ErrorIs(t, err, ledger.ErrNoPosition)
		requireUnchanged(t, st, acct.ID)
	})

	t.Run("insufficient shares", func(t *testing.T) {
		engine, st, _, acct := newTestEngine(t)
		ctx := context.Background()

		_, err := engine.Buy(ctx, acct.ID, "AAPL", 10)
		require.NoError(t, err)

		_, err = engine.Sell(ctx, acct.ID, "AAPL", 11)
		require.ErrorIs(t, err, ledger.ErrInsufficientShares)

		// The failed sell must not have touched anything.
		acctAfter, err := st.Account(ctx, acct.ID)
		require.NoError(t, err)
		assert.True(t, acctAfter.Cash.Equal(d("8500")))

		holdings, err := st.Holdings(ctx, acct.ID)
		require.NoError(t, err)
		require.Len(t, holdings, 1)
		assert.Equal(t, int64(10), holdings[0].Shares)

		txns, err := st.Transactions(ctx, acct.ID)
		require.NoError(t, err)
		assert.Len(t, txns, 1)
	})

	t.Run("partial sell keeps holding", func(t *testing.T) {
		engine, st, _, acct := newTestEngine(t)
		ctx := context.Background()

		_, err := engine.Buy(ctx, acct.ID, "AAPL", 10)
		require.NoError(t, err)
		_, err = engine.Sell(ctx, acct.ID, "AAPL", 4)
		require.NoError(t, err)

		holdings, err := st.Holdings(ctx, acct.ID)
		require.NoError(t, err)
		require.Len(t, holdings, 1)
		assert.Equal(t, int64(6), holdings[0].Shares)
	})
}

func TestCanonicalSymbolCasing(t *testing.T) {
	t.Parallel()

	engine, st, _, acct := newTestEngine(t)
	ctx := context.Background()

	// Different user-typed casings of one instrument must land on a
	// single holding keyed by the oracle's canonical symbol.
	_, err := engine.Buy(ctx, acct.ID, "aapl", 1)
	require.NoError(t, err)
	_, err = engine.Buy(ctx, acct.ID, " AAPL ", 2)
	require.NoError(t, err)
	_, err = engine.Buy(ctx, acct.ID, "Aapl", 3)
	require.NoError(t, err)

	holdings, err := st.Holdings(ctx, acct.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "AAPL", holdings[0].Symbol)
	assert.Equal(t, int64(6), holdings[0].Shares)
}

func TestNoAccount(t *testing.T) {
	t.Parallel()

	engine, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Buy(ctx, 999, "AAPL", 1)
	require.ErrorIs(t, err, ledger.ErrNoAccount)

	_, err = engine.Valuate(ctx, 999)
	require.ErrorIs(t, err, ledger.ErrNoAccount)

	_, err = engine.History(ctx, 999)
	require.ErrorIs(t, err, ledger.ErrNoAccount)
}

func TestValuate(t *testing.T) {
	t.Parallel()

	engine, _, oracle, acct := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Buy(ctx, acct.ID, "AAPL", 10)
	require.NoError(t, err)
	_, err = engine.Buy(ctx, acct.ID, "NFLX", 2)
	require.NoError(t, err)

	oracle.SetPrice("AAPL", d("155.25"))

	p, err := engine.Valuate(ctx, acct.ID)
	require.NoError(t, err)

	// cash = 10000 - 1500 - 801 = 7699
	assert.True(t, p.Cash.Equal(d("7699")), "cash: %s", p.Cash)
	require.Len(t, p.Positions, 2)

	// Holdings come back sorted by symbol.
	assert.Equal(t, "AAPL", p.Positions[0].Symbol)
	assert.Equal(t, "Apple Inc", p.Positions[0].Name)
	assert.True(t, p.Positions[0].MarketValue.Equal(d("1552.5")))
	assert.Equal(t, "NFLX", p.Positions[1].Symbol)
	assert.True(t, p.Positions[1].MarketValue.Equal(d("801")))

	assert.True(t, p.Total.Equal(d("7699").Add(d("1552.5")).Add(d("801"))), "total: %s", p.Total)
}

func TestValuateFailsWholeOnOracleError(t *testing.T) {
	t.Parallel()

	engine, st, _, acct := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Buy(ctx, acct.ID, "AAPL", 1)
	require.NoError(t, err)
	_, err = engine.Buy(ctx, acct.ID, "NFLX", 1)
	require.NoError(t, err)

	// A new oracle that has forgotten NFLX: the whole valuation fails
	// rather than returning a partial total.
	partial := quote.NewStatic(
		quote.Quote{Symbol: "AAPL", Name: "Apple Inc", Price: d("150")},
	)
	broken := ledger.NewEngine(st, partial)

	_, err = broken.Valuate(ctx, acct.ID)
	require.ErrorIs(t, err, ledger.ErrUnknownSymbol)
}

func TestHistoryOrdering(t *testing.T) {
	t.Parallel()

	engine, _, _, acct := newTestEngine(t)
	ctx := context.Background()

	var want []string
	for i := 0; i < 5; i++ {
		txn, err := engine.Buy(ctx, acct.ID, "AAPL", 1)
		require.NoError(t, err)
		want = append(want, txn.ID)
	}

	txns, err := engine.History(ctx, acct.ID)
	require.NoError(t, err)
	require.Len(t, txns, 5)

	// Oldest first; ULID ids break same-timestamp ties in insertion
	// order.
	for i, txn := range txns {
		assert.Equal(t, want[i], txn.ID)
	}
}

func TestConcurrentBuysNoDoubleSpend(t *testing.T) {
	t.Parallel()

	oracle := quote.NewStatic(
		quote.Quote{Symbol: "AAPL", Name: "Apple Inc", Price: d("600")},
	)
	st := store.NewMemory()
	engine := ledger.NewEngine(st, oracle)

	ctx := context.Background()
	acct, err := st.CreateAccount(ctx, "bob", "-", d("1000"))
	require.NoError(t, err)

	// Cash covers exactly one purchase. Whatever the interleaving, only
	// one concurrent buy may pass the funds check.
	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.Buy(ctx, acct.ID, "AAPL", 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, ledger.ErrInsufficientFunds) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)

	after, err := st.Account(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, after.Cash.Equal(d("400")), "cash: %s", after.Cash)
	assert.False(t, after.Cash.IsNegative())
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, ledger.Retryable(ledger.ErrQuoteUnavailable))
	assert.True(t, ledger.Retryable(ledger.ErrStoreConflict))
	assert.False(t, ledger.Retryable(ledger.ErrInsufficientFunds))
	assert.False(t, ledger.Retryable(ledger.ErrUnknownSymbol))
	assert.False(t, ledger.Retryable(nil))
}
