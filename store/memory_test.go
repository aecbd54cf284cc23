package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsim/papertrader/ledger"
	"github.com/finsim/papertrader/pkg/id"
)

func TestMemoryWithTxRollback(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	acct, err := m.CreateAccount(ctx, "alice", "h", mustDecimal(t, "10000"))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = m.WithTx(ctx, func(tx ledger.Tx) error {
		if err := tx.UpdateCash(acct.ID, mustDecimal(t, "1")); err != nil {
			return err
		}
		if err := tx.UpsertHolding(ledger.Holding{AccountID: acct.ID, Symbol: "AAPL", Shares: 1}); err != nil {
			return err
		}
		if err := tx.AppendTransaction(ledger.Transaction{
			ID: id.New(), AccountID: acct.ID, Side: ledger.SideBuy,
			Symbol: "AAPL", Shares: 1, Price: mustDecimal(t, "150"),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	after, err := m.Account(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, after.Cash.Equal(mustDecimal(t, "10000")))

	holdings, err := m.Holdings(ctx, acct.ID)
	require.NoError(t, err)
	assert.Empty(t, holdings)

	txns, err := m.Transactions(ctx, acct.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestMemoryWithTxCommit(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	acct, err := m.CreateAccount(ctx, "alice", "h", mustDecimal(t, "500"))
	require.NoError(t, err)

	err = m.WithTx(ctx, func(tx ledger.Tx) error {
		loaded, err := tx.Account(acct.ID)
		if err != nil {
			return err
		}
		if err := tx.UpsertHolding(ledger.Holding{AccountID: acct.ID, Symbol: "AAPL", Shares: 2}); err != nil {
			return err
		}
		return tx.UpdateCash(acct.ID, loaded.Cash.Sub(mustDecimal(t, "300")))
	})
	require.NoError(t, err)

	after, err := m.Account(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, after.Cash.Equal(mustDecimal(t, "200")))

	holdings, err := m.Holdings(ctx, acct.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, int64(2), holdings[0].Shares)
}

func TestMemoryUnknownAccount(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	_, err := m.Account(ctx, 42)
	assert.ErrorIs(t, err, ledger.ErrNoAccount)

	err = m.WithTx(ctx, func(tx ledger.Tx) error {
		_, err := tx.Account(42)
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrNoAccount)
}
