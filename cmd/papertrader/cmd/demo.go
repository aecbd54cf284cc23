package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/finsim/papertrader/ledger"
	"github.com/finsim/papertrader/quote"
	"github.com/finsim/papertrader/store"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted trading session with canned prices",
	Long: `Run a complete buy/sell round trip against an in-memory ledger
with fixed prices. No API key or database required.

Shows the basic workflow of:
  1. Opening an account with starting cash
  2. Buying at one price
  3. A price move
  4. Selling the whole position
  5. Reconciling cash against the transaction log`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	oracle := quote.NewStatic(
		quote.Quote{Symbol: "AAPL", Name: "Apple Inc", Price: decimal.NewFromInt(150)},
		quote.Quote{Symbol: "NFLX", Name: "Netflix Inc", Price: decimal.NewFromInt(400)},
	)

	st := store.NewMemory()
	engine := ledger.NewEngine(st, oracle)

	acct, err := st.CreateAccount(ctx, "demo", "-", decimal.NewFromInt(10000))
	if err != nil {
		return err
	}
	fmt.Printf("Opened account %q with %s\n\n", acct.Username, usd(acct.Cash))

	txn, err := engine.Buy(ctx, acct.ID, "aapl", 10)
	if err != nil {
		return fmt.Errorf("buy: %w", err)
	}
	fmt.Printf("Bought %d %s for %s\n", txn.Shares, txn.Symbol, usd(txn.Price))

	oracle.SetPrice("AAPL", decimal.NewFromInt(160))
	fmt.Println("AAPL moves 150 -> 160")

	txn, err = engine.Sell(ctx, acct.ID, "AAPL", 10)
	if err != nil {
		return fmt.Errorf("sell: %w", err)
	}
	fmt.Printf("Sold %d %s for %s\n\n", txn.Shares, txn.Symbol, usd(txn.Price))

	p, err := engine.Valuate(ctx, acct.ID)
	if err != nil {
		return fmt.Errorf("valuate: %w", err)
	}
	fmt.Printf("Final cash: %s (holdings: %d)\n", usd(p.Cash), len(p.Positions))

	txns, err := engine.History(ctx, acct.ID)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	sum := decimal.Zero
	for _, t := range txns {
		fmt.Printf("  %s  %-4s %3d %-5s %s\n", fmtTime(t.CreatedAt), t.Side, t.Shares, t.Symbol, usd(t.Price))
		sum = sum.Add(t.SignedPrice())
	}
	fmt.Printf("Opening cash + signed transactions = %s\n", usd(decimal.NewFromInt(10000).Add(sum)))
	return nil
}
