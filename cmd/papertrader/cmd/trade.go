package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/finsim/papertrader/ledger"
)

var buyCmd = &cobra.Command{
	Use:   "buy <symbol> <shares>",
	Short: "Buy shares at the current quoted price",
	Args:  cobra.ExactArgs(2),
	RunE:  runBuy,
}

var sellCmd = &cobra.Command{
	Use:   "sell <symbol> <shares>",
	Short: "Sell shares at the current quoted price",
	Args:  cobra.ExactArgs(2),
	RunE:  runSell,
}

var tradeAccountID int64

func init() {
	rootCmd.AddCommand(buyCmd)
	rootCmd.AddCommand(sellCmd)

	buyCmd.Flags().Int64VarP(&tradeAccountID, "account", "a", 0, "account id (required)")
	buyCmd.MarkFlagRequired("account")
	sellCmd.Flags().Int64VarP(&tradeAccountID, "account", "a", 0, "account id (required)")
	sellCmd.MarkFlagRequired("account")
}

func runBuy(cmd *cobra.Command, args []string) error {
	return runTrade(args, ledger.SideBuy)
}

func runSell(cmd *cobra.Command, args []string) error {
	return runTrade(args, ledger.SideSell)
}

func runTrade(args []string, side ledger.Side) error {
	shares, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("shares must be a whole number: %w", err)
	}

	_, engine, st, _, cleanup, err := open()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()

	var txn ledger.Transaction
	if side == ledger.SideBuy {
		txn, err = engine.Buy(ctx, tradeAccountID, args[0], shares)
	} else {
		txn, err = engine.Sell(ctx, tradeAccountID, args[0], shares)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", side, err)
	}

	acct, err := st.Account(ctx, tradeAccountID)
	if err != nil {
		return fmt.Errorf("reload account: %w", err)
	}

	fmt.Printf("%s %d %s for %s\n", txn.Side, txn.Shares, txn.Symbol, usd(txn.Price))
	fmt.Printf("  transaction: %s\n", txn.ID)
	fmt.Printf("  cash: %s\n", usd(acct.Cash))
	return nil
}
