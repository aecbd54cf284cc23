package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show cash and holdings valued at current prices",
	Args:  cobra.NoArgs,
	RunE:  runPortfolio,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past transactions, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var viewAccountID int64

func init() {
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(historyCmd)

	portfolioCmd.Flags().Int64VarP(&viewAccountID, "account", "a", 0, "account id (required)")
	portfolioCmd.MarkFlagRequired("account")
	historyCmd.Flags().Int64VarP(&viewAccountID, "account", "a", 0, "account id (required)")
	historyCmd.MarkFlagRequired("account")
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	_, engine, _, _, cleanup, err := open()
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := engine.Valuate(context.Background(), viewAccountID)
	if err != nil {
		return fmt.Errorf("valuate: %w", err)
	}

	fmt.Printf("Cash: %s\n", usd(p.Cash))
	if len(p.Positions) == 0 {
		fmt.Println("No holdings.")
	}
	for _, pos := range p.Positions {
		fmt.Printf("  %-6s %-30s %6d @ %s = %s\n",
			pos.Symbol, pos.Name, pos.Shares, usd(pos.Price), usd(pos.MarketValue))
	}
	fmt.Printf("Total: %s\n", usd(p.Total))
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	_, engine, _, _, cleanup, err := open()
	if err != nil {
		return err
	}
	defer cleanup()

	txns, err := engine.History(context.Background(), viewAccountID)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	if len(txns) == 0 {
		fmt.Println("No transactions.")
		return nil
	}
	for _, t := range txns {
		fmt.Printf("%s  %-4s %6d %-6s %12s  %s\n",
			fmtTime(t.CreatedAt), t.Side, t.Shares, t.Symbol, usd(t.Price), t.ID)
	}
	return nil
}
