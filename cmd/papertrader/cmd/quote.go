package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <symbol>",
	Short: "Look up the current price of a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	_, _, _, oracle, cleanup, err := open()
	if err != nil {
		return err
	}
	defer cleanup()

	q, err := oracle.Lookup(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}

	fmt.Printf("%s (%s): %s\n", q.Symbol, q.Name, usd(q.Price))
	return nil
}
