package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/finsim/papertrader/config"
	"github.com/finsim/papertrader/ledger"
	"github.com/finsim/papertrader/quote"
	"github.com/finsim/papertrader/store"
)

var rootCmd = &cobra.Command{
	Use:   "papertrader",
	Short: "A personal stock-trading simulation ledger",
	Long: `Papertrader is a stock-trading simulator backed by a local ledger.

Accounts start with a cash balance and buy or sell quoted securities at
live prices. Every trade updates the cash balance, the per-symbol
holdings and an append-only transaction log in one atomic step, so the
three never disagree.

Commands:
  serve      - run the JSON HTTP API
  register   - create an account
  buy/sell   - trade against the local ledger
  portfolio  - value cash plus holdings at current prices
  history    - list past transactions
  quote      - look up a symbol
  demo       - scripted walkthrough with canned prices`,
}

var cfgPath string

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "f", "", "path to config file (YAML or JSON)")
}

// open wires up the store, oracle and engine from config. The returned
// cleanup closes the store.
func open() (*config.Config, *ledger.Engine, ledger.Store, quote.Oracle, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	timeout, _ := cfg.Quote.ParseTimeout()
	ttl, _ := cfg.Quote.ParseCacheTTL()

	var oracle quote.Oracle = quote.NewClient(cfg.Quote.BaseURL, cfg.Quote.APIKey, timeout)
	if ttl > 0 {
		oracle = quote.NewCache(oracle, ttl)
	}

	engine := ledger.NewEngine(st, oracle)
	cleanup := func() { st.Close() }
	return cfg, engine, st, oracle, cleanup, nil
}

// fmtTime renders a transaction timestamp for terminal output.
func fmtTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
