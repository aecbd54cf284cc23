package cmd

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// usd renders a decimal dollar amount for the terminal ("$1,500.00").
func usd(d decimal.Decimal) string {
	return money.New(d.Round(2).Shift(2).IntPart(), money.USD).Display()
}
