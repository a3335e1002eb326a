package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "predictbot",
	Short: "A multi-strategy trading bot core for binary prediction markets",
	Long: `Predictbot is a trading bot core for binary-outcome prediction markets
on crypto prices, written in Go.

It provides:
  - A queue-aware paper trading engine driven by real market data
  - Exchange-exact fee computation with cent-level rounding
  - Position tracking with cost-basis accounting and daily/weekly P&L
  - A risk gate with capital limits and a kill switch
  - Trade journaling to SQLite or CSV`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
