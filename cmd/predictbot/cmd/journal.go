package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/binaryedge/predictbot/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded trades",
	Long: `Query and display trade records from the SQLite journal.

Examples:
  predictbot journal trade <trade-id>
  predictbot journal today
  predictbot journal ticker KXBTC-26FEB14-T70000`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades executed today (UTC)",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalTickerCmd = &cobra.Command{
	Use:   "ticker <market-ticker>",
	Short: "List all trades in one market",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTicker,
}

var journalDBPath string

func init() {
	journalCmd.PersistentFlags().StringVar(&journalDBPath, "db", "./paper_results.db", "journal database path")
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalTickerCmd)
	rootCmd.AddCommand(journalCmd)
}

func openJournalDB() (*journal.SQLite, error) {
	return journal.NewSQLite(journalDBPath)
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return err
	}
	printTrades([]journal.TradeRecord{rec})
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	recs, err := j.ListTradesBetween(start, start.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	printTrades(recs)
	return nil
}

func runJournalTicker(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTradesByTicker(args[0])
	if err != nil {
		return err
	}
	printTrades(recs)
	return nil
}

func printTrades(recs []journal.TradeRecord) {
	if len(recs) == 0 {
		fmt.Println("no trades")
		return
	}
	for _, r := range recs {
		role := "taker"
		if r.Maker {
			role = "maker"
		}
		fmt.Printf("%s  %s  %-30s %-3s %-4s x%-5d @ $%.2f  fee $%.2f  %s  %s\n",
			r.TradeID, r.Time.Format(time.RFC3339), r.Ticker, r.Side, r.Action,
			r.Count, r.Price, r.Fee, role, r.Strategy)
	}
}
