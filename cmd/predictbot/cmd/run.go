package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/binaryedge/predictbot/config"
	"github.com/binaryedge/predictbot/journal"
	"github.com/binaryedge/predictbot/market"
	"github.com/binaryedge/predictbot/orders"
	"github.com/binaryedge/predictbot/paper"
	"github.com/binaryedge/predictbot/positions"
	"github.com/binaryedge/predictbot/risk"
	"github.com/binaryedge/predictbot/strategy"
)

var (
	runConfigPath string
	runFeedPath   string
	runVerbose    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a paper trading session over a recorded market-data feed",
	Long: `Run wires the full stack (books, paper engine, order ledger, positions,
risk gate, strategy) and drives it with a recorded JSONL market-data feed.

Live mode requires an exchange transport and is not available from this
command.`,
	Args: cobra.NoArgs,
	RunE: runSession,
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "predictbot.yaml", "config file path")
	runCmd.Flags().StringVarP(&runFeedPath, "feed", "f", "", "JSONL market-data feed (default stdin)")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(runCmd)
}

// strategyView glues the read-only query surfaces together for strategies.
type strategyView struct {
	books     *market.BookStore
	positions *positions.Ledger
	gate      *risk.Gate
}

func (v strategyView) BestYesBid(t string) (market.PriceLevel, bool) { return v.books.BestYesBid(t) }
func (v strategyView) BestYesAsk(t string) (market.PriceLevel, bool) { return v.books.BestYesAsk(t) }
func (v strategyView) Spread(t string) (float64, bool)               { return v.books.Spread(t) }
func (v strategyView) NetPosition(t string) int                      { return v.positions.NetPosition(t) }
func (v strategyView) AvailableCapital() float64                     { return v.gate.AvailableCapital() }

func runSession(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if runVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return err
	}
	if cfg.Account.Mode != "paper" {
		return fmt.Errorf("run: only paper mode is supported here, got %q", cfg.Account.Mode)
	}

	jnl, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer jnl.Close()

	ttl, err := cfg.Paper.ParseRestingTTL()
	if err != nil {
		return err
	}

	books := market.NewBookStore()
	engine := paper.NewEngine(books)
	posLedger := positions.NewLedger(jnl)
	ordLedger := orders.NewLedger(orders.Paper, engine, nil)
	ordLedger.SetFillHandler(posLedger.UpdateFromFill)
	gate := risk.NewGate(cfg.Account.Capital, cfg.Risk, posLedger, ordLedger)

	strat := strategy.NewSpreadCapture(cfg.Strategy.QuoteSize, cfg.Strategy.MaxPosition)
	view := strategyView{books: books, positions: posLedger, gate: gate}

	feed := os.Stdin
	if runFeedPath != "" {
		f, err := os.Open(runFeedPath)
		if err != nil {
			return fmt.Errorf("open feed: %w", err)
		}
		defer f.Close()
		feed = f
	}

	ctx := cmd.Context()
	marks := make(map[string]float64)

	err = readFeed(feed, func(ev feedEvent) error {
		switch ev.Type {
		case "snapshot":
			books.UpdateSnapshot(ev.Ticker, ev.yesLevels(), ev.noLevels())
		case "delta":
			books.ApplyDelta(ev.Ticker, ev.yesDeltas(), ev.noDeltas())
		case "trade":
			side := market.Side(ev.Side)
			if err := side.Validate(); err != nil {
				return err
			}
			price := market.Cents(ev.Price)
			engine.ProcessTrade(ev.Ticker, side, price, ev.Count)

			yes := price
			if side == market.No {
				yes = price.Complement()
			}
			marks[ev.Ticker] = yes.Dollars()
			posLedger.MarkToMarket(marks)
		case "status":
			if ev.Open != nil {
				gate.SetExchangeStatus(*ev.Open)
			}
		default:
			return fmt.Errorf("unknown event type %q", ev.Type)
		}

		ordLedger.ExpireStale(ttl)
		cycle(ctx, strat, view, cfg, gate, ordLedger)
		return nil
	})
	if err != nil {
		return err
	}

	snap := posLedger.Summary()
	if err := jnl.RecordSnapshot(snap); err != nil {
		slog.Error("journal snapshot failed", "err", err)
	}

	fmt.Printf("session done: %d active positions, realized=$%.2f unrealized=$%.2f fees=$%.2f\n",
		snap.ActivePositions, snap.RealizedPnL, snap.UnrealizedPnL, snap.FeesPaid)
	return nil
}

// cycle runs one propose/filter/place pass.
func cycle(ctx context.Context, strat strategy.Strategy, view strategy.View,
	cfg *config.Config, gate *risk.Gate, ordLedger *orders.Ledger) {

	tickers := cfg.Strategy.Tickers
	proposals := strat.Propose(ctx, view, tickers)
	if len(proposals) == 0 {
		return
	}

	approved, _ := gate.Filter(ctx, proposals)
	if len(approved) == 0 {
		return
	}

	reqs := make([]orders.Request, 0, len(approved))
	for _, p := range approved {
		reqs = append(reqs, orders.Request{
			Ticker:        p.Ticker,
			Side:          p.Side,
			Action:        p.Action,
			Price:         p.Price,
			Count:         p.Count,
			MakerOnly:     p.MakerOnly,
			CancelOnPause: true,
			Tag:           p.Tag,
		})
	}
	ordLedger.BatchPlace(ctx, reqs)
}

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	case "csv":
		return journal.NewCSV(cfg.TradesFile, cfg.SnapshotsFile)
	default:
		return journal.Nop{}, nil
	}
}
