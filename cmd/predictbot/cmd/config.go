package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/binaryedge/predictbot/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage bot configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write a default config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if err := cfg.SaveToFile(args[0]); err != nil {
			return err
		}
		fmt.Printf("wrote default config to %s\n", args[0])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Validate and display a config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("capital: $%.2f  mode: %s\n", cfg.Account.Capital, cfg.Account.Mode)
		fmt.Printf("limits: trade %.0f%% / strike %.0f%% / event %.0f%% / total %.0f%%\n",
			cfg.Risk.MaxSingleTradePct*100, cfg.Risk.MaxPerStrikePct*100,
			cfg.Risk.MaxPerEventPct*100, cfg.Risk.MaxTotalExposurePct*100)
		fmt.Printf("loss limits: daily %.0f%% / weekly %.0f%%  cash buffer %.0f%%\n",
			cfg.Risk.DailyLossLimitPct*100, cfg.Risk.WeeklyLossLimitPct*100,
			cfg.Risk.CashBufferPct*100)
		fmt.Printf("journal: %s\n", cfg.Journal.Type)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
