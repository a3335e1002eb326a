package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/binaryedge/predictbot/risk"
)

// Config represents the complete bot configuration.
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Risk     risk.Limits    `json:"risk" yaml:"risk"`
	Paper    PaperConfig    `json:"paper" yaml:"paper"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// AccountConfig contains capital and trading-mode parameters.
type AccountConfig struct {
	Capital float64 `json:"capital" yaml:"capital"`
	Mode    string  `json:"mode" yaml:"mode"` // "paper" or "live"
}

// PaperConfig contains fill-simulator parameters.
type PaperConfig struct {
	RestingTTL string `json:"resting_ttl" yaml:"resting_ttl"` // e.g. "60s"
}

// ParseRestingTTL converts the TTL string to a duration (60s default).
func (p PaperConfig) ParseRestingTTL() (time.Duration, error) {
	if p.RestingTTL == "" {
		return 60 * time.Second, nil
	}
	return time.ParseDuration(p.RestingTTL)
}

// StrategyConfig contains parameters for the bundled spread-capture strategy.
type StrategyConfig struct {
	QuoteSize   int      `json:"quote_size" yaml:"quote_size"`
	MaxPosition int      `json:"max_position" yaml:"max_position"`
	Tickers     []string `json:"tickers" yaml:"tickers"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type          string `json:"type" yaml:"type"` // "csv", "sqlite", or "none"
	TradesFile    string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	SnapshotsFile string `json:"snapshots_file,omitempty" yaml:"snapshots_file,omitempty"`
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.Capital <= 0 {
		return fmt.Errorf("account.capital must be positive")
	}
	if c.Account.Mode != "paper" && c.Account.Mode != "live" {
		return fmt.Errorf("account.mode must be 'paper' or 'live'")
	}
	for name, pct := range map[string]float64{
		"max_single_trade_pct":   c.Risk.MaxSingleTradePct,
		"max_per_strike_pct":     c.Risk.MaxPerStrikePct,
		"max_per_event_pct":      c.Risk.MaxPerEventPct,
		"max_total_exposure_pct": c.Risk.MaxTotalExposurePct,
		"cash_buffer_pct":        c.Risk.CashBufferPct,
		"daily_loss_limit_pct":   c.Risk.DailyLossLimitPct,
		"weekly_loss_limit_pct":  c.Risk.WeeklyLossLimitPct,
	} {
		if pct <= 0 || pct > 1 {
			return fmt.Errorf("risk.%s must be between 0 and 1", name)
		}
	}
	if _, err := c.Paper.ParseRestingTTL(); err != nil {
		return fmt.Errorf("paper.resting_ttl: %w", err)
	}
	if c.Strategy.QuoteSize <= 0 {
		return fmt.Errorf("strategy.quote_size must be positive")
	}
	if c.Strategy.MaxPosition <= 0 {
		return fmt.Errorf("strategy.max_position must be positive")
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.SnapshotsFile == "" {
			return fmt.Errorf("journal trades_file and snapshots_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite', or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Capital: 1000,
			Mode:    "paper",
		},
		Risk: risk.DefaultLimits(),
		Paper: PaperConfig{
			RestingTTL: "60s",
		},
		Strategy: StrategyConfig{
			QuoteSize:   50,
			MaxPosition: 500,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./paper_results.db",
		},
	}
}
