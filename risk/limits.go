package risk

// Limits are the capital-safety rules, each expressed as a fraction of the
// capital baseline.
type Limits struct {
	MaxSingleTradePct   float64 `json:"max_single_trade_pct" yaml:"max_single_trade_pct"`
	MaxPerStrikePct     float64 `json:"max_per_strike_pct" yaml:"max_per_strike_pct"`
	MaxPerEventPct      float64 `json:"max_per_event_pct" yaml:"max_per_event_pct"`
	MaxTotalExposurePct float64 `json:"max_total_exposure_pct" yaml:"max_total_exposure_pct"`
	CashBufferPct       float64 `json:"cash_buffer_pct" yaml:"cash_buffer_pct"`
	DailyLossLimitPct   float64 `json:"daily_loss_limit_pct" yaml:"daily_loss_limit_pct"`
	WeeklyLossLimitPct  float64 `json:"weekly_loss_limit_pct" yaml:"weekly_loss_limit_pct"`
}

// DefaultLimits returns conservative production defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxSingleTradePct:   0.10, // 10% of capital per trade
		MaxPerStrikePct:     0.15, // 15% per strike
		MaxPerEventPct:      0.30, // 30% per event
		MaxTotalExposurePct: 0.75, // 75% total
		CashBufferPct:       0.25, // always keep 25% in cash
		DailyLossLimitPct:   0.05, // halt after 5% daily loss
		WeeklyLossLimitPct:  0.10, // halt after 10% weekly loss
	}
}
