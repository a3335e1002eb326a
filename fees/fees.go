// Package fees reproduces the exchange fee schedule exactly.
//
// The exchange formula is
//
//	fee = roundup(coefficient * contracts * price * (1 - price))
//
// where roundup means round UP to the next cent, with a $0.01 minimum.
package fees

import "math"

// Standard (crypto) market coefficients, effective Feb 5, 2026.
const (
	TakerCoeff = 0.07
	MakerCoeff = 0.0175
)

// Index (S&P/NASDAQ) market coefficients. Not used for crypto markets.
const (
	IndexTakerCoeff = 0.035
	IndexMakerCoeff = 0.0175
)

// Schedule selects the coefficient pair for a market class.
type Schedule struct {
	Taker float64
	Maker float64
}

var (
	Standard = Schedule{Taker: TakerCoeff, Maker: MakerCoeff}
	Index    = Schedule{Taker: IndexTakerCoeff, Maker: IndexMakerCoeff}
)

// Fee returns the trading fee in dollars for the standard schedule.
// price is the per-contract price in dollars (0.50 = 50c).
func Fee(contracts int, price float64, maker bool) float64 {
	return Standard.Fee(contracts, price, maker)
}

// Fee returns the trading fee in dollars, rounded up to the next cent with a
// one-cent minimum. A tiny epsilon is subtracted before the ceiling so that
// IEEE 754 drift cannot push an exact cent value over the boundary (a true
// $1.75 must not become $1.76).
func (s Schedule) Fee(contracts int, price float64, maker bool) float64 {
	coeff := s.Taker
	if maker {
		coeff = s.Maker
	}
	raw := coeff * float64(contracts) * price * (1.0 - price)
	cents := math.Ceil(raw*100 - 1e-9)
	if cents < 1 {
		cents = 1
	}
	return cents / 100
}

// NetProfit returns profit in dollars for a round trip after both fees. Sell
// at $1.00 models settlement of a winning contract.
func NetProfit(buyPrice, sellPrice float64, contracts int, makerBuy, makerSell bool) float64 {
	gross := (sellPrice - buyPrice) * float64(contracts)
	return gross - Fee(contracts, buyPrice, makerBuy) - Fee(contracts, sellPrice, makerSell)
}

// MinProfitableSpread returns the smallest symmetric spread around price, in
// dollars, for which a quote pair nets a profit after fees. Both legs are
// assumed to share the same maker/taker status. Fee rounding is asymmetric,
// so the analytic estimate only seeds an exact 1-cent search.
func MinProfitableSpread(price float64, contracts int, maker bool) float64 {
	coeff := TakerCoeff
	if maker {
		coeff = MakerCoeff
	}

	approxFees := 2 * coeff * float64(contracts) * price * (1.0 - price)
	spreadCents := int(math.Ceil(approxFees * 100 / float64(contracts)))
	if spreadCents < 1 {
		spreadCents = 1
	}

	for i := 0; i < 100; i++ {
		spread := float64(spreadCents) / 100
		half := spread / 2

		buy := math.Max(0.01, price-half)
		sell := math.Min(0.99, price+half)

		if NetProfit(buy, sell, contracts, maker, maker) > 0 {
			return spread
		}
		spreadCents++
	}

	// Unreachable for sane inputs; return the last candidate.
	return float64(spreadCents) / 100
}
