package fees

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFee_KnownValues(t *testing.T) {
	t.Parallel()

	// 0.07 * 100 * 0.50 * 0.50 = 1.75 exactly; float drift must not round it
	// up to 1.76.
	assert.InDelta(t, 1.75, Fee(100, 0.50, false), 1e-9)

	// 0.07 * 100 * 0.95 * 0.05 = 0.3325 -> 0.34
	assert.InDelta(t, 0.34, Fee(100, 0.95, false), 1e-9)

	// 0.0175 * 100 * 0.95 * 0.05 = 0.083125 -> 0.09
	assert.InDelta(t, 0.09, Fee(100, 0.95, true), 1e-9)

	// Tiny trade still pays the minimum cent.
	assert.InDelta(t, 0.01, Fee(1, 0.01, false), 1e-9)
}

func TestFee_MinimumAndWholeCents(t *testing.T) {
	t.Parallel()

	for contracts := 1; contracts <= 200; contracts += 7 {
		for cents := 1; cents <= 99; cents += 3 {
			price := float64(cents) / 100
			for _, maker := range []bool{false, true} {
				fee := Fee(contracts, price, maker)
				assert.GreaterOrEqual(t, fee, 0.01,
					"fee below minimum: n=%d p=%.2f maker=%v", contracts, price, maker)

				feeCents := fee * 100
				assert.InDelta(t, math.Round(feeCents), feeCents, 1e-6,
					"fee not a whole cent: n=%d p=%.2f maker=%v", contracts, price, maker)
			}
		}
	}
}

func TestFee_MakerNeverExceedsTaker(t *testing.T) {
	t.Parallel()

	for cents := 1; cents <= 99; cents++ {
		price := float64(cents) / 100
		assert.LessOrEqual(t, Fee(100, price, true), Fee(100, price, false),
			"maker fee above taker at %.2f", price)
	}
}

func TestNetProfit_RoundTrip(t *testing.T) {
	t.Parallel()

	got := NetProfit(0.40, 0.60, 100, false, false)
	want := 20.0 - Fee(100, 0.40, false) - Fee(100, 0.60, false)
	assert.InDelta(t, want, got, 1e-9)

	// A round trip with no edge loses exactly the fees.
	flat := NetProfit(0.50, 0.50, 100, true, true)
	assert.InDelta(t, -2*Fee(100, 0.50, true), flat, 1e-9)
}

func TestMinProfitableSpread(t *testing.T) {
	t.Parallel()

	for _, price := range []float64{0.10, 0.30, 0.50, 0.70, 0.90} {
		for _, maker := range []bool{true, false} {
			spread := MinProfitableSpread(price, 100, maker)
			assert.Greater(t, spread, 0.0)

			// The returned spread must actually be profitable.
			half := spread / 2
			buy := math.Max(0.01, price-half)
			sell := math.Min(0.99, price+half)
			assert.Greater(t, NetProfit(buy, sell, 100, maker, maker), 0.0,
				"spread %.2f not profitable at %.2f maker=%v", spread, price, maker)
		}
	}

	// Maker fees are lower, so the required spread can never be wider.
	assert.LessOrEqual(t,
		MinProfitableSpread(0.50, 100, true),
		MinProfitableSpread(0.50, 100, false))
}

func TestSchedule_Index(t *testing.T) {
	t.Parallel()

	// Index taker coefficient is half the standard one.
	std := Standard.Fee(100, 0.50, false)
	idx := Index.Fee(100, 0.50, false)
	assert.InDelta(t, std/2, idx, 0.01)
	assert.InDelta(t, Standard.Fee(100, 0.50, true), Index.Fee(100, 0.50, true), 1e-9)
}
