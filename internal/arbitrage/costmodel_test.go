package arbitrage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeProfit(t *testing.T) {
	t.Run("full cost breakdown", func(t *testing.T) {
		// buy cost 101, sell revenue 108.9, withdrawal 0.5,
		// slippage 0.5 + 0.55, drift 0.1 -> net 6.25
		gross, net := ComputeProfit(100, 110, 1, 0.01, 0.01, 0.5, 0.005, 0.005, 0.1)
		assert.InDelta(t, 10.00, gross, 1e-9)
		assert.InDelta(t, 6.25, net, 1e-9)
	})

	t.Run("zero gap means zero gross", func(t *testing.T) {
		gross, net := ComputeProfit(100, 100, 2, 0.001, 0.001, 0, 0, 0, 0)
		assert.Zero(t, gross)
		assert.Negative(t, net)
	})

	t.Run("costs never increase profit", func(t *testing.T) {
		cases := []struct {
			buy, sell, amount, buyFee, sellFee, wd, buySlip, sellSlip, drift float64
		}{
			{100, 110, 1, 0.01, 0.01, 0.5, 0.005, 0.005, 0.1},
			{60000, 60050, 0.5, 0.0026, 0.001, 5, 0.002, 0.0025, 120},
			{1.5, 1.6, 1000, 0, 0, 0, 0, 0, 0},
			{100, 105, 1, 0.1, 0.1, 0, 0.01, 0.01, 0},
		}
		for _, c := range cases {
			gross, net := ComputeProfit(c.buy, c.sell, c.amount, c.buyFee, c.sellFee, c.wd, c.buySlip, c.sellSlip, c.drift)
			assert.LessOrEqual(t, net, gross)
		}
	})

	t.Run("negative net is a valid outcome", func(t *testing.T) {
		gross, net := ComputeProfit(100, 100.1, 1, 0.01, 0.01, 1, 0.005, 0.005, 0.5)
		assert.Positive(t, gross)
		assert.Negative(t, net)
	})
}

func TestProfitPercentage(t *testing.T) {
	assert.InDelta(t, 10.0, ProfitPercentage(10, 100), 1e-9)
	assert.Zero(t, ProfitPercentage(10, 0))
	assert.InDelta(t, -5.0, ProfitPercentage(-5, 100), 1e-9)
}
