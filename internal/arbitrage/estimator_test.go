package arbitrage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"arbiter/internal/config"
)

func TestRandomEstimator(t *testing.T) {
	ranges := config.FactorRanges{
		BuySlippage:  config.Range{Min: 0.0005, Max: 0.002},
		SellSlippage: config.Range{Min: 0.0005, Max: 0.0025},
		LatencySec:   config.Range{Min: 0.3, Max: 1.0},
		PriceDrift:   config.Range{Min: 100, Max: 500},
	}
	cfg := config.EstimatorConfig{
		Seed:    42,
		Symbols: map[string]config.FactorRanges{"BTC/USDT": ranges},
	}

	t.Run("samples stay inside the configured ranges", func(t *testing.T) {
		e := NewRandomEstimator(cfg)
		for i := 0; i < 100; i++ {
			f := e.Estimate("BTC/USDT")
			assert.GreaterOrEqual(t, f.BuySlippage, 0.0005)
			assert.Less(t, f.BuySlippage, 0.002)
			assert.GreaterOrEqual(t, f.SellSlippage, 0.0005)
			assert.Less(t, f.SellSlippage, 0.0025)
			assert.GreaterOrEqual(t, f.LatencySec, 0.3)
			assert.Less(t, f.LatencySec, 1.0)
			assert.GreaterOrEqual(t, f.PriceDrift, 100.0)
			assert.Less(t, f.PriceDrift, 500.0)
		}
	})

	t.Run("same seed reproduces the same sequence", func(t *testing.T) {
		a := NewRandomEstimator(cfg)
		b := NewRandomEstimator(cfg)
		for i := 0; i < 10; i++ {
			assert.Equal(t, a.Estimate("BTC/USDT"), b.Estimate("BTC/USDT"))
		}
	})

	t.Run("unknown symbols use the default ranges", func(t *testing.T) {
		e := NewRandomEstimator(cfg)
		f := e.Estimate("DOGE/USDT")
		assert.GreaterOrEqual(t, f.BuySlippage, 0.001)
		assert.Less(t, f.BuySlippage, 0.002)
		assert.GreaterOrEqual(t, f.PriceDrift, 50.0)
		assert.Less(t, f.PriceDrift, 150.0)
	})

	t.Run("degenerate ranges fall back per field", func(t *testing.T) {
		cfg := config.EstimatorConfig{
			Seed: 7,
			Symbols: map[string]config.FactorRanges{
				"BTC/USDT": {LatencySec: config.Range{Min: 2, Max: 2}},
			},
		}
		e := NewRandomEstimator(cfg)
		f := e.Estimate("BTC/USDT")
		// the zero and collapsed ranges both use the defaults
		assert.GreaterOrEqual(t, f.LatencySec, 0.5)
		assert.Less(t, f.LatencySec, 1.0)
		assert.GreaterOrEqual(t, f.BuySlippage, 0.001)
	})
}

func TestFixedEstimator(t *testing.T) {
	e := FixedEstimator{}
	assert.Zero(t, e.Estimate("BTC/USDT"))
	assert.Equal(t, e.Estimate("a"), e.Estimate("b"))
}
