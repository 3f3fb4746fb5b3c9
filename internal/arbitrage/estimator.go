package arbitrage

import (
	"math/rand"
	"sync"
	"time"

	"arbiter/internal/config"
	"arbiter/internal/model"
)

// Estimator supplies execution-cost factors (slippage, latency, drift) for a
// symbol. Real order-book data is not available to this engine, so these are
// uncertainty models rather than measurements; the interface exists so tests
// can inject a fixed estimator and get reproducible numbers.
type Estimator interface {
	Estimate(symbol string) model.CostFactors
}

// Default sampling intervals applied when a symbol has no configured ranges.
var defaultRanges = config.FactorRanges{
	BuySlippage:  config.Range{Min: 0.001, Max: 0.002},
	SellSlippage: config.Range{Min: 0.001, Max: 0.0025},
	LatencySec:   config.Range{Min: 0.5, Max: 1.0},
	PriceDrift:   config.Range{Min: 50, Max: 150},
}

// RandomEstimator samples cost factors uniformly from per-symbol configured
// ranges. The random source is seeded at construction so a run can be
// reproduced by fixing the seed in config.
type RandomEstimator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	symbols map[string]config.FactorRanges
}

// NewRandomEstimator creates a RandomEstimator from the estimator config.
// A zero seed is replaced with the current clock.
func NewRandomEstimator(cfg config.EstimatorConfig) *RandomEstimator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomEstimator{
		rng:     rand.New(rand.NewSource(seed)),
		symbols: cfg.Symbols,
	}
}

// Estimate samples one set of cost factors for the symbol.
func (e *RandomEstimator) Estimate(symbol string) model.CostFactors {
	ranges, ok := e.symbols[symbol]
	if !ok {
		ranges = defaultRanges
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.CostFactors{
		BuySlippage:  e.sample(ranges.BuySlippage, defaultRanges.BuySlippage),
		SellSlippage: e.sample(ranges.SellSlippage, defaultRanges.SellSlippage),
		LatencySec:   e.sample(ranges.LatencySec, defaultRanges.LatencySec),
		PriceDrift:   e.sample(ranges.PriceDrift, defaultRanges.PriceDrift),
	}
}

func (e *RandomEstimator) sample(r, fallback config.Range) float64 {
	if r.Max <= r.Min {
		r = fallback
	}
	return r.Min + e.rng.Float64()*(r.Max-r.Min)
}

// FixedEstimator always returns the same factors. Used in tests and as the
// deterministic flavour when cost assumptions come from config instead of
// being sampled.
type FixedEstimator struct {
	Factors model.CostFactors
}

// Estimate returns the fixed factors regardless of symbol.
func (e FixedEstimator) Estimate(string) model.CostFactors {
	return e.Factors
}
