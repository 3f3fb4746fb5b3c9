package arbitrage

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"arbiter/internal/config"
	"arbiter/internal/model"
)

// Detector scans the configured symbols for cross-venue price gaps and turns
// them into fully costed opportunities. It holds no state between cycles.
type Detector struct {
	sources   []PriceSource
	cfg       *config.Config
	estimator Estimator
	quotes    QuoteCache
	logger    *slog.Logger
}

// NewDetector creates a Detector. quotes may be nil when no cache is wired.
func NewDetector(sources []PriceSource, cfg *config.Config, estimator Estimator, quotes QuoteCache, logger *slog.Logger) *Detector {
	return &Detector{
		sources:   sources,
		cfg:       cfg,
		estimator: estimator,
		quotes:    quotes,
		logger:    logger.With("component", "detector"),
	}
}

// DetectOnce runs a single detection cycle over all configured symbols and
// returns every candidate opportunity, undecided. For each symbol every
// ordered venue pair is examined; the full O(V²) scan is intentional, the
// venue list is small and no directed pair may be missed. Equal prices never
// produce a candidate, and a symbol quoted on fewer than two venues yields
// nothing this cycle.
func (d *Detector) DetectOnce(ctx context.Context) []model.Opportunity {
	var opportunities []model.Opportunity
	now := time.Now().UTC()

	for _, symbol := range d.cfg.Arbitrage.Symbols {
		prices := d.snapshot(ctx, symbol)
		if len(prices) < 2 {
			continue
		}

		venues := make([]string, 0, len(prices))
		for venue := range prices {
			venues = append(venues, venue)
		}
		sort.Strings(venues)

		for _, buyVenue := range venues {
			for _, sellVenue := range venues {
				if buyVenue == sellVenue {
					continue
				}
				buyPrice := prices[buyVenue]
				sellPrice := prices[sellVenue]
				if buyPrice >= sellPrice {
					continue
				}
				opportunities = append(opportunities,
					d.buildOpportunity(now, symbol, buyVenue, sellVenue, buyPrice, sellPrice))
			}
		}
	}
	return opportunities
}

// buildOpportunity attaches fee schedules, estimated cost factors and the
// resulting profit figures to a raw price gap. Buy-side fees and the
// withdrawal fee come from the buy venue, sell-side fees from the sell
// venue; taker rates apply on both legs.
func (d *Detector) buildOpportunity(ts time.Time, symbol, buyVenue, sellVenue string, buyPrice, sellPrice float64) model.Opportunity {
	buyFees := d.cfg.FeeSchedule(buyVenue, symbol)
	sellFees := d.cfg.FeeSchedule(sellVenue, symbol)
	factors := d.estimator.Estimate(symbol)
	amount := d.cfg.Arbitrage.TradeAmount

	gross, net := ComputeProfit(
		buyPrice, sellPrice, amount,
		buyFees.TakerFee, sellFees.TakerFee, buyFees.WithdrawalFee,
		factors.BuySlippage, factors.SellSlippage, factors.PriceDrift,
	)

	return model.Opportunity{
		ID:               uuid.NewString(),
		Timestamp:        ts,
		Symbol:           symbol,
		BuyVenue:         buyVenue,
		SellVenue:        sellVenue,
		BuyPrice:         buyPrice,
		SellPrice:        sellPrice,
		Amount:           amount,
		GrossProfit:      gross,
		NetProfit:        net,
		ProfitPercentage: ProfitPercentage(gross, buyPrice),
		BuyFee:           buyFees.TakerFee,
		SellFee:          sellFees.TakerFee,
		WithdrawalFee:    buyFees.WithdrawalFee,
		BuySlippage:      factors.BuySlippage,
		SellSlippage:     factors.SellSlippage,
		LatencySec:       factors.LatencySec,
		PriceDrift:       factors.PriceDrift,
	}
}
