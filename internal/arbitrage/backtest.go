package arbitrage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"arbiter/internal/config"
	"arbiter/internal/model"
)

// HistoricalSource provides daily OHLCV candles for a symbol on one venue.
// FetchOHLCV takes the venue's own pair name, not the canonical symbol.
type HistoricalSource interface {
	Name() string
	FetchOHLCV(ctx context.Context, symbol string, start, end time.Time) ([]model.Candle, error)
}

// ThresholdSource reads the current profit threshold.
type ThresholdSource interface {
	GetProfitThreshold(ctx context.Context) (float64, error)
}

// Backtester replays the detection and filtering logic over historical
// per-venue close prices and produces a simulated trade ledger.
type Backtester struct {
	sources    []HistoricalSource
	cfg        *config.Config
	estimator  Estimator
	thresholds ThresholdSource
	logger     *slog.Logger
}

// NewBacktester creates a Backtester over the given historical sources.
func NewBacktester(sources []HistoricalSource, cfg *config.Config, estimator Estimator, thresholds ThresholdSource, logger *slog.Logger) *Backtester {
	return &Backtester{
		sources:    sources,
		cfg:        cfg,
		estimator:  estimator,
		thresholds: thresholds,
		logger:     logger.With("component", "backtester"),
	}
}

// Run simulates trading symbol between start and end inclusive.
//
// The date range must satisfy start <= end <= now. Venues whose historical
// fetch fails are skipped; fewer than two venues with data is an error,
// since a single series cannot be arbitraged. Candles are aligned by exact
// timestamp across all contributing venues; bars missing on any venue are
// dropped, never interpolated. An empty aligned series is a valid outcome
// and yields an empty ledger.
//
// Each aligned bar buys at the lowest close and sells at the highest; equal
// closes yield no trade. Decisions at a bar use only that bar's closes, so
// the simulation never looks ahead. Total profit accumulates the gross
// figure of every accepted trade.
func (b *Backtester) Run(ctx context.Context, symbol string, start, end time.Time) (model.BacktestResult, error) {
	now := time.Now()
	if start.After(end) || end.After(now) {
		return model.BacktestResult{}, fmt.Errorf("%w: start=%s end=%s",
			model.ErrInvalidDateRange, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	series := make(map[string][]model.Candle)
	for _, src := range b.sources {
		venue := src.Name()
		venueSymbol, ok := b.cfg.VenueSymbol(venue, symbol)
		if !ok {
			b.logger.Debug("symbol not mapped on venue", "venue", venue, "symbol", symbol)
			continue
		}
		candles, err := src.FetchOHLCV(ctx, venueSymbol, start, end)
		if err != nil {
			b.logger.Warn("skipping venue: historical fetch failed",
				"venue", venue, "symbol", symbol, "error", err)
			continue
		}
		if len(candles) == 0 {
			continue
		}
		series[venue] = candles
	}
	if len(series) < 2 {
		return model.BacktestResult{}, model.ErrNotEnoughVenues
	}

	bars := alignSeries(series)
	b.logger.Info("historical series aligned",
		"symbol", symbol, "venues", len(series), "bars", len(bars))

	threshold := model.DefaultProfitThreshold
	if t, err := b.thresholds.GetProfitThreshold(ctx); err != nil {
		b.logger.Warn("using default profit threshold", "error", err)
	} else {
		threshold = t
	}

	amount := b.cfg.Arbitrage.TradeAmount
	result := model.BacktestResult{Trades: []model.Trade{}}

	for _, bar := range bars {
		buyVenue, sellVenue := extremes(bar.closes)
		buyPrice := bar.closes[buyVenue]
		sellPrice := bar.closes[sellVenue]
		if buyVenue == sellVenue || buyPrice >= sellPrice {
			continue
		}

		factors := b.estimator.Estimate(symbol)
		gross, net := ComputeProfit(
			buyPrice, sellPrice, amount,
			b.cfg.Backtest.BuyFeeRate, b.cfg.Backtest.SellFeeRate, b.cfg.Backtest.WithdrawalFee,
			factors.BuySlippage, factors.SellSlippage, factors.PriceDrift,
		)
		if Evaluate(net, buyPrice, threshold) != Accepted {
			continue
		}

		result.Trades = append(result.Trades, model.Trade{
			OpportunityID:    uuid.NewString(),
			Timestamp:        bar.timestamp,
			Symbol:           symbol,
			BuyVenue:         buyVenue,
			SellVenue:        sellVenue,
			BuyPrice:         buyPrice,
			SellPrice:        sellPrice,
			Amount:           amount,
			GrossProfit:      gross,
			NetProfit:        net,
			ProfitPercentage: ProfitPercentage(gross, buyPrice),
			BuyFee:           b.cfg.Backtest.BuyFeeRate,
			SellFee:          b.cfg.Backtest.SellFeeRate,
			WithdrawalFee:    b.cfg.Backtest.WithdrawalFee,
			BuySlippage:      factors.BuySlippage,
			SellSlippage:     factors.SellSlippage,
			LatencySec:       factors.LatencySec,
			PriceDrift:       factors.PriceDrift,
		})
		result.TotalProfit += gross
	}
	return result, nil
}

// alignedBar holds the close price on every venue at one shared timestamp.
type alignedBar struct {
	timestamp time.Time
	closes    map[string]float64
}

// alignSeries inner-joins per-venue candle series on exact timestamps. Only
// timestamps reported by every venue survive; a solitary candle never
// appears in the output.
func alignSeries(series map[string][]model.Candle) []alignedBar {
	closes := make(map[int64]map[string]float64)
	for venue, candles := range series {
		for _, c := range candles {
			ts := c.Timestamp.UnixNano()
			if closes[ts] == nil {
				closes[ts] = make(map[string]float64, len(series))
			}
			closes[ts][venue] = c.Close
		}
	}

	shared := make([]int64, 0, len(closes))
	for ts, byVenue := range closes {
		if len(byVenue) == len(series) {
			shared = append(shared, ts)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i] < shared[j] })

	bars := make([]alignedBar, 0, len(shared))
	for _, ts := range shared {
		bars = append(bars, alignedBar{
			timestamp: time.Unix(0, ts).UTC(),
			closes:    closes[ts],
		})
	}
	return bars
}

// extremes returns the venues with the lowest and highest close in the bar.
// Ties resolve to the lexicographically first venue so replays are stable.
func extremes(closes map[string]float64) (lowest, highest string) {
	venues := make([]string, 0, len(closes))
	for venue := range closes {
		venues = append(venues, venue)
	}
	sort.Strings(venues)

	lowest, highest = venues[0], venues[0]
	for _, venue := range venues[1:] {
		if closes[venue] < closes[lowest] {
			lowest = venue
		}
		if closes[venue] > closes[highest] {
			highest = venue
		}
	}
	return lowest, highest
}
