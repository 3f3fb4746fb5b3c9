package arbitrage

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// PriceSource provides the current price of a symbol on one venue.
// FetchPrice takes the venue's own pair name, not the canonical symbol.
type PriceSource interface {
	Name() string
	FetchPrice(ctx context.Context, symbol string) (float64, error)
}

// QuoteCache receives each cycle's venue prices so outer layers can read
// current market data without hitting the exchanges themselves.
type QuoteCache interface {
	SetQuotes(ctx context.Context, symbol string, prices map[string]float64) error
}

// snapshot fetches the current price of symbol from every venue that maps
// it, concurrently. Venues whose fetch fails, or that do not trade the
// symbol, are omitted; a partial snapshot is a valid snapshot. No retries
// here: a failed fetch simply means no quote this cycle.
func (d *Detector) snapshot(ctx context.Context, symbol string) map[string]float64 {
	var mu sync.Mutex
	prices := make(map[string]float64)

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range d.sources {
		venue := src.Name()
		venueSymbol, ok := d.cfg.VenueSymbol(venue, symbol)
		if !ok {
			continue
		}
		g.Go(func() error {
			price, err := src.FetchPrice(gctx, venueSymbol)
			if err != nil {
				d.logger.Debug("no quote this cycle",
					"venue", venue, "symbol", symbol, "error", err)
				return nil
			}
			mu.Lock()
			prices[venue] = price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if d.quotes != nil && len(prices) > 0 {
		if err := d.quotes.SetQuotes(ctx, symbol, prices); err != nil {
			d.logger.Warn("failed to publish quotes", "symbol", symbol, "error", err)
		}
	}
	return prices
}
