package exchange

import (
	"fmt"
	"log/slog"
	"sort"

	"arbiter/internal/config"
)

// NewClient creates an exchange client for the given venue name. Binance can
// run in streaming mode when the venue config asks for it; the caller is
// responsible for starting the returned stream client's Run loop.
func NewClient(name string, cfg config.VenueConfig, logger *slog.Logger) (Client, error) {
	switch name {
	case "binance":
		if cfg.Websocket {
			return NewBinanceStreamClient(venueSymbols(cfg), logger), nil
		}
		return NewBinanceClient(logger), nil
	case "kraken":
		return NewKrakenClient(logger), nil
	default:
		return nil, fmt.Errorf("unknown exchange: %s", name)
	}
}

// venueSymbols returns the venue-native pair names from the symbol mapping,
// sorted for stable stream subscriptions.
func venueSymbols(cfg config.VenueConfig) []string {
	symbols := make([]string, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
