package exchange

import (
	"context"
	"time"

	"arbiter/internal/model"
)

// Client is the standard interface for all exchange clients. Symbols are
// passed in the venue's own pair format; translation from canonical symbols
// happens in config, not here.
type Client interface {
	Name() string
	FetchPrice(ctx context.Context, symbol string) (float64, error)
	FetchOHLCV(ctx context.Context, symbol string, start, end time.Time) ([]model.Candle, error)
}
