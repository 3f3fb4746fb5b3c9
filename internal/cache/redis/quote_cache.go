// Package redis caches the latest per-venue quotes so outer layers can read
// current market data without touching the exchanges.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"arbiter/internal/config"
)

// quoteTTL bounds how long a published snapshot outlives the cycle that
// produced it.
const quoteTTL = time.Minute

// QuoteCache stores one redis hash per symbol at key "quotes:{symbol}",
// with a field per venue holding the price and an "updated_at" field with a
// Unix nanosecond timestamp.
type QuoteCache struct {
	rdb *redis.Client
}

// NewQuoteCache connects a QuoteCache using the given settings.
func NewQuoteCache(cfg config.RedisConfig) *QuoteCache {
	return &QuoteCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func quoteKey(symbol string) string {
	return "quotes:" + symbol
}

// SetQuotes replaces the cached per-venue prices for a symbol.
func (qc *QuoteCache) SetQuotes(ctx context.Context, symbol string, prices map[string]float64) error {
	key := quoteKey(symbol)
	fields := make(map[string]interface{}, len(prices)+1)
	for venue, price := range prices {
		fields[venue] = strconv.FormatFloat(price, 'f', -1, 64)
	}
	fields["updated_at"] = strconv.FormatInt(time.Now().UnixNano(), 10)

	pipe := qc.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, quoteTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set quotes %s: %w", symbol, err)
	}
	return nil
}

// GetQuotes returns the cached venue prices for a symbol. An expired or
// never-written key yields an empty map.
func (qc *QuoteCache) GetQuotes(ctx context.Context, symbol string) (map[string]float64, error) {
	vals, err := qc.rdb.HGetAll(ctx, quoteKey(symbol)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get quotes %s: %w", symbol, err)
	}

	prices := make(map[string]float64, len(vals))
	for venue, raw := range vals {
		if venue == "updated_at" {
			continue
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("redis: parse quote %s/%s: %w", symbol, venue, err)
		}
		prices[venue] = price
	}
	return prices, nil
}

// Close releases the underlying connection.
func (qc *QuoteCache) Close() error {
	return qc.rdb.Close()
}
