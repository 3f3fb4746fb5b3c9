package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"arbiter/internal/model"
)

// maxQuoteAge is how long a cached streamed price stays answerable. Older
// ticks mean the stream is stale and the venue should drop out of the
// snapshot rather than serve dead data.
const maxQuoteAge = 30 * time.Second

// BinanceStreamClient is a Client variant that keeps a live WebSocket ticker
// stream open and answers FetchPrice from the latest cached tick instead of
// a REST round trip per cycle. Historical candles still go through REST.
type BinanceStreamClient struct {
	rest    *BinanceClient
	symbols []string
	logger  *slog.Logger

	mu     sync.RWMutex
	prices map[string]model.Quote
}

// NewBinanceStreamClient creates a stream client for the given venue
// symbols (e.g. "BTCUSDT"). Run must be started for prices to flow.
func NewBinanceStreamClient(symbols []string, logger *slog.Logger) *BinanceStreamClient {
	return &BinanceStreamClient{
		rest:    NewBinanceClient(logger),
		symbols: symbols,
		logger:  logger,
		prices:  make(map[string]model.Quote),
	}
}

func (b *BinanceStreamClient) Name() string {
	return "binance"
}

// FetchPrice returns the most recent streamed price for the symbol, or
// ErrPriceUnavailable when no fresh tick has arrived.
func (b *BinanceStreamClient) FetchPrice(_ context.Context, symbol string) (float64, error) {
	b.mu.RLock()
	quote, ok := b.prices[symbol]
	b.mu.RUnlock()
	if !ok || time.Since(quote.ObservedAt) > maxQuoteAge {
		return 0, fmt.Errorf("binance stream: %s: %w", symbol, model.ErrPriceUnavailable)
	}
	return quote.Price, nil
}

// FetchOHLCV delegates to the REST client; candles are not streamed.
func (b *BinanceStreamClient) FetchOHLCV(ctx context.Context, symbol string, start, end time.Time) ([]model.Candle, error) {
	return b.rest.FetchOHLCV(ctx, symbol, start, end)
}

// Run connects to the combined miniTicker stream and keeps the price cache
// warm until the context is cancelled, reconnecting with capped exponential
// backoff on failure.
func (b *BinanceStreamClient) Run(ctx context.Context) {
	streams := make([]string, len(b.symbols))
	for i, s := range b.symbols {
		streams[i] = strings.ToLower(s) + "@miniTicker"
	}
	wsURL := "wss://stream.binance.com:9443/stream?streams=" + strings.Join(streams, "/")

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("binance stream: context cancelled, shutting down")
			return
		default:
		}

		b.logger.Info("binance stream: connecting", "url", wsURL, "backoff", backoff)
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			b.logger.Error("binance stream: connection failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
				backoff *= 2
				if backoff > 16*time.Second {
					backoff = 16 * time.Second
				}
			}
			continue
		}
		backoff = time.Second
		b.logger.Info("binance stream: connected")

		b.readLoop(ctx, conn)
		conn.Close()
	}
}

func (b *BinanceStreamClient) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			b.logger.Error("binance stream: read failed", "error", err)
			return
		}

		var frame struct {
			Data struct {
				Symbol string `json:"s"`
				Close  string `json:"c"`
			} `json:"data"`
		}
		if err := json.Unmarshal(message, &frame); err != nil {
			b.logger.Warn("binance stream: bad frame", "error", err)
			continue
		}
		if frame.Data.Symbol == "" {
			continue
		}
		price, err := strconv.ParseFloat(frame.Data.Close, 64)
		if err != nil {
			b.logger.Warn("binance stream: bad price", "error", err)
			continue
		}

		b.mu.Lock()
		b.prices[frame.Data.Symbol] = model.Quote{
			Venue:      b.Name(),
			Symbol:     frame.Data.Symbol,
			Price:      price,
			ObservedAt: time.Now(),
		}
		b.mu.Unlock()
	}
}
