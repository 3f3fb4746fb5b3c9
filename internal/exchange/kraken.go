package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"arbiter/internal/model"
)

// KrakenClient implements the Client interface against the Kraken REST API.
// Kraken responses wrap payloads in {"error": [...], "result": {...}} and
// key the result by an internal pair name that can differ from the one
// requested, so result maps are iterated rather than indexed.
type KrakenClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewKrakenClient creates a new KrakenClient.
func NewKrakenClient(logger *slog.Logger) *KrakenClient {
	return &KrakenClient{
		baseURL:    "https://api.kraken.com",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (k *KrakenClient) Name() string {
	return "kraken"
}

type krakenEnvelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

func (k *KrakenClient) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("kraken: build request: %w", err)
	}
	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kraken: %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kraken: %s: unexpected status %d", path, resp.StatusCode)
	}

	var env krakenEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("kraken: decode %s: %w", path, err)
	}
	if len(env.Error) > 0 {
		return nil, fmt.Errorf("kraken: %s: api error %v", path, env.Error)
	}
	return env.Result, nil
}

// FetchPrice returns the last traded price for a pair (e.g. "XBTUSD").
func (k *KrakenClient) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	result, err := k.get(ctx, "/0/public/Ticker?pair="+url.QueryEscape(symbol))
	if err != nil {
		return 0, err
	}

	var tickers map[string]struct {
		Close []string `json:"c"`
	}
	if err := json.Unmarshal(result, &tickers); err != nil {
		return 0, fmt.Errorf("kraken: decode ticker %s: %w", symbol, err)
	}
	for _, t := range tickers {
		if len(t.Close) == 0 {
			continue
		}
		price, err := strconv.ParseFloat(t.Close[0], 64)
		if err != nil {
			return 0, fmt.Errorf("kraken: parse price %q: %w", t.Close[0], err)
		}
		return price, nil
	}
	return 0, fmt.Errorf("kraken: ticker %s: %w", symbol, model.ErrPriceUnavailable)
}

// FetchOHLCV returns daily candles for a pair between start and end. The
// OHLC endpoint only takes a "since" bound, so the end bound is applied
// client-side.
func (k *KrakenClient) FetchOHLCV(ctx context.Context, symbol string, start, end time.Time) ([]model.Candle, error) {
	path := fmt.Sprintf("/0/public/OHLC?pair=%s&interval=1440&since=%d", url.QueryEscape(symbol), start.Unix())
	result, err := k.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("kraken: decode ohlc %s: %w", symbol, err)
	}

	var candles []model.Candle
	for key, raw := range payload {
		if key == "last" {
			continue
		}
		var rows [][]json.RawMessage
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("kraken: decode ohlc rows %s: %w", symbol, err)
		}
		for _, row := range rows {
			// [time, open, high, low, close, vwap, volume, count]
			if len(row) < 7 {
				continue
			}
			var ts int64
			if err := json.Unmarshal(row[0], &ts); err != nil {
				return nil, fmt.Errorf("kraken: parse ohlc time: %w", err)
			}
			bar := time.Unix(ts, 0).UTC()
			if bar.After(end) {
				continue
			}
			var open, high, low, closeP, volume float64
			for i, dst := range map[int]*float64{1: &open, 2: &high, 3: &low, 4: &closeP, 6: &volume} {
				var s string
				if err := json.Unmarshal(row[i], &s); err != nil {
					return nil, fmt.Errorf("kraken: parse ohlc field %d: %w", i, err)
				}
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return nil, fmt.Errorf("kraken: parse ohlc value %q: %w", s, err)
				}
				*dst = v
			}
			candles = append(candles, model.Candle{
				Timestamp: bar,
				Open:      open,
				High:      high,
				Low:       low,
				Close:     closeP,
				Volume:    volume,
			})
		}
		break
	}
	return candles, nil
}
