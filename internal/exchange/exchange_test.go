package exchange

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbiter/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func venueConfig(websocket bool) config.VenueConfig {
	return config.VenueConfig{
		Symbols:   map[string]string{"BTC/USDT": "BTCUSDT"},
		Websocket: websocket,
	}
}

func TestBinanceClient_FetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"60123.45000000"}`))
	}))
	defer srv.Close()

	c := NewBinanceClient(testLogger())
	c.baseURL = srv.URL

	price, err := c.FetchPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 60123.45, price)
}

func TestBinanceClient_FetchPriceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	c := NewBinanceClient(testLogger())
	c.baseURL = srv.URL

	_, err := c.FetchPrice(context.Background(), "NOPEUSDT")
	assert.Error(t, err)
}

func TestBinanceClient_FetchOHLCV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		w.Write([]byte(`[
			[1672531200000,"16500.1","16750.2","16400.3","16600.4","12345.6",1672617599999,"0",0,"0","0","0"],
			[1672617600000,"16600.4","16900.0","16550.0","16850.5","23456.7",1672703999999,"0",0,"0","0","0"]
		]`))
	}))
	defer srv.Close()

	c := NewBinanceClient(testLogger())
	c.baseURL = srv.URL

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	candles, err := c.FetchOHLCV(context.Background(), "BTCUSDT", start, start.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, start, candles[0].Timestamp)
	assert.Equal(t, 16500.1, candles[0].Open)
	assert.Equal(t, 16600.4, candles[0].Close)
	assert.Equal(t, 12345.6, candles[0].Volume)
	assert.Equal(t, 16850.5, candles[1].Close)
}

func TestKrakenClient_FetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/0/public/Ticker", r.URL.Path)
		w.Write([]byte(`{"error":[],"result":{"XXBTZUSD":{"c":["60100.50000","0.01000000"]}}}`))
	}))
	defer srv.Close()

	c := NewKrakenClient(testLogger())
	c.baseURL = srv.URL

	price, err := c.FetchPrice(context.Background(), "XBTUSD")
	require.NoError(t, err)
	assert.Equal(t, 60100.5, price)
}

func TestKrakenClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":["EQuery:Unknown asset pair"],"result":{}}`))
	}))
	defer srv.Close()

	c := NewKrakenClient(testLogger())
	c.baseURL = srv.URL

	_, err := c.FetchPrice(context.Background(), "NOPE")
	assert.ErrorContains(t, err, "Unknown asset pair")
}

func TestKrakenClient_FetchOHLCV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/0/public/OHLC", r.URL.Path)
		assert.Equal(t, "1440", r.URL.Query().Get("interval"))
		w.Write([]byte(`{"error":[],"result":{"XXBTZUSD":[
			[1672531200,"16500.1","16750.2","16400.3","16600.4","16550.0","321.5",1000],
			[1672617600,"16600.4","16900.0","16550.0","16850.5","16700.0","210.25",900],
			[1675209600,"23000.0","23500.0","22900.0","23400.0","23200.0","150.0",500]
		],"last":1675209600}}`))
	}))
	defer srv.Close()

	c := NewKrakenClient(testLogger())
	c.baseURL = srv.URL

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	candles, err := c.FetchOHLCV(context.Background(), "XBTUSD", start, end)
	require.NoError(t, err)
	// the February bar falls outside the requested range
	require.Len(t, candles, 2)

	assert.Equal(t, start, candles[0].Timestamp)
	assert.Equal(t, 16600.4, candles[0].Close)
	assert.Equal(t, 321.5, candles[0].Volume)
	assert.Equal(t, 16850.5, candles[1].Close)
}

func TestNewClientFactory(t *testing.T) {
	logger := testLogger()

	c, err := NewClient("binance", venueConfig(false), logger)
	require.NoError(t, err)
	assert.IsType(t, &BinanceClient{}, c)
	assert.Equal(t, "binance", c.Name())

	c, err = NewClient("binance", venueConfig(true), logger)
	require.NoError(t, err)
	assert.IsType(t, &BinanceStreamClient{}, c)
	assert.Equal(t, "binance", c.Name())

	c, err = NewClient("kraken", venueConfig(false), logger)
	require.NoError(t, err)
	assert.Equal(t, "kraken", c.Name())

	_, err = NewClient("mtgox", venueConfig(false), logger)
	assert.Error(t, err)
}

func TestBinanceStreamClient_StalePriceUnavailable(t *testing.T) {
	c := NewBinanceStreamClient([]string{"BTCUSDT"}, testLogger())

	// nothing streamed yet
	_, err := c.FetchPrice(context.Background(), "BTCUSDT")
	assert.Error(t, err)
}
