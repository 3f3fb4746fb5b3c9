package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"arbiter/internal/arbitrage"
	cacheredis "arbiter/internal/cache/redis"
	"arbiter/internal/config"
	"arbiter/internal/database"
	"arbiter/internal/exchange"
)

func main() {
	backtestSymbol := flag.String("backtest", "", "run a one-off backtest for this symbol and exit")
	backtestStart := flag.String("start", "", "backtest start date (YYYY-MM-DD)")
	backtestEnd := flag.String("end", "", "backtest end date (YYYY-MM-DD)")
	flag.Parse()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL())
	if err != nil {
		logger.Error("cannot connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := &database.PostgresRepository{Pool: pool}
	if err := repo.Migrate(ctx); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	var quotes arbitrage.QuoteCache
	if cfg.Redis.Enabled {
		qc := cacheredis.NewQuoteCache(cfg.Redis)
		defer qc.Close()
		quotes = qc
	}

	var prices []arbitrage.PriceSource
	var history []arbitrage.HistoricalSource
	for name, venueCfg := range cfg.Venues {
		client, err := exchange.NewClient(name, venueCfg, logger)
		if err != nil {
			logger.Error("cannot create exchange client", "venue", name, "error", err)
			os.Exit(1)
		}
		if stream, ok := client.(*exchange.BinanceStreamClient); ok {
			go stream.Run(ctx)
		}
		prices = append(prices, client)
		history = append(history, client)
	}

	estimator := arbitrage.NewRandomEstimator(cfg.Estimator)
	backtester := arbitrage.NewBacktester(history, &cfg, estimator, repo, logger)

	if *backtestSymbol != "" {
		runBacktest(ctx, backtester, *backtestSymbol, *backtestStart, *backtestEnd, logger)
		return
	}

	detector := arbitrage.NewDetector(prices, &cfg, estimator, quotes, logger)
	controller := arbitrage.NewController(detector, repo, repo, cfg.Arbitrage.PollInterval(), logger)

	controller.Start()
	logger.Info("arbiter started", "venues", len(prices), "symbols", cfg.Arbitrage.Symbols)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	controller.Stop()
	cancel()
}

func runBacktest(ctx context.Context, backtester *arbitrage.Backtester, symbol, start, end string, logger *slog.Logger) {
	startDate, err := time.Parse(time.DateOnly, start)
	if err != nil {
		logger.Error("invalid start date", "value", start, "error", err)
		os.Exit(1)
	}
	endDate, err := time.Parse(time.DateOnly, end)
	if err != nil {
		logger.Error("invalid end date", "value", end, "error", err)
		os.Exit(1)
	}

	result, err := backtester.Run(ctx, symbol, startDate, endDate)
	if err != nil {
		logger.Error("backtest failed", "symbol", symbol, "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("cannot encode result", "error", err)
		os.Exit(1)
	}
}
