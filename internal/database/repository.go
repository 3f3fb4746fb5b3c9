package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arbiter/internal/model"
)

// Repository defines the storage operations the engine depends on: the
// append-only trade ledger and the key/value config store holding the
// profit threshold.
type Repository interface {
	Migrate(ctx context.Context) error
	LogTrade(ctx context.Context, trade model.Trade) error
	ListTrades(ctx context.Context) ([]model.Trade, error)
	TotalNetProfit(ctx context.Context) (float64, error)
	GetProfitThreshold(ctx context.Context) (float64, error)
	SetProfitThreshold(ctx context.Context, threshold float64) error
}

// PostgresRepository implements Repository on a pgx connection pool.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id BIGSERIAL PRIMARY KEY,
	opportunity_id UUID NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL,
	symbol VARCHAR(20) NOT NULL,
	buy_venue VARCHAR(50) NOT NULL,
	sell_venue VARCHAR(50) NOT NULL,
	buy_price DOUBLE PRECISION NOT NULL,
	sell_price DOUBLE PRECISION NOT NULL,
	amount DOUBLE PRECISION NOT NULL,
	gross_profit DOUBLE PRECISION NOT NULL,
	net_profit DOUBLE PRECISION NOT NULL,
	profit_percentage DOUBLE PRECISION NOT NULL,
	buy_fee DOUBLE PRECISION NOT NULL,
	sell_fee DOUBLE PRECISION NOT NULL,
	withdrawal_fee DOUBLE PRECISION NOT NULL,
	buy_slippage DOUBLE PRECISION NOT NULL,
	sell_slippage DOUBLE PRECISION NOT NULL,
	latency_sec DOUBLE PRECISION NOT NULL,
	price_drift DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS configs (
	key VARCHAR(50) PRIMARY KEY,
	value VARCHAR(100) NOT NULL
);`

// Migrate creates the tables when they do not exist yet.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

const tradeCols = `opportunity_id, timestamp, symbol, buy_venue, sell_venue,
	buy_price, sell_price, amount, gross_profit, net_profit, profit_percentage,
	buy_fee, sell_fee, withdrawal_fee, buy_slippage, sell_slippage,
	latency_sec, price_drift`

// LogTrade appends one trade to the ledger. Trades are never updated or
// deleted afterwards.
func (r *PostgresRepository) LogTrade(ctx context.Context, trade model.Trade) error {
	query := `INSERT INTO trades (` + tradeCols + `) VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.Pool.Exec(ctx, query,
		trade.OpportunityID, trade.Timestamp, trade.Symbol,
		trade.BuyVenue, trade.SellVenue,
		trade.BuyPrice, trade.SellPrice, trade.Amount,
		trade.GrossProfit, trade.NetProfit, trade.ProfitPercentage,
		trade.BuyFee, trade.SellFee, trade.WithdrawalFee,
		trade.BuySlippage, trade.SellSlippage,
		trade.LatencySec, trade.PriceDrift,
	)
	if err != nil {
		return fmt.Errorf("postgres: log trade: %w", err)
	}
	return nil
}

// ListTrades returns the full ledger, newest first.
func (r *PostgresRepository) ListTrades(ctx context.Context) ([]model.Trade, error) {
	query := `SELECT id, ` + tradeCols + ` FROM trades ORDER BY timestamp DESC`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades: %w", err)
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		var t model.Trade
		if err := rows.Scan(
			&t.ID, &t.OpportunityID, &t.Timestamp, &t.Symbol,
			&t.BuyVenue, &t.SellVenue,
			&t.BuyPrice, &t.SellPrice, &t.Amount,
			&t.GrossProfit, &t.NetProfit, &t.ProfitPercentage,
			&t.BuyFee, &t.SellFee, &t.WithdrawalFee,
			&t.BuySlippage, &t.SellSlippage,
			&t.LatencySec, &t.PriceDrift,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// TotalNetProfit sums net profit over the whole ledger.
func (r *PostgresRepository) TotalNetProfit(ctx context.Context) (float64, error) {
	var total float64
	err := r.Pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(net_profit), 0) FROM trades`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("postgres: total net profit: %w", err)
	}
	return total, nil
}

const profitThresholdKey = "profit_threshold"

// GetProfitThreshold reads the stored profit threshold. A missing row means
// the threshold was never configured and yields the default; a stored value
// that cannot be parsed, or falls outside (0, 1), is an error the caller is
// expected to recover from with the default.
func (r *PostgresRepository) GetProfitThreshold(ctx context.Context) (float64, error) {
	var raw string
	err := r.Pool.QueryRow(ctx,
		`SELECT value FROM configs WHERE key = $1`, profitThresholdKey).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.DefaultProfitThreshold, nil
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: get profit threshold: %w", err)
	}

	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("postgres: stored profit threshold %q: %w", raw, err)
	}
	if threshold <= 0 || threshold >= 1 {
		return 0, fmt.Errorf("postgres: stored profit threshold %v: %w", threshold, model.ErrInvalidThreshold)
	}
	return threshold, nil
}

// SetProfitThreshold stores a new threshold after validating it lies in the
// open interval (0, 1). The new value takes effect on the next cycle.
func (r *PostgresRepository) SetProfitThreshold(ctx context.Context, threshold float64) error {
	if threshold <= 0 || threshold >= 1 {
		return fmt.Errorf("%w: got %v", model.ErrInvalidThreshold, threshold)
	}
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO configs (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		profitThresholdKey, strconv.FormatFloat(threshold, 'f', -1, 64))
	if err != nil {
		return fmt.Errorf("postgres: set profit threshold: %w", err)
	}
	return nil
}
