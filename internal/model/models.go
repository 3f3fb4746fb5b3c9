package model

import "time"

// DefaultProfitThreshold applies when no threshold has been stored, or when
// the stored value cannot be used.
const DefaultProfitThreshold = 0.05

// Quote is the latest observed price for a symbol on a single venue.
// Quotes are rebuilt every detection cycle and never persisted.
type Quote struct {
	Venue      string
	Symbol     string
	Price      float64
	ObservedAt time.Time
}

// Candle is a single OHLCV bar from a venue's historical data feed.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// FeeSchedule holds the trading fees for one (venue, symbol) pair.
// All rates are fractions, not percentages. A zero schedule is valid and
// means "fees unknown or waived".
type FeeSchedule struct {
	MakerFee      float64 `mapstructure:"maker_fee"`
	TakerFee      float64 `mapstructure:"taker_fee"`
	WithdrawalFee float64 `mapstructure:"withdrawal_fee"`
}

// CostFactors are the execution-cost estimates attached to an opportunity:
// slippage on both legs, expected execution latency and the price drift
// expected over that latency.
type CostFactors struct {
	BuySlippage  float64
	SellSlippage float64
	LatencySec   float64
	PriceDrift   float64
}

// Opportunity is a detected cross-venue price gap together with its full
// cost breakdown. Opportunities are immutable once created: the detector
// builds them and the risk filter only reads them.
type Opportunity struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Symbol           string    `json:"symbol"`
	BuyVenue         string    `json:"buy_venue"`
	SellVenue        string    `json:"sell_venue"`
	BuyPrice         float64   `json:"buy_price"`
	SellPrice        float64   `json:"sell_price"`
	Amount           float64   `json:"amount"`
	GrossProfit      float64   `json:"gross_profit"`
	NetProfit        float64   `json:"net_profit"`
	ProfitPercentage float64   `json:"profit_percentage"`
	BuyFee           float64   `json:"buy_fee"`
	SellFee          float64   `json:"sell_fee"`
	WithdrawalFee    float64   `json:"withdrawal_fee"`
	BuySlippage      float64   `json:"buy_slippage"`
	SellSlippage     float64   `json:"sell_slippage"`
	LatencySec       float64   `json:"latency_sec"`
	PriceDrift       float64   `json:"price_drift"`
}

// Trade is an opportunity that passed the risk filter. Trades form an
// append-only ledger; the ID is assigned by the store on insert.
type Trade struct {
	ID               int64     `db:"id"`
	OpportunityID    string    `db:"opportunity_id"`
	Timestamp        time.Time `db:"timestamp"`
	Symbol           string    `db:"symbol"`
	BuyVenue         string    `db:"buy_venue"`
	SellVenue        string    `db:"sell_venue"`
	BuyPrice         float64   `db:"buy_price"`
	SellPrice        float64   `db:"sell_price"`
	Amount           float64   `db:"amount"`
	GrossProfit      float64   `db:"gross_profit"`
	NetProfit        float64   `db:"net_profit"`
	ProfitPercentage float64   `db:"profit_percentage"`
	BuyFee           float64   `db:"buy_fee"`
	SellFee          float64   `db:"sell_fee"`
	WithdrawalFee    float64   `db:"withdrawal_fee"`
	BuySlippage      float64   `db:"buy_slippage"`
	SellSlippage     float64   `db:"sell_slippage"`
	LatencySec       float64   `db:"latency_sec"`
	PriceDrift       float64   `db:"price_drift"`
}

// TradeFromOpportunity converts an accepted opportunity into the trade that
// gets persisted. The ledger ID stays zero until the store assigns one.
func TradeFromOpportunity(o Opportunity) Trade {
	return Trade{
		OpportunityID:    o.ID,
		Timestamp:        o.Timestamp,
		Symbol:           o.Symbol,
		BuyVenue:         o.BuyVenue,
		SellVenue:        o.SellVenue,
		BuyPrice:         o.BuyPrice,
		SellPrice:        o.SellPrice,
		Amount:           o.Amount,
		GrossProfit:      o.GrossProfit,
		NetProfit:        o.NetProfit,
		ProfitPercentage: o.ProfitPercentage,
		BuyFee:           o.BuyFee,
		SellFee:          o.SellFee,
		WithdrawalFee:    o.WithdrawalFee,
		BuySlippage:      o.BuySlippage,
		SellSlippage:     o.SellSlippage,
		LatencySec:       o.LatencySec,
		PriceDrift:       o.PriceDrift,
	}
}

// BacktestResult is the outcome of replaying the detection logic over a
// historical date range: the accepted trades and the accumulated profit.
type BacktestResult struct {
	TotalProfit float64 `json:"total_profit"`
	Trades      []Trade `json:"trades"`
}
