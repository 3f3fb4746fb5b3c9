package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"arbiter/internal/model"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Arbitrage ArbitrageConfig
	Backtest  BacktestConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Venues    map[string]VenueConfig
	Fees      map[string]map[string]model.FeeSchedule
	Estimator EstimatorConfig
}

// ArbitrageConfig defines the live-detection settings.
type ArbitrageConfig struct {
	Symbols             []string `mapstructure:"symbols"`
	TradeAmount         float64  `mapstructure:"trade_amount"`
	PollIntervalSeconds int      `mapstructure:"poll_interval_seconds"`
}

// PollInterval returns the run-loop sleep duration, defaulting to 10s when
// unset or nonsensical.
func (a ArbitrageConfig) PollInterval() time.Duration {
	if a.PollIntervalSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(a.PollIntervalSeconds) * time.Second
}

// BacktestConfig holds the fixed fee assumptions used when replaying
// historical data, where live fee schedules do not apply.
type BacktestConfig struct {
	BuyFeeRate    float64 `mapstructure:"buy_fee_rate"`
	SellFeeRate   float64 `mapstructure:"sell_fee_rate"`
	WithdrawalFee float64 `mapstructure:"withdrawal_fee"`
}

// VenueConfig defines settings for a specific exchange, including the
// translation from canonical symbols to the venue's own pair names. Symbols
// absent from the map are simply not quoted on that venue.
type VenueConfig struct {
	Symbols   map[string]string `mapstructure:"symbols"`
	Websocket bool              `mapstructure:"websocket"`
}

// DatabaseConfig defines the database connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string `mapstructure:"dbname"`
}

// URL builds a postgres connection string from the individual fields.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", d.User, d.Password, d.Host, d.Port, d.DBName)
}

// RedisConfig defines the optional quote-cache connection settings.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Range is a closed numeric interval to sample cost estimates from.
type Range struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// FactorRanges defines per-symbol sampling intervals for the execution-cost
// estimator. Symbols without an entry fall back to the estimator defaults.
type FactorRanges struct {
	BuySlippage  Range `mapstructure:"buy_slippage"`
	SellSlippage Range `mapstructure:"sell_slippage"`
	LatencySec   Range `mapstructure:"latency_sec"`
	PriceDrift   Range `mapstructure:"price_drift"`
}

// EstimatorConfig holds the cost-estimator settings. A zero seed means
// "seed from the clock".
type EstimatorConfig struct {
	Seed    int64                   `mapstructure:"seed"`
	Symbols map[string]FactorRanges `mapstructure:"symbols"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("arbitrage.trade_amount", 1.0)
	viper.SetDefault("arbitrage.poll_interval_seconds", 10)
	viper.SetDefault("backtest.buy_fee_rate", 0.0010)
	viper.SetDefault("backtest.sell_fee_rate", 0.0010)
	viper.SetDefault("backtest.withdrawal_fee", 0.0005)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

// FeeSchedule returns the fee schedule for a (venue, symbol) pair, or a zero
// schedule when none is configured.
func (c *Config) FeeSchedule(venue, symbol string) model.FeeSchedule {
	return c.Fees[venue][symbol]
}

// VenueSymbol translates a canonical symbol to the venue's own pair name.
// The second return is false when the venue does not trade the symbol.
func (c *Config) VenueSymbol(venue, symbol string) (string, bool) {
	v, ok := c.Venues[venue]
	if !ok {
		return "", false
	}
	s, ok := v.Symbols[symbol]
	return s, ok
}
