package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Logger   Logger   `mapstructure:"logger"`
	Market   Market   `mapstructure:"market"`
	Maturity Maturity `mapstructure:"maturity"`
	Redis    Redis    `mapstructure:"redis"`
	Binance  Binance  `mapstructure:"binance"`
}

// Server holds the configuration for the HTTP API.
type Server struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Database holds the configuration for the relational store.
type Database struct {
	Driver          string        `mapstructure:"driver"` // sqlite or postgres
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Market holds the order book and trade view settings.
type Market struct {
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	TradingPairs []TradingPair `mapstructure:"trading_pairs"`
}

// TradingPair is a catalog entry bootstrapped into the database on startup.
type TradingPair struct {
	Symbol          string  `mapstructure:"symbol"`
	BaseAsset       string  `mapstructure:"base_asset"`
	QuoteAsset      string  `mapstructure:"quote_asset"`
	PricePrecision  int     `mapstructure:"price_precision"`
	AmountPrecision int     `mapstructure:"amount_precision"`
	MakerFee        float64 `mapstructure:"maker_fee"`
	TakerFee        float64 `mapstructure:"taker_fee"`
}

// Maturity holds the settings of the periodic investment maturity sweep.
type Maturity struct {
	Schedule string        `mapstructure:"schedule"` // cron spec with seconds field
	LockKey  string        `mapstructure:"lock_key"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// Redis holds the configuration for the lock store. An empty Addr disables it.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Binance holds the configuration for the reference price feed.
type Binance struct {
	Enabled        bool    `mapstructure:"enabled"`
	Testnet        bool    `mapstructure:"testnet"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and environment apply.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "cryptovest.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("market.default_limit", 20)
	v.SetDefault("market.max_limit", 100)

	v.SetDefault("maturity.schedule", "0 */5 * * * *") // every five minutes
	v.SetDefault("maturity.lock_key", "cryptovest:maturity")
	v.SetDefault("maturity.lock_ttl", 4*time.Minute)

	v.SetDefault("binance.rate_limit", 20)      // requests per second
	v.SetDefault("binance.rate_limit_burst", 5) // burst size
}
