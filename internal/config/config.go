// Package config defines the top-level configuration for the arbitrage
// detector and provides validation helpers.
package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by POLYARB_* environment
// variables (plus a handful of legacy unprefixed names, see loader.go).
type Config struct {
	Chain     ChainConfig  `toml:"chain"`
	Trade     TradeConfig  `toml:"trade"`
	Store     StoreConfig  `toml:"store"`
	Redis     RedisConfig  `toml:"redis"`
	Server    ServerConfig `toml:"server"`
	Notify    NotifyConfig `toml:"notify"`
	Export    ExportConfig `toml:"export"`
	Mode      string       `toml:"mode"`
	LogLevel  string       `toml:"log_level"`
	LogFormat string       `toml:"log_format"`
}

// ChainConfig holds the Polygon RPC endpoint parameters.
type ChainConfig struct {
	RPCURL          string `toml:"rpc_url"`
	DialTimeoutSecs int    `toml:"dial_timeout_secs"`
}

// DialTimeout returns the RPC dial timeout as a duration.
func (c ChainConfig) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutSecs) * time.Second
}

// TradeConfig describes the probe trade: the two router contracts to quote
// against, the token pair, the trade size, and the decision thresholds.
// Amounts that carry money semantics are strings so they survive TOML/env
// round-trips without floating-point mangling.
type TradeConfig struct {
	DexALabel  string `toml:"dex_a_label"`
	DexARouter string `toml:"dex_a_router"`
	DexBLabel  string `toml:"dex_b_label"`
	DexBRouter string `toml:"dex_b_router"`

	TokenIn      string `toml:"token_in"`
	TokenOut     string `toml:"token_out"`
	TradeSizeWei string `toml:"trade_size_wei"`

	// MinProfit and SimulatedCost are denominated in TokenOut units.
	MinProfit     string `toml:"min_profit"`
	SimulatedCost string `toml:"simulated_cost"`

	PollIntervalSecs int `toml:"poll_interval_secs"`
	QuoteTimeoutSecs int `toml:"quote_timeout_secs"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Backend is "sqlite" or "postgres".
	Backend  string         `toml:"backend"`
	SQLite   SQLiteConfig   `toml:"sqlite"`
	Postgres PostgresConfig `toml:"postgres"`
}

// SQLiteConfig holds file-backed store parameters.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds the optional Redis event-bus parameters.
type RedisConfig struct {
	Enabled      bool   `toml:"enabled"`
	Addr         string `toml:"addr"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"pool_size"`
	EventChannel string `toml:"event_channel"`
	EventStream  string `toml:"event_stream"`
}

// ServerConfig holds the dashboard HTTP server parameters.
type ServerConfig struct {
	Enabled     bool            `toml:"enabled"`
	Port        int             `toml:"port"`
	CORSOrigins []string        `toml:"cors_origins"`
	RateLimit   RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig enables Redis-backed API rate limiting. It only takes
// effect when the Redis section is enabled as well.
type RateLimitConfig struct {
	Enabled           bool `toml:"enabled"`
	RequestsPerMinute int  `toml:"requests_per_minute"`
}

// NotifyConfig holds notification channel credentials and filters.
type NotifyConfig struct {
	Enabled           bool     `toml:"enabled"`
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	// MinProfit suppresses alerts for opportunities below this profit
	// (TokenOut units). Empty means alert on every opportunity.
	MinProfit string `toml:"min_profit"`
}

// ExportConfig holds the cold-storage export parameters.
type ExportConfig struct {
	Enabled       bool     `toml:"enabled"`
	IntervalHours int      `toml:"interval_hours"`
	RetentionDays int      `toml:"retention_days"`
	Prefix        string   `toml:"prefix"`
	S3            S3Config `toml:"s3"`
}

// Interval returns the export period as a duration.
func (c ExportConfig) Interval() time.Duration {
	return time.Duration(c.IntervalHours) * time.Hour
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// Defaults returns a Config populated with reasonable default values: the
// QuickSwap and SushiSwap V2 routers on Polygon mainnet quoting one WETH
// into USDC every ten seconds.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{
			RPCURL:          "https://polygon-rpc.com",
			DialTimeoutSecs: 10,
		},
		Trade: TradeConfig{
			DexALabel:        "QuickSwap",
			DexARouter:       "0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff",
			DexBLabel:        "SushiSwap",
			DexBRouter:       "0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506",
			TokenIn:          "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619", // WETH
			TokenOut:         "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174", // USDC
			TradeSizeWei:     "1000000000000000000",                        // 1 WETH
			MinProfit:        "0.5",
			SimulatedCost:    "0.2",
			PollIntervalSecs: 10,
			QuoteTimeoutSecs: 8,
		},
		Store: StoreConfig{
			Backend: "sqlite",
			SQLite: SQLiteConfig{
				Path: "opportunities.db",
			},
			Postgres: PostgresConfig{
				PoolMaxConns:  10,
				PoolMinConns:  2,
				RunMigrations: true,
			},
		},
		Redis: RedisConfig{
			Enabled:      false,
			Addr:         "localhost:6379",
			DB:           0,
			PoolSize:     10,
			EventChannel: "polyarb:events",
			EventStream:  "polyarb:events:log",
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8080,
			CORSOrigins: []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 120,
			},
		},
		Notify: NotifyConfig{
			Enabled: false,
			Events:  []string{"opportunity_found"},
		},
		Export: ExportConfig{
			Enabled:       false,
			IntervalHours: 24,
			RetentionDays: 30,
			Prefix:        "archive",
			S3: S3Config{
				Endpoint:       "http://localhost:9000",
				Region:         "us-east-1",
				Bucket:         "polyarb-data",
				UseSSL:         false,
				ForcePathStyle: true,
			},
		},
		Mode:      "detect",
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"detect": true,
	"server": true,
	"once":   true,
	"export": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats enumerates the accepted values for Config.LogFormat.
var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: detect, server, once, export)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if !validLogFormats[strings.ToLower(c.LogFormat)] {
		errs = append(errs, fmt.Sprintf("unknown log_format %q (valid: json, text)", c.LogFormat))
	}

	// Chain
	if c.Chain.RPCURL == "" {
		errs = append(errs, "chain: rpc_url must not be empty")
	}
	if c.Chain.DialTimeoutSecs < 1 {
		errs = append(errs, "chain: dial_timeout_secs must be >= 1")
	}

	// Trade
	if c.Trade.DexALabel == "" || c.Trade.DexBLabel == "" {
		errs = append(errs, "trade: dex_a_label and dex_b_label must not be empty")
	}
	if c.Trade.DexALabel == c.Trade.DexBLabel {
		errs = append(errs, fmt.Sprintf("trade: dex labels must differ, both are %q", c.Trade.DexALabel))
	}
	for name, addr := range map[string]string{
		"dex_a_router": c.Trade.DexARouter,
		"dex_b_router": c.Trade.DexBRouter,
		"token_in":     c.Trade.TokenIn,
		"token_out":    c.Trade.TokenOut,
	} {
		if !common.IsHexAddress(addr) {
			errs = append(errs, fmt.Sprintf("trade: %s %q is not a valid address", name, addr))
		}
	}
	if common.IsHexAddress(c.Trade.TokenIn) && common.IsHexAddress(c.Trade.TokenOut) &&
		common.HexToAddress(c.Trade.TokenIn) == common.HexToAddress(c.Trade.TokenOut) {
		errs = append(errs, "trade: token_in and token_out must differ")
	}
	if size, ok := new(big.Int).SetString(c.Trade.TradeSizeWei, 10); !ok || size.Sign() <= 0 {
		errs = append(errs, fmt.Sprintf("trade: trade_size_wei %q must be a positive integer", c.Trade.TradeSizeWei))
	}
	if _, err := decimal.NewFromString(c.Trade.MinProfit); err != nil {
		errs = append(errs, fmt.Sprintf("trade: min_profit %q is not a valid decimal", c.Trade.MinProfit))
	}
	if _, err := decimal.NewFromString(c.Trade.SimulatedCost); err != nil {
		errs = append(errs, fmt.Sprintf("trade: simulated_cost %q is not a valid decimal", c.Trade.SimulatedCost))
	}
	if c.Trade.PollIntervalSecs < 1 {
		errs = append(errs, "trade: poll_interval_secs must be >= 1")
	}
	if c.Trade.QuoteTimeoutSecs < 1 {
		errs = append(errs, "trade: quote_timeout_secs must be >= 1")
	}
	// A stalled venue must never be able to delay the next pass.
	if c.Trade.QuoteTimeoutSecs >= c.Trade.PollIntervalSecs {
		errs = append(errs, fmt.Sprintf("trade: quote_timeout_secs (%d) must be below poll_interval_secs (%d)",
			c.Trade.QuoteTimeoutSecs, c.Trade.PollIntervalSecs))
	}

	// Store
	switch strings.ToLower(c.Store.Backend) {
	case "sqlite":
		if c.Store.SQLite.Path == "" {
			errs = append(errs, "store: sqlite.path must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(c.Store.Postgres.DSN) == "" {
			errs = append(errs, "store: postgres.dsn must not be empty")
		}
		if c.Store.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "store: postgres.pool_max_conns must be >= 1")
		}
		if c.Store.Postgres.PoolMinConns < 0 {
			errs = append(errs, "store: postgres.pool_min_conns must be >= 0")
		}
		if c.Store.Postgres.PoolMinConns > c.Store.Postgres.PoolMaxConns {
			errs = append(errs, "store: postgres.pool_min_conns must not exceed pool_max_conns")
		}
	default:
		errs = append(errs, fmt.Sprintf("store: unknown backend %q (valid: sqlite, postgres)", c.Store.Backend))
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.EventChannel == "" {
			errs = append(errs, "redis: event_channel must not be empty when enabled")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit.Enabled {
			if !c.Redis.Enabled {
				errs = append(errs, "server: rate_limit requires the redis section to be enabled")
			}
			if c.Server.RateLimit.RequestsPerMinute < 1 {
				errs = append(errs, "server: rate_limit.requests_per_minute must be >= 1")
			}
		}
	}

	// Notify
	if c.Notify.Enabled {
		hasTelegram := c.Notify.TelegramToken != "" && c.Notify.TelegramChatID != ""
		hasDiscord := c.Notify.DiscordWebhookURL != ""
		if !hasTelegram && !hasDiscord {
			errs = append(errs, "notify: at least one of telegram or discord must be configured when enabled")
		}
		if c.Notify.MinProfit != "" {
			if _, err := decimal.NewFromString(c.Notify.MinProfit); err != nil {
				errs = append(errs, fmt.Sprintf("notify: min_profit %q is not a valid decimal", c.Notify.MinProfit))
			}
		}
	}

	// Export
	if c.Export.Enabled || strings.ToLower(c.Mode) == "export" {
		if c.Export.S3.Bucket == "" {
			errs = append(errs, "export: s3.bucket must not be empty when enabled")
		}
		if c.Export.S3.Region == "" {
			errs = append(errs, "export: s3.region must not be empty when enabled")
		}
		if c.Export.IntervalHours < 1 {
			errs = append(errs, "export: interval_hours must be >= 1")
		}
		if c.Export.RetentionDays < 1 {
			errs = append(errs, "export: retention_days must be >= 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// TradeParameters converts the trade section into its runtime form. It
// assumes Validate has passed; parse failures are still reported rather than
// panicking.
func (c *Config) TradeParameters() (domain.TradeParameters, error) {
	var p domain.TradeParameters

	if !common.IsHexAddress(c.Trade.TokenIn) || !common.IsHexAddress(c.Trade.TokenOut) {
		return p, fmt.Errorf("config: invalid token address")
	}
	p.TokenIn = common.HexToAddress(c.Trade.TokenIn)
	p.TokenOut = common.HexToAddress(c.Trade.TokenOut)

	size, ok := new(big.Int).SetString(c.Trade.TradeSizeWei, 10)
	if !ok || size.Sign() <= 0 {
		return p, fmt.Errorf("config: invalid trade_size_wei %q", c.Trade.TradeSizeWei)
	}
	p.AmountIn = size

	minProfit, err := decimal.NewFromString(c.Trade.MinProfit)
	if err != nil {
		return p, fmt.Errorf("config: parse min_profit: %w", err)
	}
	p.MinProfit = minProfit

	cost, err := decimal.NewFromString(c.Trade.SimulatedCost)
	if err != nil {
		return p, fmt.Errorf("config: parse simulated_cost: %w", err)
	}
	p.SimulatedCost = cost

	p.PollInterval = time.Duration(c.Trade.PollIntervalSecs) * time.Second
	p.QuoteTimeout = time.Duration(c.Trade.QuoteTimeoutSecs) * time.Second
	return p, nil
}
