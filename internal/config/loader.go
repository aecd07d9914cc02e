package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies environment variable overrides, and returns the
// final Config. A missing file is not an error — the detector runs fine from
// defaults plus environment. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, fmt.Errorf("config: decode %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known environment variables and overwrites
// the corresponding Config fields when a variable is set (i.e. not empty).
// This lets operators inject secrets at deploy time without touching the
// TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Legacy unprefixed names ──
	// Kept for compatibility with earlier deployments. Applied first so the
	// POLYARB_* form wins whenever both are set.
	setStr(&cfg.Chain.RPCURL, "RPC_URL")
	setStr(&cfg.Trade.DexARouter, "DEX_A_ROUTER")
	setStr(&cfg.Trade.DexBRouter, "DEX_B_ROUTER")
	setStr(&cfg.Trade.TokenIn, "TOKEN_IN")
	setStr(&cfg.Trade.TokenOut, "TOKEN_OUT")
	setStr(&cfg.Trade.TradeSizeWei, "TRADE_SIZE_WEI")
	setStr(&cfg.Trade.MinProfit, "MIN_PROFIT_USDC")
	setStr(&cfg.Trade.SimulatedCost, "SIMULATED_GAS_USDC")
	setInt(&cfg.Trade.PollIntervalSecs, "POLL_INTERVAL_SECS")
	setStr(&cfg.Store.SQLite.Path, "DATABASE_PATH")

	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "POLYARB_CHAIN_RPC_URL")
	setInt(&cfg.Chain.DialTimeoutSecs, "POLYARB_CHAIN_DIAL_TIMEOUT_SECS")

	// ── Trade ──
	setStr(&cfg.Trade.DexALabel, "POLYARB_TRADE_DEX_A_LABEL")
	setStr(&cfg.Trade.DexARouter, "POLYARB_TRADE_DEX_A_ROUTER")
	setStr(&cfg.Trade.DexBLabel, "POLYARB_TRADE_DEX_B_LABEL")
	setStr(&cfg.Trade.DexBRouter, "POLYARB_TRADE_DEX_B_ROUTER")
	setStr(&cfg.Trade.TokenIn, "POLYARB_TRADE_TOKEN_IN")
	setStr(&cfg.Trade.TokenOut, "POLYARB_TRADE_TOKEN_OUT")
	setStr(&cfg.Trade.TradeSizeWei, "POLYARB_TRADE_TRADE_SIZE_WEI")
	setStr(&cfg.Trade.MinProfit, "POLYARB_TRADE_MIN_PROFIT")
	setStr(&cfg.Trade.SimulatedCost, "POLYARB_TRADE_SIMULATED_COST")
	setInt(&cfg.Trade.PollIntervalSecs, "POLYARB_TRADE_POLL_INTERVAL_SECS")
	setInt(&cfg.Trade.QuoteTimeoutSecs, "POLYARB_TRADE_QUOTE_TIMEOUT_SECS")

	// ── Store ──
	setStr(&cfg.Store.Backend, "POLYARB_STORE_BACKEND")
	setStr(&cfg.Store.SQLite.Path, "POLYARB_STORE_SQLITE_PATH")
	setStr(&cfg.Store.Postgres.DSN, "POLYARB_STORE_POSTGRES_DSN")
	setInt(&cfg.Store.Postgres.PoolMaxConns, "POLYARB_STORE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Store.Postgres.PoolMinConns, "POLYARB_STORE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Store.Postgres.RunMigrations, "POLYARB_STORE_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "POLYARB_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "POLYARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYARB_REDIS_POOL_SIZE")
	setStr(&cfg.Redis.EventChannel, "POLYARB_REDIS_EVENT_CHANNEL")
	setStr(&cfg.Redis.EventStream, "POLYARB_REDIS_EVENT_STREAM")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "POLYARB_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "POLYARB_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "POLYARB_SERVER_CORS_ORIGINS")
	setBool(&cfg.Server.RateLimit.Enabled, "POLYARB_SERVER_RATE_LIMIT_ENABLED")
	setInt(&cfg.Server.RateLimit.RequestsPerMinute, "POLYARB_SERVER_RATE_LIMIT_REQUESTS_PER_MINUTE")

	// ── Notify ──
	setBool(&cfg.Notify.Enabled, "POLYARB_NOTIFY_ENABLED")
	setStr(&cfg.Notify.TelegramToken, "POLYARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLYARB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POLYARB_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "POLYARB_NOTIFY_EVENTS")
	setStr(&cfg.Notify.MinProfit, "POLYARB_NOTIFY_MIN_PROFIT")

	// ── Export ──
	setBool(&cfg.Export.Enabled, "POLYARB_EXPORT_ENABLED")
	setInt(&cfg.Export.IntervalHours, "POLYARB_EXPORT_INTERVAL_HOURS")
	setInt(&cfg.Export.RetentionDays, "POLYARB_EXPORT_RETENTION_DAYS")
	setStr(&cfg.Export.Prefix, "POLYARB_EXPORT_PREFIX")
	setStr(&cfg.Export.S3.Endpoint, "POLYARB_EXPORT_S3_ENDPOINT")
	setStr(&cfg.Export.S3.Region, "POLYARB_EXPORT_S3_REGION")
	setStr(&cfg.Export.S3.Bucket, "POLYARB_EXPORT_S3_BUCKET")
	setStr(&cfg.Export.S3.AccessKey, "POLYARB_EXPORT_S3_ACCESS_KEY")
	setStr(&cfg.Export.S3.SecretKey, "POLYARB_EXPORT_S3_SECRET_KEY")
	setBool(&cfg.Export.S3.UseSSL, "POLYARB_EXPORT_S3_USE_SSL")
	setBool(&cfg.Export.S3.ForcePathStyle, "POLYARB_EXPORT_S3_FORCE_PATH_STYLE")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYARB_MODE")
	setStr(&cfg.LogLevel, "POLYARB_LOG_LEVEL")
	setStr(&cfg.LogFormat, "POLYARB_LOG_FORMAT")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
