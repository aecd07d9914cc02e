package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/arbitrage"
	s3blob "github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/blob/s3"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/bus"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/cache/redis"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/config"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/dex"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/notify"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/pipeline"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/store/postgres"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/store/sqlite"
)

// defaultEventChannel is the bus channel used when Redis (and its configured
// channel name) is not in play.
const defaultEventChannel = "events"

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
// Fields are nil when the configuration does not call for them.
type Dependencies struct {
	Params domain.TradeParameters

	// Chain-facing pieces, built only for modes that run detection passes.
	Chain   *dex.Client
	SourceA domain.QuoteSource
	SourceB domain.QuoteSource
	Cycle   *arbitrage.Cycle

	Store domain.OpportunityStore

	// Event transport. History is non-nil only on the Redis bus, which keeps
	// a capped stream of recent events.
	Bus          domain.EventBus
	History      domain.EventHistory
	EventChannel string
	Redis        *redis.Client

	// RateLimiter backs the API limit middleware; nil disables it.
	RateLimiter domain.RateLimiter

	// Cold-storage pieces, built when export is configured.
	Blob       *s3blob.Client
	BlobReader domain.BlobReader
	Exporter   *pipeline.Exporter

	Notifier *notify.Notifier
}

// needsChain reports whether the mode runs detection passes and therefore
// needs the RPC client and quoters.
func needsChain(mode string) bool {
	switch mode {
	case "detect", "once":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that must
// be called on shutdown to release resources. Closers run in reverse
// construction order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	params, err := cfg.TradeParameters()
	if err != nil {
		return nil, nil, fmt.Errorf("wire: trade parameters: %w", err)
	}

	deps := &Dependencies{
		Params:       params,
		EventChannel: defaultEventChannel,
	}
	mode := strings.ToLower(cfg.Mode)

	// --- Persistence (every mode touches the store) ---
	switch strings.ToLower(cfg.Store.Backend) {
	case "postgres":
		pg, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Store.Postgres.DSN,
			MaxConns: cfg.Store.Postgres.PoolMaxConns,
			MinConns: cfg.Store.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pg.Close)

		if cfg.Store.Postgres.RunMigrations {
			if err := pg.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.Store = postgres.NewOpportunityStore(pg.Pool())

	default: // sqlite
		sq, err := sqlite.New(ctx, sqlite.ClientConfig{Path: cfg.Store.SQLite.Path})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: sqlite: %w", err)
		}
		closers = append(closers, func() { _ = sq.Close() })

		if err := sq.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: sqlite migrations: %w", err)
		}
		deps.Store = sqlite.NewOpportunityStore(sq.DB())
	}

	// --- Event transport ---
	if cfg.Redis.Enabled {
		rc, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = rc.Close() })
		deps.Redis = rc

		eventBus := redis.NewEventBus(rc, cfg.Redis.EventStream)
		deps.Bus = eventBus
		deps.History = eventBus
		if cfg.Redis.EventChannel != "" {
			deps.EventChannel = cfg.Redis.EventChannel
		}

		if cfg.Server.RateLimit.Enabled {
			deps.RateLimiter = redis.NewRateLimiter(rc)
		}
	} else {
		deps.Bus = bus.NewMemory()
	}

	// --- Chain client, quoters, cycle ---
	if needsChain(mode) {
		chain, err := dex.New(ctx, dex.ClientConfig{
			RPCURL:      cfg.Chain.RPCURL,
			DialTimeout: cfg.Chain.DialTimeout(),
		}, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: chain client: %w", err)
		}
		closers = append(closers, chain.Close)
		deps.Chain = chain

		// Both quoters share one decimals cache so each token is resolved
		// once per process.
		decimals := dex.NewDecimalsCache(chain, logger)
		deps.SourceA = dex.NewRouterQuoter(chain.Caller(),
			common.HexToAddress(cfg.Trade.DexARouter), cfg.Trade.DexALabel, decimals, logger)
		deps.SourceB = dex.NewRouterQuoter(chain.Caller(),
			common.HexToAddress(cfg.Trade.DexBRouter), cfg.Trade.DexBLabel, decimals, logger)

		deps.Cycle = arbitrage.NewCycle(arbitrage.CycleConfig{
			Params:  params,
			SourceA: deps.SourceA,
			SourceB: deps.SourceB,
			Store:   deps.Store,
			Bus:     deps.Bus,
			Channel: deps.EventChannel,
			Logger:  logger,
		})
	}

	// --- Cold storage (export mode always, detect as a sidecar when enabled) ---
	if mode == "export" || cfg.Export.Enabled {
		blob, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.Export.S3.Endpoint,
			Region:         cfg.Export.S3.Region,
			Bucket:         cfg.Export.S3.Bucket,
			AccessKey:      cfg.Export.S3.AccessKey,
			SecretKey:      cfg.Export.S3.SecretKey,
			UseSSL:         cfg.Export.S3.UseSSL,
			ForcePathStyle: cfg.Export.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Blob = blob
		deps.BlobReader = s3blob.NewReader(blob)
		deps.Exporter = pipeline.NewExporter(deps.Store, s3blob.NewWriter(blob), pipeline.ExporterConfig{
			Prefix:        cfg.Export.Prefix,
			RetentionDays: cfg.Export.RetentionDays,
			Interval:      cfg.Export.Interval(),
		}, logger)
	}

	// --- Notifications ---
	if cfg.Notify.Enabled {
		var senders []notify.Sender
		if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
			senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
		}
		if cfg.Notify.DiscordWebhookURL != "" {
			senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
		}

		minProfit := decimal.Zero
		if cfg.Notify.MinProfit != "" {
			mp, err := decimal.NewFromString(cfg.Notify.MinProfit)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: notify min_profit: %w", err)
			}
			minProfit = mp
		}

		deps.Notifier = notify.NewNotifier(notify.NotifierConfig{
			Senders:   senders,
			Events:    cfg.Notify.Events,
			MinProfit: minProfit,
			Logger:    logger,
		})
	}

	return deps, cleanup, nil
}
