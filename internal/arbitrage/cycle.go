package arbitrage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// Cycle drives detection passes at a fixed cadence: quote both venues
// concurrently, evaluate the spread, record what clears the bar. Passes are
// strictly sequential; a pass that overruns the interval delays the next tick
// rather than overlapping it.
type Cycle struct {
	params    domain.TradeParameters
	sourceA   domain.QuoteSource
	sourceB   domain.QuoteSource
	evaluator *Evaluator
	store     domain.OpportunityStore
	bus       domain.EventBus
	channel   string
	stats     *Stats
	logger    *slog.Logger
}

// CycleConfig wires a detection cycle. Bus is optional; Evaluator and Stats
// default from Params when nil.
type CycleConfig struct {
	Params    domain.TradeParameters
	SourceA   domain.QuoteSource
	SourceB   domain.QuoteSource
	Evaluator *Evaluator
	Store     domain.OpportunityStore
	Bus       domain.EventBus
	Channel   string
	Stats     *Stats
	Logger    *slog.Logger
}

func NewCycle(cfg CycleConfig) *Cycle {
	evaluator := cfg.Evaluator
	if evaluator == nil {
		evaluator = NewEvaluator(cfg.Params.MinProfit, cfg.Params.SimulatedCost)
	}
	stats := cfg.Stats
	if stats == nil {
		stats = NewStats()
	}
	channel := cfg.Channel
	if channel == "" {
		channel = "events"
	}
	return &Cycle{
		params:    cfg.Params,
		sourceA:   cfg.SourceA,
		sourceB:   cfg.SourceB,
		evaluator: evaluator,
		store:     cfg.Store,
		bus:       cfg.Bus,
		channel:   channel,
		stats:     stats,
		logger:    cfg.Logger.With(slog.String("component", "cycle")),
	}
}

// Stats exposes the cycle's counters for the status endpoint.
func (c *Cycle) Stats() StatsSnapshot {
	return c.stats.Snapshot()
}

// Run executes detection passes until ctx is cancelled. The first pass starts
// immediately; later passes follow the poll interval. Venue, precision and
// store failures are reported and absorbed; only cancellation ends the loop.
func (c *Cycle) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.params.PollInterval)
	defer ticker.Stop()

	c.logger.Info("detection cycle started",
		slog.String("dex_a", c.sourceA.Label()),
		slog.String("dex_b", c.sourceB.Label()),
		slog.Duration("poll_interval", c.params.PollInterval),
		slog.Duration("quote_timeout", c.params.QuoteTimeout),
	)
	defer c.logger.Info("detection cycle stopped")

	for {
		_ = c.pass(ctx) // already reported; never stops the cycle
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single detection pass and reports its outcome, for the
// one-shot mode.
func (c *Cycle) RunOnce(ctx context.Context) error {
	return c.pass(ctx)
}

func (c *Cycle) pass(ctx context.Context) error {
	passID := uuid.NewString()
	logger := c.logger.With(slog.String("pass", passID))

	c.publish(ctx, c.event(domain.EventCycleStarted, passID))

	// Both venues share one timeout budget, strictly shorter than the poll
	// interval so a hung RPC can never bleed into the next pass.
	fetchCtx, cancel := context.WithTimeout(ctx, c.params.QuoteTimeout)
	defer cancel()

	var (
		quoteA, quoteB domain.Quote
		errA, errB     error
	)
	var g errgroup.Group
	g.Go(func() error {
		quoteA, errA = c.sourceA.Quote(fetchCtx, c.params.TokenIn, c.params.TokenOut, c.params.AmountIn)
		return errA
	})
	g.Go(func() error {
		quoteB, errB = c.sourceB.Quote(fetchCtx, c.params.TokenIn, c.params.TokenOut, c.params.AmountIn)
		return errB
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			// Shutting down, not a venue failure.
			return ctx.Err()
		}
		if errA != nil {
			c.reportFetchError(ctx, logger, passID, c.sourceA.Label(), errA)
		}
		if errB != nil {
			c.reportFetchError(ctx, logger, passID, c.sourceB.Label(), errB)
		}
		return err
	}

	priceA, priceB := quoteA.Price(), quoteB.Price()
	logger.Info("prices fetched",
		slog.String("dex_a", c.sourceA.Label()),
		slog.String("price_a", priceA.String()),
		slog.String("dex_b", c.sourceB.Label()),
		slog.String("price_b", priceB.String()),
	)
	pricesEv := c.event(domain.EventPrices, passID)
	pricesEv.PriceA, pricesEv.PriceB = &priceA, &priceB
	c.publish(ctx, pricesEv)

	opp := c.evaluator.Evaluate(c.params.AmountIn,
		VenueQuote{Venue: c.sourceA.Label(), Quote: quoteA},
		VenueQuote{Venue: c.sourceB.Label(), Quote: quoteB},
	)
	if opp == nil {
		logger.Debug("no opportunity above threshold")
		c.publish(ctx, c.event(domain.EventNoOpportunity, passID))
		c.stats.recordPass(false)
		return nil
	}

	if err := c.store.Record(ctx, opp); err != nil {
		logger.Error("opportunity write failed", slog.String("error", err.Error()))
		storeEv := c.event(domain.EventStoreError, passID)
		storeEv.Error = err.Error()
		c.publish(ctx, storeEv)
		c.stats.recordError()
		return err
	}

	logger.Info("opportunity recorded",
		slog.Int64("id", opp.ID),
		slog.String("dex_buy", opp.DexBuy),
		slog.String("dex_sell", opp.DexSell),
		slog.String("profit", opp.Profit.String()),
	)
	foundEv := c.event(domain.EventOpportunityFound, passID)
	foundEv.Opportunity = opp
	c.publish(ctx, foundEv)
	c.stats.recordPass(true)
	return nil
}

func (c *Cycle) reportFetchError(ctx context.Context, logger *slog.Logger, passID, venue string, err error) {
	typ := domain.EventQuoteError
	if errors.Is(err, domain.ErrPrecisionLookup) {
		typ = domain.EventPrecisionError
	}
	logger.Error("venue fetch failed",
		slog.String("dex", venue),
		slog.String("error", err.Error()),
	)
	ev := c.event(typ, passID)
	ev.Venue = venue
	ev.Error = err.Error()
	c.publish(ctx, ev)
	c.stats.recordError()
}

func (c *Cycle) event(typ domain.EventType, passID string) domain.Event {
	ev := domain.NewEvent(typ)
	ev.Pass = passID
	return ev
}

func (c *Cycle) publish(ctx context.Context, ev domain.Event) {
	if c.bus == nil {
		return
	}
	payload, err := ev.Marshal()
	if err != nil {
		c.logger.Warn("event marshal failed", slog.String("error", err.Error()))
		return
	}
	if err := c.bus.Publish(ctx, c.channel, payload); err != nil {
		c.logger.Warn("event publish failed",
			slog.String("channel", c.channel),
			slog.String("error", err.Error()),
		)
	}
}
