package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/server"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/server/handler"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/server/ws"
)

// shutdownTimeout bounds the HTTP server drain on exit.
const shutdownTimeout = 5 * time.Second

// DetectMode runs the detection cycle together with every enabled sidecar:
// the dashboard server, the notifier, and the cold-storage exporter.
func (a *App) DetectMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting detect mode",
		slog.String("dex_a", a.cfg.Trade.DexALabel),
		slog.String("dex_b", a.cfg.Trade.DexBLabel),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Cycle.Run(ctx)
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	if deps.Notifier != nil {
		g.Go(func() error {
			return deps.Notifier.Run(ctx, deps.Bus, deps.EventChannel)
		})
	}

	if deps.Exporter != nil {
		g.Go(func() error {
			return deps.Exporter.Run(ctx)
		})
	}

	return g.Wait()
}

// ServerMode serves the dashboard and API without running detection. Useful
// next to a separate detect process sharing the store and Redis bus.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode",
		slog.Int("port", a.cfg.Server.Port),
	)

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// OnceMode executes a single detection pass and exits. The pass runs the
// whole path: quotes, evaluation, and recording when an opportunity clears
// the threshold.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "running single detection pass")

	if err := deps.Cycle.RunOnce(ctx); err != nil {
		return fmt.Errorf("once mode: %w", err)
	}

	snap := deps.Cycle.Stats()
	a.logger.InfoContext(ctx, "pass complete",
		slog.Uint64("opportunities", snap.Opportunities),
	)
	return nil
}

// ExportMode runs one cold-storage export and exits.
func (a *App) ExportMode(ctx context.Context, deps *Dependencies) error {
	res, err := deps.Exporter.Export(ctx)
	if err != nil {
		return fmt.Errorf("export mode: %w", err)
	}

	if res.Rows == 0 {
		a.logger.InfoContext(ctx, "nothing to export")
		return nil
	}
	a.logger.InfoContext(ctx, "export finished",
		slog.String("path", res.Path),
		slog.Int("rows", res.Rows),
		slog.Int64("bytes", res.Bytes),
		slog.Int64("pruned", res.Pruned),
	)
	return nil
}

// startHTTPServer adds the dashboard server and its WebSocket hub to the
// errgroup. The server is shut down gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	checks := []handler.HealthCheck{
		{Name: "store", Probe: deps.Store.Health},
	}
	if deps.Chain != nil {
		checks = append(checks, handler.HealthCheck{Name: "chain", Probe: deps.Chain.Health})
	}
	if deps.Redis != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Probe: deps.Redis.Ping})
	}
	if deps.Blob != nil {
		checks = append(checks, handler.HealthCheck{Name: "object_storage", Probe: deps.Blob.Health})
	}

	// The status endpoint reports cycle counters only when a cycle runs in
	// this process.
	var cycle handler.CycleStats
	if deps.Cycle != nil {
		cycle = deps.Cycle
	}
	status := handler.NewStatusHandler(handler.StatusConfig{
		Mode:      a.cfg.Mode,
		DexALabel: a.cfg.Trade.DexALabel,
		DexBLabel: a.cfg.Trade.DexBLabel,
		Params:    deps.Params,
		StartedAt: a.startedAt,
	}, cycle, deps.Store, a.base)

	hub := ws.NewHub(deps.Bus, deps.EventChannel, a.base)
	if deps.History != nil {
		hub = hub.WithHistory(deps.History)
	}
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.New(server.Config{
		Port:              a.cfg.Server.Port,
		CORSOrigins:       a.cfg.Server.CORSOrigins,
		RateLimiter:       deps.RateLimiter,
		RequestsPerMinute: a.cfg.Server.RateLimit.RequestsPerMinute,
	}, server.Handlers{
		Opportunities: handler.NewOpportunityHandler(deps.Store, a.base),
		Status:        status,
		Health:        handler.NewHealthHandler(checks, a.base),
		Exports:       handler.NewExportsHandler(deps.BlobReader, a.cfg.Export.Prefix, a.base),
	}, hub, a.base)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
