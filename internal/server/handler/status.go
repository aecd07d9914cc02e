package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/arbitrage"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// CycleStats exposes the detection counters the status endpoint renders.
type CycleStats interface {
	Stats() arbitrage.StatsSnapshot
}

// StatusConfig carries the static facts shown on /api/status.
type StatusConfig struct {
	Mode      string
	DexALabel string
	DexBLabel string
	Params    domain.TradeParameters
	StartedAt time.Time
}

// StatusHandler reports run mode, trade parameters, cycle counters, and the
// stored row count.
type StatusHandler struct {
	cfg    StatusConfig
	cycle  CycleStats // nil in server-only mode
	store  domain.OpportunityStore
	logger *slog.Logger
}

// NewStatusHandler creates a StatusHandler. cycle may be nil when no
// detection loop is running in this process.
func NewStatusHandler(cfg StatusConfig, cycle CycleStats, store domain.OpportunityStore, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{cfg: cfg, cycle: cycle, store: store, logger: logger}
}

// GetStatus renders the operator-facing status snapshot.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"mode":           h.cfg.Mode,
		"uptime_seconds": int64(time.Since(h.cfg.StartedAt).Seconds()),
		"trade": map[string]any{
			"dex_a":          h.cfg.DexALabel,
			"dex_b":          h.cfg.DexBLabel,
			"token_in":       h.cfg.Params.TokenIn.Hex(),
			"token_out":      h.cfg.Params.TokenOut.Hex(),
			"amount_in_wei":  h.cfg.Params.AmountIn.String(),
			"min_profit":     h.cfg.Params.MinProfit.String(),
			"simulated_cost": h.cfg.Params.SimulatedCost.String(),
			"poll_interval":  h.cfg.Params.PollInterval.String(),
			"quote_timeout":  h.cfg.Params.QuoteTimeout.String(),
		},
	}

	if h.cycle != nil {
		resp["cycle"] = h.cycle.Stats()
	}

	if count, err := h.store.Count(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "status count failed", slog.String("error", err.Error()))
	} else {
		resp["stored_opportunities"] = count
	}

	writeJSON(w, http.StatusOK, resp)
}
