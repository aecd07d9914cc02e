package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// OpportunityHandler serves the recorded opportunity log.
type OpportunityHandler struct {
	store  domain.OpportunityStore
	logger *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler over the given store.
func NewOpportunityHandler(store domain.OpportunityStore, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{store: store, logger: logger}
}

// listResponse wraps the opportunity list with its length so dashboards can
// page without counting.
type listResponse struct {
	Opportunities []domain.Opportunity `json:"opportunities"`
	Count         int                  `json:"count"`
}

// List returns recorded opportunities newest first.
// GET /api/opportunities?limit=100&offset=0&since=2026-01-02T15:04:05Z
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.query(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Opportunities: rows, Count: len(rows)})
}

// ListLegacy returns the same rows as a bare JSON array, the shape the first
// dashboard consumed.
// GET /opportunities
func (h *OpportunityHandler) ListLegacy(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.query(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *OpportunityHandler) query(w http.ResponseWriter, r *http.Request) ([]domain.Opportunity, bool) {
	opts, err := parseListOpts(r)
	if err != nil {
		var bad badParamError
		if errors.As(err, &bad) {
			writeError(w, http.StatusBadRequest, bad.Error())
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid query")
		return nil, false
	}

	rows, err := h.store.List(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return nil, false
	}
	if rows == nil {
		rows = []domain.Opportunity{}
	}
	return rows, true
}
