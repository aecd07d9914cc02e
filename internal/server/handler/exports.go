package handler

import (
	"log/slog"
	"net/http"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// ExportsHandler lists the archive snapshots the exporter has uploaded.
type ExportsHandler struct {
	reader domain.BlobReader // nil when export is not configured
	prefix string
	logger *slog.Logger
}

// NewExportsHandler creates an ExportsHandler. reader may be nil; the
// endpoint then answers 501 so dashboards can hide the view.
func NewExportsHandler(reader domain.BlobReader, prefix string, logger *slog.Logger) *ExportsHandler {
	return &ExportsHandler{reader: reader, prefix: prefix, logger: logger}
}

// List returns every archived object under the export prefix.
// GET /api/exports
func (h *ExportsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		writeError(w, http.StatusNotImplemented, "export is not configured")
		return
	}

	infos, err := h.reader.List(r.Context(), h.prefix)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list exports failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list exports")
		return
	}
	if infos == nil {
		infos = []domain.BlobInfo{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"exports": infos,
		"count":   len(infos),
	})
}
