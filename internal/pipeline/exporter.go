// Package pipeline holds the background jobs that move opportunity data out
// of the hot store.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

const (
	// defaultMultipartThreshold switches uploads to the multipart path once
	// a snapshot outgrows a single comfortable PutObject.
	defaultMultipartThreshold int64 = 8 * 1024 * 1024
	defaultPartSize           int64 = 8 * 1024 * 1024
)

// ExporterConfig configures the cold-storage exporter.
type ExporterConfig struct {
	// Prefix is the object key prefix, e.g. "archive".
	Prefix string
	// RetentionDays keeps this many days in the hot store; older rows are
	// exported and pruned.
	RetentionDays int
	// Interval is the pause between runs.
	Interval time.Duration
	// MultipartThreshold overrides the size at which uploads go multipart.
	MultipartThreshold int64
}

// ExportResult summarises one export run.
type ExportResult struct {
	Path   string `json:"path,omitempty"`
	Rows   int    `json:"rows"`
	Bytes  int64  `json:"bytes"`
	Pruned int64  `json:"pruned"`
}

// Exporter drains rows past their retention window into object storage as
// JSONL snapshots. Rows are pruned from the store only after the upload
// succeeds, so a failed run costs duplicated export work, never data.
type Exporter struct {
	store     domain.OpportunityStore
	writer    domain.BlobWriter
	prefix    string
	retention int
	interval  time.Duration
	threshold int64
	logger    *slog.Logger
}

func NewExporter(store domain.OpportunityStore, writer domain.BlobWriter, cfg ExporterConfig, logger *slog.Logger) *Exporter {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "archive"
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	threshold := cfg.MultipartThreshold
	if threshold <= 0 {
		threshold = defaultMultipartThreshold
	}
	retention := cfg.RetentionDays
	if retention < 0 {
		retention = 0
	}
	return &Exporter{
		store:     store,
		writer:    writer,
		prefix:    prefix,
		retention: retention,
		interval:  interval,
		threshold: threshold,
		logger:    logger.With(slog.String("component", "exporter")),
	}
}

// Export runs one snapshot: rows older than the retention cutoff are encoded
// as JSONL oldest-first, uploaded, then pruned.
func (e *Exporter) Export(ctx context.Context) (*ExportResult, error) {
	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -e.retention)

	rows, err := e.store.List(ctx, domain.ListOpts{Before: cutoff})
	if err != nil {
		return nil, fmt.Errorf("pipeline: export query: %w", err)
	}
	if len(rows) == 0 {
		return &ExportResult{}, nil
	}

	payload, err := marshalJSONL(rows)
	if err != nil {
		return nil, fmt.Errorf("pipeline: export encode: %w", err)
	}

	path := fmt.Sprintf("%s/opportunities/%s.jsonl", e.prefix, now.Format("2006-01-02T15-04-05Z"))
	size := int64(len(payload))
	if size >= e.threshold {
		err = e.writer.PutMultipart(ctx, path, bytes.NewReader(payload), defaultPartSize)
	} else {
		err = e.writer.Put(ctx, path, bytes.NewReader(payload), "application/x-ndjson")
	}
	if err != nil {
		return nil, fmt.Errorf("pipeline: export upload %s: %w", path, err)
	}

	pruned, err := e.store.PruneBefore(ctx, cutoff)
	if err != nil {
		// The snapshot landed; leftover rows just ride along next run.
		return nil, fmt.Errorf("pipeline: prune after upload: %w", err)
	}

	e.logger.Info("export complete",
		slog.String("path", path),
		slog.Int("rows", len(rows)),
		slog.Int64("bytes", size),
		slog.Int64("pruned", pruned),
	)
	return &ExportResult{Path: path, Rows: len(rows), Bytes: size, Pruned: pruned}, nil
}

// Run exports on the configured interval until ctx is cancelled. Failures
// are logged and retried on the next tick.
func (e *Exporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("exporter started",
		slog.Duration("interval", e.interval),
		slog.Int("retention_days", e.retention),
	)
	defer e.logger.Info("exporter stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := e.Export(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				e.logger.Error("export failed", slog.String("error", err.Error()))
			}
		}
	}
}

// marshalJSONL renders rows as newline-delimited JSON, oldest first so the
// archive reads forward in time.
func marshalJSONL(rows []domain.Opportunity) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i := len(rows) - 1; i >= 0; i-- {
		if err := enc.Encode(rows[i]); err != nil {
			return nil, fmt.Errorf("jsonl encode row %d: %w", rows[i].ID, err)
		}
	}
	return buf.Bytes(), nil
}
