package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// timeLayout is RFC 3339 UTC with fixed-width nanoseconds. Fixed width keeps
// lexicographic order equal to chronological order, which the timestamp
// filters and index rely on.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// OpportunityStore implements domain.OpportunityStore on SQLite. Amounts are
// stored as decimal strings; profit keeps the original REAL column.
type OpportunityStore struct {
	db *sql.DB
}

// NewOpportunityStore creates a store backed by the given handle.
func NewOpportunityStore(db *sql.DB) *OpportunityStore {
	return &OpportunityStore{db: db}
}

const opportunitySelectCols = `id, timestamp, dex_buy, dex_sell,
	amount_in, amount_out_buy, amount_out_sell, profit`

// Record appends one opportunity and fills in its assigned ID.
func (s *OpportunityStore) Record(ctx context.Context, o *domain.Opportunity) error {
	const query = `
		INSERT INTO opportunities (
			timestamp, dex_buy, dex_sell,
			amount_in, amount_out_buy, amount_out_sell, profit
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query,
		o.Timestamp.UTC().Format(timeLayout), o.DexBuy, o.DexSell,
		o.AmountIn.String(), o.AmountOutBuy.String(), o.AmountOutSell.String(),
		o.Profit.InexactFloat64(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: record opportunity: %w: %w", domain.ErrStore, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: record opportunity id: %w: %w", domain.ErrStore, err)
	}
	o.ID = id
	return nil
}

// List returns opportunities newest first, filtered and paged by opts.
func (s *OpportunityStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Opportunity, error) {
	var (
		where []string
		args  []any
	)
	if !opts.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, opts.Since.UTC().Format(timeLayout))
	}
	if !opts.Before.IsZero() {
		where = append(where, "timestamp < ?")
		args = append(args, opts.Before.UTC().Format(timeLayout))
	}

	query := `SELECT ` + opportunitySelectCols + ` FROM opportunities`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"
	switch {
	case opts.Limit > 0:
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	case opts.Offset > 0:
		// SQLite refuses OFFSET without LIMIT.
		query += " LIMIT -1"
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list opportunities: %w: %w", domain.ErrStore, err)
	}
	defer rows.Close()

	var out []domain.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan opportunity: %w: %w", domain.ErrStore, err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list opportunities rows: %w: %w", domain.ErrStore, err)
	}
	return out, nil
}

// Count reports the total number of stored opportunities.
func (s *OpportunityStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM opportunities").Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count opportunities: %w: %w", domain.ErrStore, err)
	}
	return n, nil
}

// PruneBefore deletes rows older than cutoff and reports how many went.
func (s *OpportunityStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM opportunities WHERE timestamp < ?",
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune opportunities: %w: %w", domain.ErrStore, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune opportunities count: %w: %w", domain.ErrStore, err)
	}
	return n, nil
}

// Health verifies the store can reach the database file.
func (s *OpportunityStore) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: health: %w: %w", domain.ErrStore, err)
	}
	return nil
}

func scanOpportunity(rows *sql.Rows) (domain.Opportunity, error) {
	var (
		o                         domain.Opportunity
		ts                        string
		amountIn, outBuy, outSell string
		profit                    float64
	)
	if err := rows.Scan(&o.ID, &ts, &o.DexBuy, &o.DexSell, &amountIn, &outBuy, &outSell, &profit); err != nil {
		return o, err
	}

	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return o, fmt.Errorf("timestamp %q: %w", ts, err)
	}
	o.Timestamp = parsed.UTC()

	if o.AmountIn, err = decimal.NewFromString(amountIn); err != nil {
		return o, fmt.Errorf("amount_in %q: %w", amountIn, err)
	}
	if o.AmountOutBuy, err = decimal.NewFromString(outBuy); err != nil {
		return o, fmt.Errorf("amount_out_buy %q: %w", outBuy, err)
	}
	if o.AmountOutSell, err = decimal.NewFromString(outSell); err != nil {
		return o, fmt.Errorf("amount_out_sell %q: %w", outSell, err)
	}
	o.Profit = decimal.NewFromFloat(profit)
	return o, nil
}

var _ domain.OpportunityStore = (*OpportunityStore)(nil)
