package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
// Amounts are NUMERIC columns selected back as text so shopspring decimals
// round-trip without a float detour.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a store backed by the given connection pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const opportunitySelectCols = `id, ts, dex_buy, dex_sell,
	amount_in::text, amount_out_buy::text, amount_out_sell::text, profit::text`

// Record appends one opportunity and fills in its assigned ID.
func (s *OpportunityStore) Record(ctx context.Context, o *domain.Opportunity) error {
	const query = `
		INSERT INTO opportunities (
			ts, dex_buy, dex_sell,
			amount_in, amount_out_buy, amount_out_sell, profit
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		o.Timestamp.UTC(), o.DexBuy, o.DexSell,
		o.AmountIn.String(), o.AmountOutBuy.String(), o.AmountOutSell.String(), o.Profit.String(),
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("postgres: record opportunity: %w: %w", domain.ErrStore, err)
	}
	return nil
}

// List returns opportunities newest first, filtered and paged by opts.
func (s *OpportunityStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Opportunity, error) {
	var (
		where []string
		args  []any
	)
	if !opts.Since.IsZero() {
		args = append(args, opts.Since.UTC())
		where = append(where, fmt.Sprintf("ts >= $%d", len(args)))
	}
	if !opts.Before.IsZero() {
		args = append(args, opts.Before.UTC())
		where = append(where, fmt.Sprintf("ts < $%d", len(args)))
	}

	query := `SELECT ` + opportunitySelectCols + ` FROM opportunities`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ts DESC, id DESC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities: %w: %w", domain.ErrStore, err)
	}
	defer rows.Close()

	var out []domain.Opportunity
	for rows.Next() {
		var (
			o                                 domain.Opportunity
			amountIn, outBuy, outSell, profit string
		)
		if err := rows.Scan(
			&o.ID, &o.Timestamp, &o.DexBuy, &o.DexSell,
			&amountIn, &outBuy, &outSell, &profit,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w: %w", domain.ErrStore, err)
		}
		if err := setAmounts(&o, amountIn, outBuy, outSell, profit); err != nil {
			return nil, fmt.Errorf("postgres: decode opportunity %d: %w: %w", o.ID, domain.ErrStore, err)
		}
		o.Timestamp = o.Timestamp.UTC()
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list opportunities rows: %w: %w", domain.ErrStore, err)
	}
	return out, nil
}

// Count reports the total number of stored opportunities.
func (s *OpportunityStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM opportunities").Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count opportunities: %w: %w", domain.ErrStore, err)
	}
	return n, nil
}

// PruneBefore deletes rows older than cutoff and reports how many went.
func (s *OpportunityStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM opportunities WHERE ts < $1", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("postgres: prune opportunities: %w: %w", domain.ErrStore, err)
	}
	return tag.RowsAffected(), nil
}

// Health verifies the store can reach the database.
func (s *OpportunityStore) Health(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health: %w: %w", domain.ErrStore, err)
	}
	return nil
}

func setAmounts(o *domain.Opportunity, amountIn, outBuy, outSell, profit string) error {
	var err error
	if o.AmountIn, err = decimal.NewFromString(amountIn); err != nil {
		return fmt.Errorf("amount_in %q: %w", amountIn, err)
	}
	if o.AmountOutBuy, err = decimal.NewFromString(outBuy); err != nil {
		return fmt.Errorf("amount_out_buy %q: %w", outBuy, err)
	}
	if o.AmountOutSell, err = decimal.NewFromString(outSell); err != nil {
		return fmt.Errorf("amount_out_sell %q: %w", outSell, err)
	}
	if o.Profit, err = decimal.NewFromString(profit); err != nil {
		return fmt.Errorf("profit %q: %w", profit, err)
	}
	return nil
}

var _ domain.OpportunityStore = (*OpportunityStore)(nil)
