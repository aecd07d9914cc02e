package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

func testOpportunity(ts time.Time, profit string) *domain.Opportunity {
	return &domain.Opportunity{
		Timestamp:     ts,
		DexBuy:        "quickswap",
		DexSell:       "sushiswap",
		AmountIn:      decimal.RequireFromString("1"),
		AmountOutBuy:  decimal.RequireFromString("3950.528"),
		AmountOutSell: decimal.RequireFromString("3998.5273"),
		Profit:        decimal.RequireFromString(profit),
	}
}

func TestOpportunityStoreRecordAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// TIMESTAMPTZ keeps microseconds, so truncate before comparing.
	base := time.Now().UTC().Truncate(time.Microsecond)

	first := testOpportunity(base.Add(-time.Minute), "47.7993")
	second := testOpportunity(base, "12.5")

	require.NoError(t, store.Record(ctx, first))
	require.NoError(t, store.Record(ctx, second))
	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	rows, err := store.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Newest first.
	assert.Equal(t, second.ID, rows[0].ID)
	assert.Equal(t, first.ID, rows[1].ID)

	got := rows[1]
	assert.Equal(t, "quickswap", got.DexBuy)
	assert.Equal(t, "sushiswap", got.DexSell)
	assert.True(t, got.Profit.Equal(decimal.RequireFromString("47.7993")), "profit %s", got.Profit)
	assert.True(t, got.AmountIn.Equal(decimal.RequireFromString("1")))
	assert.True(t, got.AmountOutBuy.Equal(decimal.RequireFromString("3950.528")))
	assert.True(t, got.AmountOutSell.Equal(decimal.RequireFromString("3998.5273")))
	assert.True(t, got.Timestamp.Equal(first.Timestamp), "timestamp %s != %s", got.Timestamp, first.Timestamp)
}

func TestOpportunityStoreAppendOnlyAllowsDuplicates(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	ts := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Record(ctx, testOpportunity(ts, "47.7993")))
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "identical observations are independent rows")
}

func TestOpportunityStoreListFilters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)
	for i := 0; i < 5; i++ {
		opp := testOpportunity(base.Add(time.Duration(i)*time.Minute), "1.5")
		require.NoError(t, store.Record(ctx, opp))
	}

	rows, err := store.List(ctx, domain.ListOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Timestamp.After(rows[1].Timestamp))

	rows, err = store.List(ctx, domain.ListOpts{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Timestamp.Equal(base.Add(2*time.Minute)))

	rows, err = store.List(ctx, domain.ListOpts{Since: base.Add(3 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, rows, 2, "since bound is inclusive")

	rows, err = store.List(ctx, domain.ListOpts{Before: base.Add(3 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, rows, 3, "before bound is exclusive")

	rows, err = store.List(ctx, domain.ListOpts{
		Since:  base.Add(time.Minute),
		Before: base.Add(4 * time.Minute),
	})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestOpportunityStorePruneBefore(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond).Add(-48 * time.Hour)
	require.NoError(t, store.Record(ctx, testOpportunity(base, "1.1")))
	require.NoError(t, store.Record(ctx, testOpportunity(base.Add(24*time.Hour), "2.2")))
	require.NoError(t, store.Record(ctx, testOpportunity(base.Add(47*time.Hour), "3.3")))

	pruned, err := store.PruneBefore(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Cutoff equal to a row's timestamp keeps that row.
	rows, err := store.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[1].Timestamp.Equal(base.Add(24*time.Hour)))
}

func TestOpportunityStoreHealth(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Health(context.Background()))
}
