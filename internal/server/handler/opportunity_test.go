package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

type fakeStore struct {
	rows     []domain.Opportunity
	lastOpts domain.ListOpts
	listErr  error
	countErr error
}

func (s *fakeStore) Record(_ context.Context, o *domain.Opportunity) error {
	o.ID = int64(len(s.rows) + 1)
	s.rows = append(s.rows, *o)
	return nil
}

func (s *fakeStore) List(_ context.Context, opts domain.ListOpts) ([]domain.Opportunity, error) {
	s.lastOpts = opts
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.rows, nil
}

func (s *fakeStore) Count(_ context.Context) (int64, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	return int64(len(s.rows)), nil
}

func (s *fakeStore) PruneBefore(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

func (s *fakeStore) Health(_ context.Context) error { return nil }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRow(profit string) domain.Opportunity {
	return domain.Opportunity{
		ID:            1,
		Timestamp:     time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
		DexBuy:        "QuickSwap",
		DexSell:       "SushiSwap",
		AmountIn:      decimal.RequireFromString("1"),
		AmountOutBuy:  decimal.RequireFromString("3950.528"),
		AmountOutSell: decimal.RequireFromString("3998.5273"),
		Profit:        decimal.RequireFromString(profit),
	}
}

func TestOpportunityListEnvelope(t *testing.T) {
	store := &fakeStore{rows: []domain.Opportunity{sampleRow("47.7993")}}
	h := NewOpportunityHandler(store, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var resp struct {
		Opportunities []domain.Opportunity `json:"opportunities"`
		Count         int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.Len(t, resp.Opportunities, 1)
	require.Equal(t, "QuickSwap", resp.Opportunities[0].DexBuy)
	require.True(t, resp.Opportunities[0].Profit.Equal(decimal.RequireFromString("47.7993")))

	// Default paging applies when the query names nothing.
	require.Equal(t, defaultListLimit, store.lastOpts.Limit)
}

func TestOpportunityListQueryParams(t *testing.T) {
	store := &fakeStore{}
	h := NewOpportunityHandler(store, discard())

	req := httptest.NewRequest(http.MethodGet,
		"/api/opportunities?limit=7&offset=3&since=2026-08-01T00:00:00Z", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 7, store.lastOpts.Limit)
	require.Equal(t, 3, store.lastOpts.Offset)
	require.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), store.lastOpts.Since.UTC())
}

func TestOpportunityListLimitZeroMeansAll(t *testing.T) {
	store := &fakeStore{}
	h := NewOpportunityHandler(store, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities?limit=0", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, store.lastOpts.Limit)
}

func TestOpportunityListRejectsBadParams(t *testing.T) {
	h := NewOpportunityHandler(&fakeStore{}, discard())

	for _, query := range []string{"?limit=abc", "?limit=-1", "?since=yesterday", "?offset=-2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/opportunities"+query, nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "query %s", query)
	}
}

func TestOpportunityListEmptyIsArrayNotNull(t *testing.T) {
	h := NewOpportunityHandler(&fakeStore{}, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"opportunities":[]`)
}

func TestOpportunityListStoreFailure(t *testing.T) {
	store := &fakeStore{listErr: errors.New("disk on fire")}
	h := NewOpportunityHandler(store, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	// Internals never leak to the client.
	require.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestOpportunityListLegacyBareArray(t *testing.T) {
	store := &fakeStore{rows: []domain.Opportunity{sampleRow("47.7993")}}
	h := NewOpportunityHandler(store, discard())

	req := httptest.NewRequest(http.MethodGet, "/opportunities", nil)
	rec := httptest.NewRecorder()
	h.ListLegacy(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []domain.Opportunity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	require.Equal(t, "SushiSwap", rows[0].DexSell)
}
