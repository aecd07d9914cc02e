package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/arbitrage"
	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

type fakeCycle struct {
	snap arbitrage.StatsSnapshot
}

func (f *fakeCycle) Stats() arbitrage.StatsSnapshot { return f.snap }

func testParams() domain.TradeParameters {
	return domain.TradeParameters{
		TokenIn:       common.HexToAddress("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619"),
		TokenOut:      common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"),
		AmountIn:      big.NewInt(1e18),
		MinProfit:     decimal.RequireFromString("0.5"),
		SimulatedCost: decimal.RequireFromString("0.2"),
		PollInterval:  10 * time.Second,
		QuoteTimeout:  8 * time.Second,
	}
}

func TestStatusReportsTradeAndCycle(t *testing.T) {
	store := &fakeStore{rows: []domain.Opportunity{sampleRow("1.2"), sampleRow("3.4")}}
	cycle := &fakeCycle{snap: arbitrage.StatsSnapshot{Passes: 12, Opportunities: 2, Errors: 1}}
	h := NewStatusHandler(StatusConfig{
		Mode:      "detect",
		DexALabel: "QuickSwap",
		DexBLabel: "SushiSwap",
		Params:    testParams(),
		StartedAt: time.Now().Add(-time.Minute),
	}, cycle, store, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.GetStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "detect", resp["mode"])
	require.EqualValues(t, 2, resp["stored_opportunities"])
	require.GreaterOrEqual(t, resp["uptime_seconds"].(float64), float64(59))

	trade := resp["trade"].(map[string]any)
	require.Equal(t, "QuickSwap", trade["dex_a"])
	require.Equal(t, "SushiSwap", trade["dex_b"])
	require.Equal(t, "0.5", trade["min_profit"])
	require.Equal(t, "10s", trade["poll_interval"])

	cycleStats := resp["cycle"].(map[string]any)
	require.EqualValues(t, 12, cycleStats["passes"])
	require.EqualValues(t, 2, cycleStats["opportunities"])
}

func TestStatusWithoutCycle(t *testing.T) {
	h := NewStatusHandler(StatusConfig{
		Mode:      "server",
		DexALabel: "QuickSwap",
		DexBLabel: "SushiSwap",
		Params:    testParams(),
		StartedAt: time.Now(),
	}, nil, &fakeStore{}, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.GetStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	_, hasCycle := resp["cycle"]
	require.False(t, hasCycle)
}

func TestStatusSurvivesCountFailure(t *testing.T) {
	store := &fakeStore{countErr: errors.New("db gone")}
	h := NewStatusHandler(StatusConfig{
		Mode:      "detect",
		Params:    testParams(),
		StartedAt: time.Now(),
	}, nil, store, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.GetStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	_, hasCount := resp["stored_opportunities"]
	require.False(t, hasCount)
}

func TestHealthAllProbesPass(t *testing.T) {
	h := NewHealthHandler([]HealthCheck{
		{Name: "store", Probe: func(context.Context) error { return nil }},
		{Name: "chain", Probe: func(context.Context) error { return nil }},
	}, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.Check(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, "ok", resp.Components["store"])
	require.Equal(t, "ok", resp.Components["chain"])
}

func TestHealthDegradedOnProbeFailure(t *testing.T) {
	h := NewHealthHandler([]HealthCheck{
		{Name: "store", Probe: func(context.Context) error { return nil }},
		{Name: "chain", Probe: func(context.Context) error { return errors.New("rpc unreachable") }},
	}, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.Check(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "degraded", resp.Status)
	require.Equal(t, "ok", resp.Components["store"])
	require.Equal(t, "rpc unreachable", resp.Components["chain"])
}

func TestExportsNotConfigured(t *testing.T) {
	h := NewExportsHandler(nil, "archive", discard())

	req := httptest.NewRequest(http.MethodGet, "/api/exports", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

type fakeReader struct {
	infos []domain.BlobInfo
	err   error
}

func (f *fakeReader) Get(context.Context, string) (io.ReadCloser, error) { return nil, nil }

func (f *fakeReader) List(_ context.Context, _ string) ([]domain.BlobInfo, error) {
	return f.infos, f.err
}

func (f *fakeReader) Exists(context.Context, string) (bool, error) { return false, nil }

func TestExportsList(t *testing.T) {
	reader := &fakeReader{infos: []domain.BlobInfo{
		{Path: "archive/opportunities/2026-08-01T00-00-00Z.jsonl", Size: 2048},
	}}
	h := NewExportsHandler(reader, "archive", discard())

	req := httptest.NewRequest(http.MethodGet, "/api/exports", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Exports []domain.BlobInfo `json:"exports"`
		Count   int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.Equal(t, int64(2048), resp.Exports[0].Size)
}
