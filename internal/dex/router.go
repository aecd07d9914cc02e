package dex

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// RouterQuoter prices a swap through a UniswapV2-style router contract using
// the getAmountsOut view. It never submits transactions.
type RouterQuoter struct {
	caller   ethereum.ContractCaller
	router   common.Address
	label    string
	decimals domain.DecimalsSource
	logger   *slog.Logger
}

// NewRouterQuoter builds a quoter for one router contract. The decimals
// source is shared between quoters so token precision is fetched once per
// process, not once per venue.
func NewRouterQuoter(caller ethereum.ContractCaller, router common.Address, label string, decimals domain.DecimalsSource, logger *slog.Logger) *RouterQuoter {
	return &RouterQuoter{
		caller:   caller,
		router:   router,
		label:    label,
		decimals: decimals,
		logger: logger.With(
			slog.String("component", "router_quoter"),
			slog.String("dex", label),
		),
	}
}

// Label identifies the venue in logs, stored rows and notifications.
func (q *RouterQuoter) Label() string {
	return q.label
}

// Quote asks the router how much tokenOut a swap of amountIn tokenIn would
// return along the direct pair path. RPC and decode failures wrap
// domain.ErrQuoteUnavailable; precision failures carry
// domain.ErrPrecisionLookup through from the decimals source.
func (q *RouterQuoter) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (domain.Quote, error) {
	var quote domain.Quote

	if amountIn == nil || amountIn.Sign() <= 0 {
		return quote, fmt.Errorf("dex: %s: %w: amount in must be positive", q.label, domain.ErrInvalidInput)
	}

	decIn, err := q.decimals.DecimalsOf(ctx, tokenIn)
	if err != nil {
		return quote, fmt.Errorf("dex: %s: token in precision: %w", q.label, err)
	}
	decOut, err := q.decimals.DecimalsOf(ctx, tokenOut)
	if err != nil {
		return quote, fmt.Errorf("dex: %s: token out precision: %w", q.label, err)
	}

	input, err := routerABI.Pack("getAmountsOut", amountIn, []common.Address{tokenIn, tokenOut})
	if err != nil {
		return quote, fmt.Errorf("dex: %s: pack getAmountsOut: %w", q.label, err)
	}

	res, err := q.caller.CallContract(ctx, ethereum.CallMsg{To: &q.router, Data: input}, nil)
	if err != nil {
		return quote, fmt.Errorf("dex: %s: call getAmountsOut: %w: %w", q.label, domain.ErrQuoteUnavailable, err)
	}

	outs, err := routerABI.Methods["getAmountsOut"].Outputs.Unpack(res)
	if err != nil {
		return quote, fmt.Errorf("dex: %s: decode getAmountsOut: %w: %w", q.label, domain.ErrQuoteUnavailable, err)
	}
	amounts, ok := outs[0].([]*big.Int)
	if !ok || len(amounts) < 2 {
		return quote, fmt.Errorf("dex: %s: %w: unexpected getAmountsOut shape", q.label, domain.ErrQuoteUnavailable)
	}

	amountOut := amounts[len(amounts)-1]
	if amountOut == nil || amountOut.Sign() <= 0 {
		return quote, fmt.Errorf("dex: %s: %w: router returned non-positive amount out", q.label, domain.ErrQuoteUnavailable)
	}

	q.logger.Debug("quote fetched",
		slog.String("amount_in", amountIn.String()),
		slog.String("amount_out", amountOut.String()),
	)

	return domain.Quote{
		AmountOut:   amountOut,
		DecimalsIn:  decIn,
		DecimalsOut: decOut,
	}, nil
}

var _ domain.QuoteSource = (*RouterQuoter)(nil)
