package domain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Quote is the result of one price query: the raw integer amount a venue
// would pay out for the probed input, plus the decimal precision of both
// tokens so the amount can be normalized before any comparison.
type Quote struct {
	AmountOut   *big.Int
	DecimalsIn  uint8
	DecimalsOut uint8
}

// Price returns AmountOut at human-readable scale. The conversion is an
// exact exponent shift (amountOut × 10^-decimalsOut), so no rounding mode
// is involved.
func (q Quote) Price() decimal.Decimal {
	return decimal.NewFromBigInt(q.AmountOut, -int32(q.DecimalsOut))
}

// TradeParameters defines the probe trade. Loaded once at startup, immutable
// afterwards.
type TradeParameters struct {
	TokenIn       common.Address
	TokenOut      common.Address
	AmountIn      *big.Int        // smallest-unit quantity of TokenIn
	MinProfit     decimal.Decimal // threshold, in TokenOut units
	SimulatedCost decimal.Decimal // gas stand-in, in TokenOut units
	PollInterval  time.Duration
	QuoteTimeout  time.Duration // per-fetch bound, strictly below PollInterval
}

// QuoteSource prices a fixed-size swap on one venue.
type QuoteSource interface {
	// Label identifies the venue in records and logs, e.g. "QuickSwap".
	Label() string
	// Quote returns the venue's output for amountIn units of tokenIn swapped
	// into tokenOut. Call errors, timeouts, and non-positive amounts are
	// reported wrapping ErrQuoteUnavailable; precision resolution failures
	// wrap ErrPrecisionLookup.
	Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (Quote, error)
}

// DecimalsSource resolves a token's declared decimal precision.
type DecimalsSource interface {
	DecimalsOf(ctx context.Context, token common.Address) (uint8, error)
}
