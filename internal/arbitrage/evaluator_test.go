package arbitrage

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// usdcQuote builds a Quote whose raw amount encodes price at 6 decimals, the
// WETH/USDC shape the detector runs in production.
func usdcQuote(t *testing.T, price string) VenueQuote {
	t.Helper()
	raw := decimal.RequireFromString(price).Shift(6)
	require.True(t, raw.IsInteger(), "price %s does not fit 6 decimals", price)
	return VenueQuote{Quote: domain.Quote{AmountOut: raw.BigInt(), DecimalsIn: 18, DecimalsOut: 6}}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

var oneWETH = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func TestEvaluateRecordsSpreadAboveThreshold(t *testing.T) {
	a := usdcQuote(t, "3950.5280")
	a.Venue = "quickswap"
	b := usdcQuote(t, "3998.5273")
	b.Venue = "sushiswap"

	e := NewEvaluator(dec(t, "0.5"), dec(t, "0.2"))
	opp := e.Evaluate(oneWETH, a, b)

	require.NotNil(t, opp)
	require.Equal(t, "quickswap", opp.DexBuy)
	require.Equal(t, "sushiswap", opp.DexSell)
	require.True(t, opp.Profit.Equal(dec(t, "47.7993")), "profit %s", opp.Profit)
	require.True(t, opp.AmountIn.Equal(dec(t, "1")), "amount in %s", opp.AmountIn)
	require.True(t, opp.AmountOutBuy.Equal(dec(t, "3950.528")))
	require.True(t, opp.AmountOutSell.Equal(dec(t, "3998.5273")))
	require.WithinDuration(t, time.Now().UTC(), opp.Timestamp, 2*time.Second)
}

func TestEvaluateBelowThreshold(t *testing.T) {
	a := usdcQuote(t, "3999.0")
	a.Venue = "quickswap"
	b := usdcQuote(t, "3999.3")
	b.Venue = "sushiswap"

	// Spread 0.3 minus cost 0.2 leaves 0.1, under the 0.5 floor.
	e := NewEvaluator(dec(t, "0.5"), dec(t, "0.2"))
	require.Nil(t, e.Evaluate(oneWETH, a, b))
}

func TestEvaluateExactlyAtThresholdIsRejected(t *testing.T) {
	a := usdcQuote(t, "4000.0")
	a.Venue = "quickswap"
	b := usdcQuote(t, "4000.7")
	b.Venue = "sushiswap"

	// Spread 0.7 minus cost 0.2 is exactly the 0.5 floor; the rule is
	// strictly greater than.
	e := NewEvaluator(dec(t, "0.5"), dec(t, "0.2"))
	require.Nil(t, e.Evaluate(oneWETH, a, b))
}

func TestEvaluateCostSwallowsSpread(t *testing.T) {
	a := usdcQuote(t, "4000.00")
	a.Venue = "quickswap"
	b := usdcQuote(t, "4000.10")
	b.Venue = "sushiswap"

	e := NewEvaluator(dec(t, "0"), dec(t, "0.2"))
	require.Nil(t, e.Evaluate(oneWETH, a, b))
}

func TestEvaluateEqualPrices(t *testing.T) {
	a := usdcQuote(t, "4000.1234")
	a.Venue = "quickswap"
	b := usdcQuote(t, "4000.1234")
	b.Venue = "sushiswap"

	// Even with a threshold that a zero spread would clear numerically,
	// equal prices are never an opportunity.
	e := NewEvaluator(dec(t, "-1"), dec(t, "0"))
	require.Nil(t, e.Evaluate(oneWETH, a, b))
}

func TestEvaluateDirectionSymmetry(t *testing.T) {
	a := usdcQuote(t, "3950.5280")
	a.Venue = "quickswap"
	b := usdcQuote(t, "3998.5273")
	b.Venue = "sushiswap"

	e := NewEvaluator(dec(t, "0.5"), dec(t, "0.2"))
	forward := e.Evaluate(oneWETH, a, b)
	reversed := e.Evaluate(oneWETH, b, a)

	require.NotNil(t, forward)
	require.NotNil(t, reversed)
	require.Equal(t, forward.DexBuy, reversed.DexBuy)
	require.Equal(t, forward.DexSell, reversed.DexSell)
	require.True(t, forward.Profit.Equal(reversed.Profit))
	require.True(t, forward.AmountOutBuy.Equal(reversed.AmountOutBuy))
	require.True(t, forward.AmountOutSell.Equal(reversed.AmountOutSell))
}

func TestEvaluateBuySideIsCheaperVenue(t *testing.T) {
	a := usdcQuote(t, "4010.0")
	a.Venue = "quickswap"
	b := usdcQuote(t, "3950.0")
	b.Venue = "sushiswap"

	e := NewEvaluator(dec(t, "0.5"), dec(t, "0.2"))
	opp := e.Evaluate(oneWETH, a, b)

	require.NotNil(t, opp)
	require.Equal(t, "sushiswap", opp.DexBuy)
	require.Equal(t, "quickswap", opp.DexSell)
	require.True(t, opp.Profit.Equal(dec(t, "59.8")))
}

func TestEvaluateAmountInNormalization(t *testing.T) {
	a := usdcQuote(t, "3950.0")
	a.Venue = "quickswap"
	b := usdcQuote(t, "4000.0")
	b.Venue = "sushiswap"

	// 2.5 WETH in wei.
	amountIn, ok := new(big.Int).SetString("2500000000000000000", 10)
	require.True(t, ok)

	e := NewEvaluator(dec(t, "0.5"), dec(t, "0.2"))
	opp := e.Evaluate(amountIn, a, b)

	require.NotNil(t, opp)
	require.True(t, opp.AmountIn.Equal(dec(t, "2.5")), "amount in %s", opp.AmountIn)
}
