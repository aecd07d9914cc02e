package dex

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

type fakeCaller struct {
	calls    int
	lastMsg  ethereum.CallMsg
	returned []byte
	err      error
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	f.lastMsg = msg
	if f.err != nil {
		return nil, f.err
	}
	return f.returned, nil
}

// encodeAmounts builds the return data getAmountsOut would produce for the
// given path amounts.
func encodeAmounts(t *testing.T, amounts []*big.Int) []byte {
	t.Helper()
	data, err := routerABI.Methods["getAmountsOut"].Outputs.Pack(amounts)
	require.NoError(t, err)
	return data
}

var (
	testRouter = common.HexToAddress("0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff")
	testWETH   = common.HexToAddress("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619")
	testUSDC   = common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
)

func testQuoter(caller ethereum.ContractCaller) *RouterQuoter {
	src := newFakeDecimalsSource()
	src.vals[testWETH] = 18
	src.vals[testUSDC] = 6
	return NewRouterQuoter(caller, testRouter, "quickswap", src, testLogger())
}

func TestRouterQuoterQuote(t *testing.T) {
	amountIn := new(big.Int).Mul(big.NewInt(1), big.NewInt(1e18))
	amountOut := big.NewInt(3998_5273_00) // 3998.5273 USDC at 6 decimals

	caller := &fakeCaller{returned: encodeAmounts(t, []*big.Int{amountIn, amountOut})}
	q := testQuoter(caller)

	quote, err := q.Quote(context.Background(), testWETH, testUSDC, amountIn)
	require.NoError(t, err)
	require.Equal(t, 1, caller.calls)
	require.Equal(t, 0, quote.AmountOut.Cmp(amountOut))
	require.Equal(t, uint8(18), quote.DecimalsIn)
	require.Equal(t, uint8(6), quote.DecimalsOut)
	require.Equal(t, "3998.5273", quote.Price().String())

	// The call must target the router with the packed path in, path out.
	require.NotNil(t, caller.lastMsg.To)
	require.Equal(t, testRouter, *caller.lastMsg.To)
	require.NotEmpty(t, caller.lastMsg.Data)
}

func TestRouterQuoterLabel(t *testing.T) {
	q := testQuoter(&fakeCaller{})
	require.Equal(t, "quickswap", q.Label())
}

func TestRouterQuoterRejectsNonPositiveAmountIn(t *testing.T) {
	caller := &fakeCaller{}
	q := testQuoter(caller)

	_, err := q.Quote(context.Background(), testWETH, testUSDC, big.NewInt(0))
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = q.Quote(context.Background(), testWETH, testUSDC, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	require.Equal(t, 0, caller.calls, "invalid input must not reach the chain")
}

func TestRouterQuoterCallFailure(t *testing.T) {
	cause := errors.New("connection refused")
	caller := &fakeCaller{err: cause}
	q := testQuoter(caller)

	_, err := q.Quote(context.Background(), testWETH, testUSDC, big.NewInt(1e18))
	require.ErrorIs(t, err, domain.ErrQuoteUnavailable)
	require.ErrorIs(t, err, cause, "original cause must stay reachable")
}

func TestRouterQuoterNonPositiveAmountOut(t *testing.T) {
	amountIn := big.NewInt(1e18)
	caller := &fakeCaller{returned: encodeAmounts(t, []*big.Int{amountIn, big.NewInt(0)})}
	q := testQuoter(caller)

	_, err := q.Quote(context.Background(), testWETH, testUSDC, amountIn)
	require.ErrorIs(t, err, domain.ErrQuoteUnavailable)
}

func TestRouterQuoterGarbageReturnData(t *testing.T) {
	caller := &fakeCaller{returned: []byte{0x01, 0x02, 0x03}}
	q := testQuoter(caller)

	_, err := q.Quote(context.Background(), testWETH, testUSDC, big.NewInt(1e18))
	require.ErrorIs(t, err, domain.ErrQuoteUnavailable)
}

func TestRouterQuoterPrecisionFailurePropagates(t *testing.T) {
	src := newFakeDecimalsSource()
	src.errs[testWETH] = domain.ErrPrecisionLookup
	caller := &fakeCaller{}
	q := NewRouterQuoter(caller, testRouter, "sushiswap", src, testLogger())

	_, err := q.Quote(context.Background(), testWETH, testUSDC, big.NewInt(1e18))
	require.ErrorIs(t, err, domain.ErrPrecisionLookup)
	require.NotErrorIs(t, err, domain.ErrQuoteUnavailable)
	require.Equal(t, 0, caller.calls, "precision failure must short-circuit before the router call")
}

func TestRouterQuoterMultiHopTakesFinalAmount(t *testing.T) {
	amountIn := big.NewInt(1e18)
	mid := big.NewInt(500)
	final := big.NewInt(4_001_2345_00)

	caller := &fakeCaller{returned: encodeAmounts(t, []*big.Int{amountIn, mid, final})}
	q := testQuoter(caller)

	quote, err := q.Quote(context.Background(), testWETH, testUSDC, amountIn)
	require.NoError(t, err)
	require.Equal(t, 0, quote.AmountOut.Cmp(final))
}
