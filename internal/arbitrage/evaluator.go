package arbitrage

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// VenueQuote pairs a venue label with the quote it returned for the pass.
type VenueQuote struct {
	Venue string
	Quote domain.Quote
}

// Evaluator applies the recording rule to a pair of venue quotes: the price
// gap must clear the simulated execution cost by strictly more than the
// configured minimum profit.
type Evaluator struct {
	minProfit     decimal.Decimal
	simulatedCost decimal.Decimal
}

func NewEvaluator(minProfit, simulatedCost decimal.Decimal) *Evaluator {
	return &Evaluator{minProfit: minProfit, simulatedCost: simulatedCost}
}

// Evaluate compares the two venue prices for the same trade size and returns
// the opportunity to record, or nil when nothing clears the bar. The buy side
// is always the venue quoting the lower price, so the result is identical
// whichever order the quotes arrive in.
func (e *Evaluator) Evaluate(amountIn *big.Int, a, b VenueQuote) *domain.Opportunity {
	priceA := a.Quote.Price()
	priceB := b.Quote.Price()

	cmp := priceA.Cmp(priceB)
	if cmp == 0 {
		// Equal prices are never an opportunity, whatever the thresholds say.
		return nil
	}

	buy, sell := a, b
	buyPrice, sellPrice := priceA, priceB
	if cmp > 0 {
		buy, sell = b, a
		buyPrice, sellPrice = priceB, priceA
	}

	profit := sellPrice.Sub(buyPrice).Sub(e.simulatedCost)
	if profit.Cmp(e.minProfit) <= 0 {
		return nil
	}

	return &domain.Opportunity{
		Timestamp:     time.Now().UTC(),
		DexBuy:        buy.Venue,
		DexSell:       sell.Venue,
		AmountIn:      decimal.NewFromBigInt(amountIn, -int32(buy.Quote.DecimalsIn)),
		AmountOutBuy:  buyPrice,
		AmountOutSell: sellPrice,
		Profit:        profit,
	}
}
