package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Opportunity is one qualifying observation: at Timestamp, buying on DexBuy
// and selling on DexSell would have netted Profit (in the output token's
// units) after the simulated transaction cost. Records are append-only and
// never mutated or deleted by this system.
type Opportunity struct {
	ID            int64           `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	DexBuy        string          `json:"dex_buy"`
	DexSell       string          `json:"dex_sell"`
	AmountIn      decimal.Decimal `json:"amount_in"`       // input size, human scale
	AmountOutBuy  decimal.Decimal `json:"amount_out_buy"`  // buy venue output, human scale
	AmountOutSell decimal.Decimal `json:"amount_out_sell"` // sell venue output, human scale
	Profit        decimal.Decimal `json:"profit"`
}
