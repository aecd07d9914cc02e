package dex

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABI fragments. The detector only ever issues two view calls: the
// V2 router's getAmountsOut and the ERC-20 decimals getter.
const (
	routerABIJSON = `[
  {"inputs":[
     {"internalType":"uint256","name":"amountIn","type":"uint256"},
     {"internalType":"address[]","name":"path","type":"address[]"}],
   "name":"getAmountsOut",
   "outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],
   "stateMutability":"view","type":"function"}
]`

	erc20ABIJSON = `[
  {"inputs":[],"name":"decimals",
   "outputs":[{"internalType":"uint8","name":"","type":"uint8"}],
   "stateMutability":"view","type":"function"}
]`
)

var (
	routerABI = mustABI(routerABIJSON)
	erc20ABI  = mustABI(erc20ABIJSON)
)

// mustABI parses a compile-time ABI constant. A failure here is a programming
// error, not a runtime condition.
func mustABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}
