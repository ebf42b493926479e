package izumi

import (
	"math"
	"math/big"
)

// pointBase is the per-point price ratio of a concentrated pool.
const pointBase = 1.0001

// PointPrice returns the undecimaled price of token X in token Y at the
// given point, 1.0001^point.
func PointPrice(point int32) float64 {
	return math.Pow(pointBase, float64(point))
}

// MinAcquired prices a human-denominated input amount at the given
// undecimaled rate and applies the slippage tolerance, returning the
// minimum acceptable output in base units. Kept pure for testing, like the
// classic-pool quote.
func MinAcquired(amountIn, priceUndecimal float64, decimalsIn, decimalsOut uint8, slippagePct float64) *big.Int {
	price := priceUndecimal * math.Pow(10, float64(decimalsIn)) / math.Pow(10, float64(decimalsOut))
	raw := math.Trunc(amountIn * price * math.Pow(10, float64(decimalsOut)) * (1 - slippagePct/100))
	out, _ := big.NewFloat(raw).Int(nil)
	return out
}
