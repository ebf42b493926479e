package syncswap

import (
	"math"
	"math/big"
)

// MinAmountOut prices a human-denominated input amount against the pool
// reserves at the spot rate and applies the slippage tolerance. The
// arithmetic is floating point, truncated to an integer after each step;
// it is kept as a pure function so it can be tested without network state.
func MinAmountOut(reserveIn, reserveOut *big.Int, decimalsIn, decimalsOut uint8, amountIn, slippagePct float64) *big.Int {
	// An empty input reserve has no spot price. Quote zero and let the
	// liquidity check reject the trade.
	if reserveIn.Sign() == 0 {
		return new(big.Int)
	}

	rIn, _ := new(big.Float).SetInt(reserveIn).Float64()
	rOut, _ := new(big.Float).SetInt(reserveOut).Float64()

	price := (rOut / math.Pow(10, float64(decimalsOut))) / (rIn / math.Pow(10, float64(decimalsIn)))

	raw := math.Trunc(price * amountIn * math.Pow(10, float64(decimalsOut)))
	raw = math.Trunc(raw * (1 - slippagePct/100))

	out, _ := big.NewFloat(raw).Int(nil)
	return out
}

// HasLiquidity reports whether the pool can cover the trade: the input
// reserve must hold at least the input amount and the output reserve at
// least the minimum acceptable output.
func HasLiquidity(reserveIn, reserveOut, amountInWei, minAmountOut *big.Int) bool {
	return reserveIn.Cmp(amountInWei) >= 0 && reserveOut.Cmp(minAmountOut) >= 0
}
