package syncswap

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinAmountOutBalancedPool(t *testing.T) {
	// Equal reserves and decimals price the pair one to one; only the
	// slippage haircut remains.
	reserveIn, _ := new(big.Int).SetString("100000000000000000000000", 10)
	reserveOut, _ := new(big.Int).SetString("100000000000000000000000", 10)

	got := MinAmountOut(reserveIn, reserveOut, 18, 18, 100, 1)

	want := math.Trunc(math.Trunc(100*1e18) * 0.99)
	wantInt, _ := big.NewFloat(want).Int(nil)
	assert.Equal(t, 0, got.Cmp(wantInt), "got %s, want %s", got, wantInt)
}

func TestMinAmountOutMixedDecimals(t *testing.T) {
	// 10 ETH-side units against 20000 USDC-side units: price 2000.
	reserveIn, _ := new(big.Int).SetString("10000000000000000000", 10)
	reserveOut := big.NewInt(20_000_000_000)

	got := MinAmountOut(reserveIn, reserveOut, 18, 6, 1, 0)

	assert.Equal(t, 0, got.Cmp(big.NewInt(2_000_000_000)), "got %s, want 2000 USDC in wei", got)
}

func TestMinAmountOutEmptyReserves(t *testing.T) {
	// A freshly deployed pool reports zero reserves; the quote must stay
	// zero instead of dividing by the empty input side.
	got := MinAmountOut(new(big.Int), new(big.Int), 18, 18, 100, 1)
	assert.Equal(t, 0, got.Sign(), "got %s, want zero for an empty pool", got)

	got = MinAmountOut(new(big.Int), big.NewInt(1000), 18, 6, 100, 1)
	assert.Equal(t, 0, got.Sign(), "got %s, want zero for an empty input reserve", got)
}

func TestMinAmountOutZeroSlippage(t *testing.T) {
	reserveIn := big.NewInt(1_000_000)
	reserveOut := big.NewInt(1_000_000)

	with := MinAmountOut(reserveIn, reserveOut, 6, 6, 1, 5)
	without := MinAmountOut(reserveIn, reserveOut, 6, 6, 1, 0)

	assert.True(t, with.Cmp(without) < 0, "slippage must lower the minimum output")
}

func TestHasLiquidity(t *testing.T) {
	tests := []struct {
		name       string
		reserveIn  int64
		reserveOut int64
		amountIn   int64
		minOut     int64
		want       bool
	}{
		{name: "covered", reserveIn: 1000, reserveOut: 1000, amountIn: 100, minOut: 90, want: true},
		{name: "input exceeds reserve", reserveIn: 50, reserveOut: 1000, amountIn: 100, minOut: 90, want: false},
		{name: "output exceeds reserve", reserveIn: 1000, reserveOut: 50, amountIn: 100, minOut: 90, want: false},
		{name: "exact boundary", reserveIn: 100, reserveOut: 90, amountIn: 100, minOut: 90, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HasLiquidity(
				big.NewInt(tt.reserveIn), big.NewInt(tt.reserveOut),
				big.NewInt(tt.amountIn), big.NewInt(tt.minOut),
			)
			assert.Equal(t, tt.want, got)
		})
	}
}
