package trade

import (
	"errors"
	"math/big"
)

// ErrInvalidArguments indicates bad caller input, such as specifying both an
// absolute amount and a wallet percentage.
var ErrInvalidArguments = errors.New("either amount or percentage must be specified, but not both")

// ValidateAmountArgs checks the amount/percentage exclusivity up front, so
// actions can reject bad input before touching the network.
func ValidateAmountArgs(amount, percentage float64) error {
	if (amount != 0) == (percentage != 0) {
		return ErrInvalidArguments
	}
	if amount < 0 || percentage < 0 || percentage > 100 {
		return ErrInvalidArguments
	}
	return nil
}

// ResolveAmount converts a user-specified amount or wallet percentage into a
// base-unit amount. Exactly one of amount and percentage must be non-zero.
// A percentage of 100 uses the full balance so no dust is left behind by
// rounding. Returns the base-unit amount and its human-readable equivalent.
func ResolveAmount(balance *big.Int, decimals uint8, amount, percentage float64) (*big.Int, float64, error) {
	hasAmount := amount != 0
	hasPercentage := percentage != 0
	if hasAmount == hasPercentage {
		return nil, 0, ErrInvalidArguments
	}
	if amount < 0 || percentage < 0 || percentage > 100 {
		return nil, 0, ErrInvalidArguments
	}

	if hasAmount {
		wei := new(big.Float).SetFloat64(amount)
		wei.Mul(wei, pow10(decimals))
		truncated, _ := wei.Int(nil)
		return truncated, amount, nil
	}

	var wei *big.Int
	if percentage == 100 {
		wei = new(big.Int).Set(balance)
	} else {
		scaled := new(big.Float).SetInt(balance)
		scaled.Mul(scaled, big.NewFloat(percentage))
		scaled.Quo(scaled, big.NewFloat(100))
		wei, _ = scaled.Int(nil)
	}

	human, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), pow10(decimals)).Float64()
	return wei, human, nil
}

func pow10(decimals uint8) *big.Float {
	exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Float).SetInt(exp)
}
