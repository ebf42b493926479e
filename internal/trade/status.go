package trade

// Status is the outcome of a trading action. Expected failures (insufficient
// balance or liquidity, no positions) are statuses, not errors.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailed
	StatusInsufficientBalance
	StatusInsufficientLiquidity
	StatusNoLiquidities
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusInsufficientBalance:
		return "insufficient_balance"
	case StatusInsufficientLiquidity:
		return "insufficient_liquidity"
	case StatusNoLiquidities:
		return "no_liquidities"
	default:
		return "unknown"
	}
}
