package izumi

import "math/rand"

// Multiplier windows for the randomized liquidity range around the current
// point. The lower bound lands between half and three quarters of the
// current point, the upper between one and a half and two times it.
const (
	lowerMultMin = 0.5
	lowerMultMax = 0.75
	upperMultMin = 1.5
	upperMultMax = 2.0
)

// SnapToDelta rounds a point to the nearest multiple of the pool's point
// delta. Ties round toward the higher multiple. The modulo is normalized so
// negative points snap the same way as positive ones.
func SnapToDelta(point, delta int32) int32 {
	mod := ((point % delta) + delta) % delta
	if 2*mod < delta {
		return point - mod
	}
	return point + delta - mod
}

// RandomRange picks a randomized [left, right] liquidity range around the
// current point, snapped to the point delta and clamped to the pool
// boundaries.
func RandomRange(rng *rand.Rand, current, delta, leftMost, rightMost int32) (int32, int32) {
	left := int32(float64(current) * uniform(rng, lowerMultMin, lowerMultMax))
	right := int32(float64(current) * uniform(rng, upperMultMin, upperMultMax))
	if left > right {
		left, right = right, left
	}

	left = SnapToDelta(left, delta)
	right = SnapToDelta(right, delta)

	if left < leftMost {
		left = leftMost
	}
	if right > rightMost {
		right = rightMost
	}
	return left, right
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
