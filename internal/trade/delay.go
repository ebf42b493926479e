package trade

import (
	"math/rand"
	"time"
)

// RandomDelay returns a sleep function that waits a uniformly random duration
// in [min, max] each time it is called. Used between sequential transactions
// so automated runs do not produce a fixed cadence.
func RandomDelay(rng *rand.Rand, min, max time.Duration) func() {
	if max < min {
		min, max = max, min
	}
	return func() {
		span := max - min
		d := min
		if span > 0 {
			d += time.Duration(rng.Int63n(int64(span) + 1))
		}
		time.Sleep(d)
	}
}
