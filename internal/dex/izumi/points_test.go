package izumi

import (
	"math/rand"
	"testing"
)

func TestSnapToDelta(t *testing.T) {
	tests := []struct {
		name  string
		point int32
		delta int32
		want  int32
	}{
		{name: "already aligned", point: 12300, delta: 50, want: 12300},
		{name: "rounds down", point: 12320, delta: 50, want: 12300},
		{name: "rounds up", point: 12345, delta: 50, want: 12350},
		{name: "tie rounds up", point: 12325, delta: 50, want: 12350},
		{name: "negative rounds down", point: -12320, delta: 50, want: -12300},
		{name: "negative rounds up", point: -12345, delta: 50, want: -12350},
		{name: "negative tie rounds up", point: -12325, delta: 50, want: -12300},
		{name: "zero", point: 0, delta: 50, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SnapToDelta(tt.point, tt.delta)
			if got != tt.want {
				t.Fatalf("SnapToDelta(%d, %d) = %d, want %d", tt.point, tt.delta, got, tt.want)
			}
		})
	}
}

func TestRandomRangeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const (
		current   = int32(12345)
		delta     = int32(50)
		leftMost  = int32(-800000)
		rightMost = int32(800000)
	)

	for i := 0; i < 1000; i++ {
		left, right := RandomRange(rng, current, delta, leftMost, rightMost)
		if left > right {
			t.Fatalf("left %d > right %d", left, right)
		}
		if left < leftMost || right > rightMost {
			t.Fatalf("range [%d, %d] outside pool bounds", left, right)
		}
		if left%delta != 0 || right%delta != 0 {
			t.Fatalf("range [%d, %d] not aligned to delta %d", left, right, delta)
		}
		if left > current || right < current {
			t.Fatalf("range [%d, %d] does not straddle current point %d", left, right, current)
		}
	}
}

func TestRandomRangeClampsToBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	// Tight pool bounds force both ends onto the boundary points.
	left, right := RandomRange(rng, 1000, 40, 520, 1480)
	if left < 520 {
		t.Fatalf("left %d below leftMost", left)
	}
	if right > 1480 {
		t.Fatalf("right %d above rightMost", right)
	}
}
