package hostval

import "math"

// Missing-value sentinels. One reserved bit pattern per numeric kind:
// the minimum int32 for integer vectors, the minimum int64 for wide
// integer vectors, and NaN for floating vectors. Every NaN counts as
// missing on the floating side, not just the canonical one.
const (
	NAInt32 int32 = math.MinInt32
	NAInt64 int64 = math.MinInt64
)

// NAFloat64 returns the floating missing sentinel.
func NAFloat64() float64 {
	return math.NaN()
}

func IsNAInt32(v int32) bool { return v == NAInt32 }

func IsNAInt64(v int64) bool { return v == NAInt64 }

func IsNAFloat64(v float64) bool { return math.IsNaN(v) }
