package wellness

import "math"

// Clamp maps NaN to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round rounds half away from zero.
func Round(v float64) int64 {
	return int64(math.Round(v))
}

// Finite reports whether v is neither NaN nor ±Inf.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FinitePtr is false for nil.
func FinitePtr(v *float64) bool {
	return v != nil && Finite(*v)
}

func Float(v float64) *float64 {
	return &v
}

func Int(v int64) *int64 {
	return &v
}

// Mean returns nil for an empty slice.
func Mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return Float(sum / float64(len(values)))
}
