package baseline

import (
	"math"

	"github.com/2beens/dailymetrics/internal/wellness"
)

// WindowDays is the length of the trailing window, reference date included.
const WindowDays = 28

// Stats returns the mean and the sample standard deviation (n-1) of values.
// avg is nil for no values, stddev is nil for fewer than two.
func Stats(values []float64) (avg, stddev *float64, n int) {
	n = len(values)
	avg = wellness.Mean(values)
	if n < 2 {
		return avg, nil, n
	}

	var sumSq float64
	for _, v := range values {
		d := v - *avg
		sumSq += d * d
	}
	return avg, wellness.Float(math.Sqrt(sumSq / float64(n-1))), n
}

// Window returns the first and last day of the window ending at ref.
func Window(ref wellness.Date) (from, to wellness.Date) {
	return ref.AddDays(-(WindowDays - 1)), ref
}
