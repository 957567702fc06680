package calculate

import "math"

// calculateAverage calculates simple average
func calculateAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, value := range values {
		sum += value
	}

	return sum / float64(len(values))
}

// SMA returns the simple moving average of the last period values
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	return calculateAverage(values[len(values)-period:]), true
}

// StdDev returns the sample standard deviation (n-1) of the last period values
func StdDev(values []float64, period int) (float64, bool) {
	if period < 2 || len(values) < period {
		return 0, false
	}
	window := values[len(values)-period:]
	mean := calculateAverage(window)

	var sq float64
	for _, v := range window {
		d := v - mean
		sq += d * d
	}

	return math.Sqrt(sq / float64(period-1)), true
}
