package calculate

// EMASeries returns the exponential moving average of every point of prices,
// seeded with the first value and smoothed with alpha = 2/(period+1).
func EMASeries(prices []float64, period int) []float64 {
	if len(prices) == 0 || period <= 0 {
		return nil
	}

	multiplier := 2.0 / float64(period+1)

	out := make([]float64, len(prices))
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = (prices[i]-out[i-1])*multiplier + out[i-1]
	}

	return out
}
