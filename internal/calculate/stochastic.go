package calculate

// StochasticResult holds the fast %K line and its %D smoothing
type StochasticResult struct {
	K float64
	D float64
}

// Stochastic calculates %K over kPeriod bars and %D as the dPeriod simple
// average of %K. A window whose high equals its low gives a neutral %K of 50.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (StochasticResult, bool) {
	n := len(closes)
	if kPeriod <= 0 || dPeriod <= 0 || len(highs) != n || len(lows) != n || n < kPeriod+dPeriod-1 {
		return StochasticResult{}, false
	}

	ks := make([]float64, dPeriod)
	for j := 0; j < dPeriod; j++ {
		end := n - dPeriod + j + 1
		ks[j] = percentK(highs[end-kPeriod:end], lows[end-kPeriod:end], closes[end-1])
	}

	return StochasticResult{
		K: ks[dPeriod-1],
		D: calculateAverage(ks),
	}, true
}

func percentK(highs, lows []float64, close float64) float64 {
	highest := highs[0]
	lowest := lows[0]
	for i := 1; i < len(highs); i++ {
		if highs[i] > highest {
			highest = highs[i]
		}
		if lows[i] < lowest {
			lowest = lows[i]
		}
	}

	if highest == lowest {
		return 50.0
	}
	return 100 * (close - lowest) / (highest - lowest)
}
