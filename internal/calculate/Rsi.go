package calculate

// RSI calculates the relative strength index from the simple mean of the
// last period gains and losses. A flat window yields 50 and a window with
// gains but no losses yields 100.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	var gains, losses float64
	start := len(closes) - period
	for i := start; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0, true
		}
		return 100.0, true
	}

	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs)), true
}
