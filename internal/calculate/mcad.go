package calculate

// MACDResult holds the last two bars of the MACD study
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
	PrevHist  float64
}

// MACD calculates the MACD line, its signal line and the histogram for the
// last two bars. It needs at least slow+signal bars.
func MACD(closes []float64, fast, slow, signal int) (MACDResult, bool) {
	if fast <= 0 || slow <= fast || signal <= 0 || len(closes) < slow+signal {
		return MACDResult{}, false
	}

	emaFast := EMASeries(closes, fast)
	emaSlow := EMASeries(closes, slow)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	signalLine := EMASeries(line, signal)

	last := len(closes) - 1
	return MACDResult{
		MACD:      line[last],
		Signal:    signalLine[last],
		Histogram: line[last] - signalLine[last],
		PrevHist:  line[last-1] - signalLine[last-1],
	}, true
}
