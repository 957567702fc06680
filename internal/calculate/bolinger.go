package calculate

// BollingerBands holds the bands around the moving average
type BollingerBands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bandwidth returns the distance between the outer bands
func (b BollingerBands) Bandwidth() float64 {
	return b.Upper - b.Lower
}

// PercentB returns where price sits inside the bands as 0..100.
// ok is false when the bands have collapsed to a single value.
func (b BollingerBands) PercentB(price float64) (float64, bool) {
	width := b.Bandwidth()
	if width <= 0 {
		return 0, false
	}
	return (price - b.Lower) / width * 100, true
}

// Bollinger calculates bands of k sample standard deviations around the
// period simple moving average.
func Bollinger(closes []float64, period int, k float64) (BollingerBands, bool) {
	middle, ok := SMA(closes, period)
	if !ok {
		return BollingerBands{}, false
	}
	std, ok := StdDev(closes, period)
	if !ok {
		return BollingerBands{}, false
	}

	return BollingerBands{
		Upper:  middle + k*std,
		Middle: middle,
		Lower:  middle - k*std,
	}, true
}
