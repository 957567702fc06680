package calculate

import "github.com/Alias1177/BitTrader/internal/model"

// Indicator periods
const (
	MAShortPeriod  = 5
	MAMidPeriod    = 20
	MALongPeriod   = 60
	BBPeriod       = 20
	BBStdDevs      = 2.0
	RSIPeriod      = 14
	MACDFast       = 12
	MACDSlow       = 26
	MACDSignalSpan = 9
	StochKPeriod   = 14
	StochDPeriod   = 3
)

// Minimum number of bars each study needs before it is reported
const (
	MinBarsMA         = MAMidPeriod
	MinBarsMA60       = MALongPeriod
	MinBarsBollinger  = BBPeriod
	MinBarsRSI        = RSIPeriod + 1
	MinBarsMACD       = MACDSlow + MACDSignalSpan
	MinBarsStochastic = StochKPeriod + StochDPeriod - 1
)

// Snapshot holds the latest value of every study. A nil field means the
// series was too short for that study.
type Snapshot struct {
	Close      float64
	MA5        *float64
	MA20       *float64
	MA60       *float64
	Bollinger  *BollingerBands
	RSI        *float64
	MACD       *MACDResult
	Stochastic *StochasticResult
}

// CalculateAll computes every study over the series. The input is not modified.
func CalculateAll(candles []model.Candle) Snapshot {
	var snap Snapshot
	if len(candles) == 0 {
		return snap
	}

	closes := model.Closes(candles)
	snap.Close = closes[len(closes)-1]

	if len(closes) >= MinBarsMA {
		if v, ok := SMA(closes, MAShortPeriod); ok {
			snap.MA5 = &v
		}
		if v, ok := SMA(closes, MAMidPeriod); ok {
			snap.MA20 = &v
		}
	}
	if v, ok := SMA(closes, MALongPeriod); ok {
		snap.MA60 = &v
	}
	if bb, ok := Bollinger(closes, BBPeriod, BBStdDevs); ok {
		snap.Bollinger = &bb
	}
	if v, ok := RSI(closes, RSIPeriod); ok {
		snap.RSI = &v
	}
	if m, ok := MACD(closes, MACDFast, MACDSlow, MACDSignalSpan); ok {
		snap.MACD = &m
	}
	if st, ok := Stochastic(model.Highs(candles), model.Lows(candles), closes, StochKPeriod, StochDPeriod); ok {
		snap.Stochastic = &st
	}

	return snap
}
