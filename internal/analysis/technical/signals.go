package technical

import (
	"fmt"

	"github.com/Alias1177/BitTrader/internal/calculate"
	"github.com/Alias1177/BitTrader/internal/config"
	"github.com/Alias1177/BitTrader/internal/model"
)

// MASignal compares the short and mid moving averages
func MASignal(ma5, ma20 float64, s config.SignalStrengths) model.Signal {
	switch {
	case ma5 > ma20:
		return model.NewSignal(model.CategoryMA, model.DirectionBuy, s.MACrossover,
			fmt.Sprintf("MA5 (%.0f) above MA20 (%.0f), short-term uptrend", ma5, ma20))
	case ma5 < ma20:
		return model.NewSignal(model.CategoryMA, model.DirectionSell, s.MACrossover,
			fmt.Sprintf("MA5 (%.0f) below MA20 (%.0f), short-term downtrend", ma5, ma20))
	}
	return model.HoldSignal(model.CategoryMA, "MA5 equals MA20")
}

// MA60Signal compares price with the long moving average
func MA60Signal(close, ma60 float64, s config.SignalStrengths) model.Signal {
	switch {
	case close > ma60:
		return model.NewSignal(model.CategoryMA60, model.DirectionBuy, s.MALongTrend,
			fmt.Sprintf("price above MA60 (%.0f), long-term uptrend", ma60))
	case close < ma60:
		return model.NewSignal(model.CategoryMA60, model.DirectionSell, s.MALongTrend,
			fmt.Sprintf("price below MA60 (%.0f), long-term downtrend", ma60))
	}
	return model.HoldSignal(model.CategoryMA60, "price at MA60")
}

// BollingerSignal maps the price position inside the bands to a signal
func BollingerSignal(close float64, bb calculate.BollingerBands, s config.SignalStrengths) model.Signal {
	p, ok := bb.PercentB(close)
	if !ok {
		return model.HoldSignal(model.CategoryBB, "Bollinger bands collapsed")
	}

	switch {
	case p < 20:
		return model.NewSignal(model.CategoryBB, model.DirectionBuy, s.BBExtreme,
			fmt.Sprintf("price near lower band (%.1f%%), oversold", p))
	case p < 40:
		return model.NewSignal(model.CategoryBB, model.DirectionBuy, s.BBMiddle,
			fmt.Sprintf("price in lower half of bands (%.1f%%)", p))
	case p <= 60:
		return model.HoldSignal(model.CategoryBB, fmt.Sprintf("price mid-band (%.1f%%)", p))
	case p <= 80:
		return model.NewSignal(model.CategoryBB, model.DirectionSell, s.BBMiddle,
			fmt.Sprintf("price in upper half of bands (%.1f%%)", p))
	}
	return model.NewSignal(model.CategoryBB, model.DirectionSell, s.BBExtreme,
		fmt.Sprintf("price near upper band (%.1f%%), overbought", p))
}

// RSISignal maps an RSI reading to a signal
func RSISignal(rsi float64, s config.SignalStrengths) model.Signal {
	switch {
	case rsi <= 30:
		return model.NewSignal(model.CategoryRSI, model.DirectionBuy, s.RSIExtreme,
			fmt.Sprintf("RSI oversold (%.1f)", rsi))
	case rsi >= 70:
		return model.NewSignal(model.CategoryRSI, model.DirectionSell, s.RSIExtreme,
			fmt.Sprintf("RSI overbought (%.1f)", rsi))
	case rsi < 45:
		return model.NewSignal(model.CategoryRSI, model.DirectionBuy, s.RSIMiddle,
			fmt.Sprintf("RSI weak (%.1f)", rsi))
	case rsi > 55:
		return model.NewSignal(model.CategoryRSI, model.DirectionSell, s.RSIMiddle,
			fmt.Sprintf("RSI strong (%.1f)", rsi))
	}
	return model.HoldSignal(model.CategoryRSI, fmt.Sprintf("RSI neutral (%.1f)", rsi))
}

// MACDSignal maps the last two histogram values to a signal.
// A sign change between them is a crossover; otherwise the sign gives the trend.
func MACDSignal(prevHist, hist float64, s config.SignalStrengths) model.Signal {
	switch {
	case prevHist <= 0 && hist > 0:
		return model.NewSignal(model.CategoryMACD, model.DirectionBuy, s.MACDCrossover,
			"MACD crossed above signal line")
	case prevHist >= 0 && hist < 0:
		return model.NewSignal(model.CategoryMACD, model.DirectionSell, s.MACDCrossover,
			"MACD crossed below signal line")
	case hist > 0:
		return model.NewSignal(model.CategoryMACD, model.DirectionBuy, s.MACDTrend,
			"MACD above signal line")
	case hist < 0:
		return model.NewSignal(model.CategoryMACD, model.DirectionSell, s.MACDTrend,
			"MACD below signal line")
	}
	return model.HoldSignal(model.CategoryMACD, "MACD on signal line")
}

// StochasticSignal maps %K and %D to a signal
func StochasticSignal(k, d float64, s config.SignalStrengths) model.Signal {
	switch {
	case k <= 20 && d <= 20:
		if k > d {
			return model.NewSignal(model.CategoryStochastic, model.DirectionBuy, s.StochExtreme,
				fmt.Sprintf("stochastic oversold with %%K turning up (K=%.1f, D=%.1f)", k, d))
		}
		return model.NewSignal(model.CategoryStochastic, model.DirectionBuy, s.StochMiddle,
			fmt.Sprintf("stochastic oversold (K=%.1f, D=%.1f)", k, d))
	case k >= 80 && d >= 80:
		if k < d {
			return model.NewSignal(model.CategoryStochastic, model.DirectionSell, s.StochExtreme,
				fmt.Sprintf("stochastic overbought with %%K turning down (K=%.1f, D=%.1f)", k, d))
		}
		return model.NewSignal(model.CategoryStochastic, model.DirectionSell, s.StochMiddle,
			fmt.Sprintf("stochastic overbought (K=%.1f, D=%.1f)", k, d))
	case k > d:
		return model.NewSignal(model.CategoryStochastic, model.DirectionBuy, s.StochMiddle,
			fmt.Sprintf("%%K above %%D (K=%.1f, D=%.1f)", k, d))
	case k < d:
		return model.NewSignal(model.CategoryStochastic, model.DirectionSell, s.StochMiddle,
			fmt.Sprintf("%%K below %%D (K=%.1f, D=%.1f)", k, d))
	}
	return model.HoldSignal(model.CategoryStochastic, fmt.Sprintf("%%K equals %%D (%.1f)", k))
}
