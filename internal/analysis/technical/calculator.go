package technical

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/BitTrader/internal/calculate"
	"github.com/Alias1177/BitTrader/internal/config"
	"github.com/Alias1177/BitTrader/internal/model"
)

// Result is the outcome of one indicator: either a signal or the reason it was omitted
type Result struct {
	Category model.Category
	Signal   model.Signal
	Omitted  bool
	Reason   string
}

func produced(s model.Signal) Result {
	return Result{Category: s.Source, Signal: s}
}

func omitted(c model.Category, reason string) Result {
	return Result{Category: c, Omitted: true, Reason: reason}
}

// Calculator turns a candle series into indicator signals
type Calculator struct {
	strengths config.SignalStrengths
	usage     config.Usage
	logger    zerolog.Logger
}

// NewCalculator creates a calculator bound to the strategy's strengths and usage flags
func NewCalculator(strategy config.Strategy) *Calculator {
	usage := make(config.Usage, len(strategy.IndicatorUsage))
	for k, v := range strategy.IndicatorUsage {
		usage[k] = v
	}
	return &Calculator{
		strengths: strategy.SignalStrengths,
		usage:     usage,
		logger:    log.With().Str("component", "indicator_calculator").Logger(),
	}
}

// Evaluate maps every study of the snapshot to a result, in category order
func (c *Calculator) Evaluate(snap calculate.Snapshot) []Result {
	results := make([]Result, 0, 6)

	results = append(results, c.gate(model.CategoryMA, func() Result {
		if snap.MA5 == nil || snap.MA20 == nil {
			return omitted(model.CategoryMA, "need 20 bars")
		}
		return produced(MASignal(*snap.MA5, *snap.MA20, c.strengths))
	}))

	results = append(results, c.gate(model.CategoryMA60, func() Result {
		if snap.MA60 == nil {
			return omitted(model.CategoryMA60, "need 60 bars")
		}
		return produced(MA60Signal(snap.Close, *snap.MA60, c.strengths))
	}))

	results = append(results, c.gate(model.CategoryBB, func() Result {
		if snap.Bollinger == nil {
			return omitted(model.CategoryBB, "need 20 bars")
		}
		return produced(BollingerSignal(snap.Close, *snap.Bollinger, c.strengths))
	}))

	results = append(results, c.gate(model.CategoryRSI, func() Result {
		if snap.RSI == nil {
			return omitted(model.CategoryRSI, "need 15 bars")
		}
		return produced(RSISignal(*snap.RSI, c.strengths))
	}))

	results = append(results, c.gate(model.CategoryMACD, func() Result {
		if snap.MACD == nil {
			return omitted(model.CategoryMACD, "need 35 bars")
		}
		return produced(MACDSignal(snap.MACD.PrevHist, snap.MACD.Histogram, c.strengths))
	}))

	results = append(results, c.gate(model.CategoryStochastic, func() Result {
		if snap.Stochastic == nil {
			return omitted(model.CategoryStochastic, "need 16 bars")
		}
		return produced(StochasticSignal(snap.Stochastic.K, snap.Stochastic.D, c.strengths))
	}))

	return results
}

func (c *Calculator) gate(cat model.Category, f func() Result) Result {
	if !c.usage.Enabled(cat) {
		return omitted(cat, "disabled")
	}
	return f()
}

// Signals computes the studies over candles and returns the produced signals.
// Omitted indicators are logged and skipped.
func (c *Calculator) Signals(candles []model.Candle) []model.Signal {
	snap := calculate.CalculateAll(candles)
	return c.collect(c.Evaluate(snap))
}

func (c *Calculator) collect(results []Result) []model.Signal {
	signals := make([]model.Signal, 0, len(results))
	for _, r := range results {
		if r.Omitted {
			c.logger.Debug().Str("indicator", string(r.Category)).Str("reason", r.Reason).Msg("Indicator omitted")
			continue
		}
		signals = append(signals, r.Signal)
	}
	return signals
}
