package fusion

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Alias1177/BitTrader/internal/config"
	"github.com/Alias1177/BitTrader/internal/model"
)

// topReasons is how many signals are quoted in the rationale
const topReasons = 3

// MarketContext carries the non-signal facts stamped onto a decision
type MarketContext struct {
	Symbol         string
	Price          float64
	PriceChange24h string
	Now            time.Time
}

// Engine fuses weighted signals into a single decision
type Engine struct {
	weights    config.Weights
	thresholds config.DecisionThresholds
}

// NewEngine creates an engine bound to the strategy's weights and thresholds
func NewEngine(strategy config.Strategy) *Engine {
	weights := make(config.Weights, len(strategy.IndicatorWeights))
	for k, v := range strategy.IndicatorWeights {
		weights[k] = v
	}
	return &Engine{
		weights:    weights,
		thresholds: strategy.Thresholds,
	}
}

// Average returns the weighted average of signed signal strengths in [-1, 1].
// Hold signals add their weight to the denominator only.
func (e *Engine) Average(signals []model.Signal) float64 {
	var sum, total float64
	for _, s := range signals {
		w := e.weights.Weight(s.Source)
		sum += s.Direction.Sign() * s.Strength * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return model.Clamp(sum/total, -1, 1)
}

// Classify maps an average strength to a direction using the thresholds
func (e *Engine) Classify(avg float64) model.Direction {
	switch {
	case avg >= e.thresholds.BuyThreshold:
		return model.DirectionBuy
	case avg <= e.thresholds.SellThreshold:
		return model.DirectionSell
	}
	return model.DirectionHold
}

// Confidence maps an average strength to a confidence in [0.5, 1]
func Confidence(avg float64) float64 {
	return model.Clamp(0.5+math.Abs(avg)/2, 0.5, 1.0)
}

// Fuse combines the signals into a decision. It is deterministic: the only
// time input is mctx.Now and no identifier is assigned.
func (e *Engine) Fuse(signals []model.Signal, mctx MarketContext) model.Decision {
	avg := e.Average(signals)
	direction := e.Classify(avg)
	counts := model.CountSignals(signals)

	return model.Decision{
		Timestamp:         mctx.Now,
		Symbol:            mctx.Symbol,
		Direction:         direction,
		DirectionLabel:    model.DirectionLabel(direction, avg),
		Confidence:        Confidence(avg),
		AvgSignalStrength: avg,
		Signals:           append([]model.Signal(nil), signals...),
		SignalCounts:      counts,
		Reasoning:         e.reasoning(signals, direction, avg, counts),
		CurrentPrice:      mctx.Price,
		PriceChange24h:    mctx.PriceChange24h,
	}
}

func (e *Engine) reasoning(signals []model.Signal, direction model.Direction, avg float64, counts model.SignalCounts) string {
	lines := []string{counts.String()}
	if direction == model.DirectionHold {
		lines = append(lines, fmt.Sprintf("average strength %.3f is between sell %.2f and buy %.2f",
			avg, e.thresholds.SellThreshold, e.thresholds.BuyThreshold))
	}

	for _, s := range e.ranked(signals, direction) {
		if direction == model.DirectionHold {
			lines = append(lines, fmt.Sprintf("- %s (%s): %s", s.Source, s.Direction, s.Description))
		} else {
			lines = append(lines, fmt.Sprintf("- %s: %s", s.Source, s.Description))
		}
	}

	return strings.Join(lines, "\n")
}

// ranked returns up to topReasons signals supporting direction, strongest
// weighted contribution first. Ties keep input order.
func (e *Engine) ranked(signals []model.Signal, direction model.Direction) []model.Signal {
	picked := make([]model.Signal, 0, len(signals))
	for _, s := range signals {
		if direction == model.DirectionHold || s.Direction == direction {
			picked = append(picked, s)
		}
	}

	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].Strength*e.weights.Weight(picked[i].Source) >
			picked[j].Strength*e.weights.Weight(picked[j].Source)
	})

	if len(picked) > topReasons {
		picked = picked[:topReasons]
	}
	return picked
}
