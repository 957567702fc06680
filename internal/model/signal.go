package model

import "math"

// Direction is the side of a signal or decision
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
	DirectionHold Direction = "hold"
)

// Valid reports whether d is one of the known directions
func (d Direction) Valid() bool {
	switch d {
	case DirectionBuy, DirectionSell, DirectionHold:
		return true
	}
	return false
}

// Sign returns +1 for buy, -1 for sell and 0 for hold
func (d Direction) Sign() float64 {
	switch d {
	case DirectionBuy:
		return 1
	case DirectionSell:
		return -1
	}
	return 0
}

// Category identifies the indicator or market feed a signal came from.
// Weights, usage flags and reporting are keyed by it.
type Category string

const (
	CategoryMA         Category = "MA"
	CategoryMA60       Category = "MA60"
	CategoryBB         Category = "BB"
	CategoryRSI        Category = "RSI"
	CategoryMACD       Category = "MACD"
	CategoryStochastic Category = "Stochastic"
	CategoryOrderbook  Category = "Orderbook"
	CategoryTrades     Category = "Trades"
	CategoryKIMP       Category = "KIMP"
	CategoryFearGreed  Category = "FearGreed"
)

// Categories lists every category in reporting order
var Categories = []Category{
	CategoryMA,
	CategoryMA60,
	CategoryBB,
	CategoryRSI,
	CategoryMACD,
	CategoryStochastic,
	CategoryOrderbook,
	CategoryTrades,
	CategoryKIMP,
	CategoryFearGreed,
}

// Signal is one directional vote produced by an indicator or market feed
type Signal struct {
	Source      Category  `json:"source"`
	Direction   Direction `json:"type"`
	Strength    float64   `json:"strength"`
	Description string    `json:"description"`
}

// NewSignal builds a signal with strength clamped into [0, 1]
func NewSignal(source Category, direction Direction, strength float64, description string) Signal {
	return Signal{
		Source:      source,
		Direction:   direction,
		Strength:    ClampUnit(strength),
		Description: description,
	}
}

// HoldSignal builds a zero-strength neutral signal
func HoldSignal(source Category, description string) Signal {
	return Signal{Source: source, Direction: DirectionHold, Description: description}
}

// ClampUnit clamps v into [0, 1]; NaN becomes 0
func ClampUnit(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Clamp clamps v into [lo, hi]; NaN becomes lo
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
