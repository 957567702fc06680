package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInsufficientData is returned when a series is too short for a calculation
var ErrInsufficientData = errors.New("insufficient data")

// Candle represents a single OHLCV bar
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Closes extracts close prices in series order
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts high prices in series order
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts low prices in series order
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

// PriceChange24h returns the percent change of the last close against the close
// at the 24th bar from the end, or against the first bar when the series is shorter.
// ok is false when there are fewer than two bars.
func PriceChange24h(candles []Candle) (pct float64, ok bool) {
	if len(candles) < 2 {
		return 0, false
	}
	idx := len(candles) - 24
	if idx < 0 {
		idx = 0
	}
	base := candles[idx].Close
	if base == 0 {
		return 0, false
	}
	last := candles[len(candles)-1].Close
	return (last - base) / base * 100, true
}

// FormatPriceChange24h renders PriceChange24h as "x.xx%", or "N/A" when unknown
func FormatPriceChange24h(candles []Candle) string {
	pct, ok := PriceChange24h(candles)
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", pct)
}
