package model

import (
	"fmt"
	"math"
	"time"
)

// SignalCounts tallies signals by direction
type SignalCounts struct {
	Buy  int `json:"buy"`
	Sell int `json:"sell"`
	Hold int `json:"hold"`
}

func (c SignalCounts) String() string {
	return fmt.Sprintf("signals: buy %d, sell %d, hold %d", c.Buy, c.Sell, c.Hold)
}

// CountSignals tallies the given signals by direction
func CountSignals(signals []Signal) SignalCounts {
	var c SignalCounts
	for _, s := range signals {
		switch s.Direction {
		case DirectionBuy:
			c.Buy++
		case DirectionSell:
			c.Sell++
		default:
			c.Hold++
		}
	}
	return c
}

// Decision is the fused trade decision for one cycle.
// Values are created fresh per cycle and treated as immutable afterwards.
type Decision struct {
	ID                 string       `json:"id"`
	Timestamp          time.Time    `json:"timestamp"`
	Symbol             string       `json:"symbol"`
	Direction          Direction    `json:"decision"`
	DirectionLabel     string       `json:"decision_kr"`
	Confidence         float64      `json:"confidence"`
	AvgSignalStrength  float64      `json:"avg_signal_strength"`
	Signals            []Signal     `json:"signals"`
	SignalCounts       SignalCounts `json:"signal_counts"`
	Reasoning          string       `json:"reasoning"`
	CurrentPrice       float64      `json:"current_price"`
	PriceChange24h     string       `json:"price_change_24h"`
	AIOpinion          *AIOpinion   `json:"ai_opinion,omitempty"`
	AIAgrees           *bool        `json:"ai_agrees,omitempty"`
	AIError            string       `json:"ai_error,omitempty"`
	OriginalDirection  *Direction   `json:"original_decision,omitempty"`
	OriginalConfidence *float64     `json:"original_confidence,omitempty"`
	OriginalReasoning  string       `json:"original_reasoning,omitempty"`
}

// Clone returns a copy that shares no slices or pointers with d
func (d Decision) Clone() Decision {
	out := d
	if d.Signals != nil {
		out.Signals = append([]Signal(nil), d.Signals...)
	}
	if d.AIOpinion != nil {
		op := d.AIOpinion.Clone()
		out.AIOpinion = &op
	}
	if d.AIAgrees != nil {
		v := *d.AIAgrees
		out.AIAgrees = &v
	}
	if d.OriginalDirection != nil {
		v := *d.OriginalDirection
		out.OriginalDirection = &v
	}
	if d.OriginalConfidence != nil {
		v := *d.OriginalConfidence
		out.OriginalConfidence = &v
	}
	return out
}

// DirectionLabel returns the Korean label for a decision given its average signal strength
func DirectionLabel(d Direction, avg float64) string {
	switch d {
	case DirectionBuy:
		if avg >= 0.4 {
			return "매수"
		}
		return "약한 매수"
	case DirectionSell:
		if avg <= -0.4 {
			return "매도"
		}
		return "약한 매도"
	default:
		if math.Abs(avg) < 0.05 {
			return "홀드"
		}
		return "약한 홀드"
	}
}

// AIOpinion is the structured answer of the AI provider. It is untrusted input
// and is validated before being applied.
type AIOpinion struct {
	Direction     Direction `json:"decision" validate:"required,oneof=buy sell hold"`
	Confidence    float64   `json:"confidence" validate:"gte=0,lte=1"`
	Reasoning     string    `json:"reasoning"`
	TargetPrice   *float64  `json:"target_price,omitempty"`
	StopLoss      *float64  `json:"stop_loss,omitempty"`
	RiskLevel     string    `json:"risk_level,omitempty"`
	KeyIndicators []string  `json:"key_indicators,omitempty"`
}

// Clone returns a deep copy of the opinion
func (o AIOpinion) Clone() AIOpinion {
	out := o
	if o.TargetPrice != nil {
		v := *o.TargetPrice
		out.TargetPrice = &v
	}
	if o.StopLoss != nil {
		v := *o.StopLoss
		out.StopLoss = &v
	}
	if o.KeyIndicators != nil {
		out.KeyIndicators = append([]string(nil), o.KeyIndicators...)
	}
	return out
}

// OpinionRequest is what the AI provider is asked to judge
type OpinionRequest struct {
	Decision Decision `json:"decision"`
	Candles  []Candle `json:"candles"`
}

// TradeAction is what the position sizer tells the executor to do
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
	ActionNone TradeAction = "none"
)

// TradeInstruction is the sized order for a decision. Amount is a fiat notional
// for buys and an asset quantity for sells.
type TradeInstruction struct {
	Action    TradeAction `json:"action"`
	Amount    float64     `json:"amount"`
	RatioUsed float64     `json:"ratio_used"`
	Reason    string      `json:"reason,omitempty"`
}

// TradeRecord is one executed (or simulated) order
type TradeRecord struct {
	ID         string      `json:"id"`
	Symbol     string      `json:"symbol"`
	Side       TradeAction `json:"side"`
	Price      float64     `json:"price"`
	Quantity   float64     `json:"quantity"`
	Total      float64     `json:"total"`
	Confidence float64     `json:"confidence"`
	OrderID    string      `json:"order_id,omitempty"`
	DryRun     bool        `json:"dry_run"`
	Timestamp  time.Time   `json:"timestamp"`
}
