package model

import (
	"encoding/json"
	"math"
	"testing"
)

func closes(values ...float64) []Candle {
	out := make([]Candle, len(values))
	for i, v := range values {
		out[i] = Candle{Close: v}
	}
	return out
}

func TestPriceChange24h(t *testing.T) {
	long := make([]float64, 30)
	for i := range long {
		long[i] = 100
	}
	long[30-24] = 50
	long[29] = 75

	tests := []struct {
		name    string
		candles []Candle
		want    string
	}{
		{"empty", nil, "N/A"},
		{"single bar", closes(100), "N/A"},
		{"shorter than a day uses first bar", closes(100, 110, 120), "20.00%"},
		{"24 bars back", closes(long...), "50.00%"},
		{"zero base", closes(0, 10), "N/A"},
		{"decline", closes(200, 150), "-25.00%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPriceChange24h(tt.candles); got != tt.want {
				t.Errorf("FormatPriceChange24h() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, want float64
	}{
		{-0.5, 0},
		{0.3, 0.3},
		{1.7, 1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := ClampUnit(tt.v); got != tt.want {
			t.Errorf("ClampUnit(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
	if s := NewSignal(CategoryRSI, DirectionBuy, 3, ""); s.Strength != 1 {
		t.Errorf("NewSignal strength = %v, want 1", s.Strength)
	}
}

func TestDirectionLabel(t *testing.T) {
	tests := []struct {
		d    Direction
		avg  float64
		want string
	}{
		{DirectionBuy, 0.5, "매수"},
		{DirectionBuy, 0.1, "약한 매수"},
		{DirectionSell, -0.4, "매도"},
		{DirectionSell, -0.2, "약한 매도"},
		{DirectionHold, 0.01, "홀드"},
		{DirectionHold, 0.04, "홀드"},
		{DirectionHold, -0.07, "약한 홀드"},
	}
	for _, tt := range tests {
		if got := DirectionLabel(tt.d, tt.avg); got != tt.want {
			t.Errorf("DirectionLabel(%s, %v) = %q, want %q", tt.d, tt.avg, got, tt.want)
		}
	}
}

func TestDecisionClone(t *testing.T) {
	agrees := true
	target := 100.0
	d := Decision{
		Signals:   []Signal{{Source: CategoryMA, Direction: DirectionBuy, Strength: 0.5}},
		AIOpinion: &AIOpinion{Direction: DirectionBuy, TargetPrice: &target, KeyIndicators: []string{"RSI"}},
		AIAgrees:  &agrees,
	}

	c := d.Clone()
	c.Signals[0].Strength = 0.9
	c.AIOpinion.KeyIndicators[0] = "MACD"
	*c.AIOpinion.TargetPrice = 1
	*c.AIAgrees = false

	if d.Signals[0].Strength != 0.5 || d.AIOpinion.KeyIndicators[0] != "RSI" || *d.AIOpinion.TargetPrice != 100 || !*d.AIAgrees {
		t.Errorf("Clone shares state with the original: %+v", d)
	}
}

func TestDecisionJSONFields(t *testing.T) {
	dir := DirectionBuy
	conf := 0.6
	agrees := false
	d := Decision{
		Direction:          DirectionSell,
		Signals:            []Signal{NewSignal(CategoryKIMP, DirectionSell, 0.5, "premium")},
		SignalCounts:       CountSignals([]Signal{{Direction: DirectionSell}, {Direction: DirectionHold}}),
		AIAgrees:           &agrees,
		OriginalDirection:  &dir,
		OriginalConfidence: &conf,
	}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{
		"decision", "decision_kr", "confidence", "avg_signal_strength", "signals",
		"signal_counts", "reasoning", "current_price", "price_change_24h",
		"ai_agrees", "original_decision", "original_confidence",
	} {
		if _, ok := m[key]; !ok {
			t.Errorf("decision JSON missing %q", key)
		}
	}
	if _, ok := m["ai_opinion"]; ok {
		t.Errorf("nil ai_opinion should be omitted")
	}

	sig := m["signals"].([]any)[0].(map[string]any)
	if sig["type"] != "sell" || sig["source"] != "KIMP" {
		t.Errorf("signal JSON = %v", sig)
	}
	counts := m["signal_counts"].(map[string]any)
	if counts["sell"] != 1.0 || counts["hold"] != 1.0 || counts["buy"] != 0.0 {
		t.Errorf("signal_counts = %v", counts)
	}
}
