package fusion

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Alias1177/BitTrader/internal/analysis/market"
	"github.com/Alias1177/BitTrader/internal/analysis/technical"
	"github.com/Alias1177/BitTrader/internal/config"
	"github.com/Alias1177/BitTrader/internal/model"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFuseBullishConfluence(t *testing.T) {
	strategy := config.DefaultStrategy()
	s := strategy.SignalStrengths
	book := model.OrderBook{
		Bids: []model.OrderBookLevel{{Price: 100, Quantity: 3}},
		Asks: []model.OrderBookLevel{{Price: 100, Quantity: 2}},
	}
	ratio, _ := market.OrderBookRatio(book)

	signals := []model.Signal{
		technical.MASignal(105, 100, s),
		technical.RSISignal(25, s),
		technical.MACDSignal(-0.1, 0.3, s),
		market.OrderBookSignal(ratio),
	}

	d := NewEngine(strategy).Fuse(signals, MarketContext{Symbol: "KRW-BTC", Price: 100, Now: testNow})

	// 0.45*0.8 + 0.9*1.5 + 0.85*1.5 + 0.25*1.1 over 0.8+1.5+1.5+1.1
	wantAvg := 3.26 / 4.9
	if !almostEqual(d.AvgSignalStrength, wantAvg) {
		t.Errorf("avg = %v, want %v", d.AvgSignalStrength, wantAvg)
	}
	if d.Direction != model.DirectionBuy {
		t.Errorf("direction = %s, want buy", d.Direction)
	}
	if d.Confidence < 0.6 {
		t.Errorf("confidence = %v, want >= 0.6", d.Confidence)
	}
	if d.DirectionLabel != "매수" {
		t.Errorf("label = %q, want 매수", d.DirectionLabel)
	}
	if d.SignalCounts != (model.SignalCounts{Buy: 4}) {
		t.Errorf("counts = %+v", d.SignalCounts)
	}

	lines := strings.Split(d.Reasoning, "\n")
	want := []string{"signals: buy 4, sell 0, hold 0", "- RSI:", "- MACD:", "- MA:"}
	if len(lines) != len(want) {
		t.Fatalf("reasoning has %d lines, want %d:\n%s", len(lines), len(want), d.Reasoning)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("reasoning line %d = %q, want prefix %q", i, lines[i], prefix)
		}
	}
}

// reboundCandles is a 70-bar slide that bottoms out and turns up over the
// last three bars: oversold momentum against a still-falling trend
func reboundCandles() []model.Candle {
	var candles []model.Candle
	price := 10000.0
	add := func(delta float64) {
		price += delta
		candles = append(candles, model.Candle{
			Time:  testNow.Add(time.Duration(len(candles)) * time.Minute),
			Open:  price - delta,
			High:  price + 10,
			Low:   price - 10,
			Close: price,
		})
	}
	for i := 0; i < 70; i++ {
		add(-50)
	}
	for _, d := range []float64{-40, -30, -20, 15, 40, 60} {
		add(d)
	}
	return candles
}

func TestFuseCandleDrivenRebound(t *testing.T) {
	strategy := config.DefaultStrategy()
	candles := reboundCandles()

	signals := technical.NewCalculator(strategy).Signals(candles)

	want := map[model.Category]model.Direction{
		model.CategoryMA:         model.DirectionSell,
		model.CategoryMA60:       model.DirectionSell,
		model.CategoryBB:         model.DirectionBuy,
		model.CategoryRSI:        model.DirectionBuy,
		model.CategoryMACD:       model.DirectionBuy,
		model.CategoryStochastic: model.DirectionBuy,
	}
	if len(signals) != len(want) {
		t.Fatalf("got %d signals, want %d: %+v", len(signals), len(want), signals)
	}
	for _, s := range signals {
		if s.Direction != want[s.Source] {
			t.Errorf("%s = %s, want %s (%s)", s.Source, s.Direction, want[s.Source], s.Description)
		}
	}

	last := candles[len(candles)-1].Close
	d := NewEngine(strategy).Fuse(signals, MarketContext{Symbol: "KRW-BTC", Price: last, Now: testNow})

	// -0.45*0.8 - 0.3*0.7 + 0.3*1.3 + 0.9*1.5 + 0.4*1.5 + 0.3*1.3 over 7.1
	wantAvg := 2.16 / 7.1
	if !almostEqual(d.AvgSignalStrength, wantAvg) {
		t.Errorf("avg = %v, want %v", d.AvgSignalStrength, wantAvg)
	}
	if d.Direction != model.DirectionBuy {
		t.Errorf("direction = %s, want buy", d.Direction)
	}
	if !almostEqual(d.Confidence, 0.5+wantAvg/2) {
		t.Errorf("confidence = %v, want %v", d.Confidence, 0.5+wantAvg/2)
	}
	if d.SignalCounts != (model.SignalCounts{Buy: 4, Sell: 2}) {
		t.Errorf("counts = %+v", d.SignalCounts)
	}
	if d.CurrentPrice != last {
		t.Errorf("price = %v, want %v", d.CurrentPrice, last)
	}
}

func TestFuseNoSignals(t *testing.T) {
	d := NewEngine(config.DefaultStrategy()).Fuse(nil, MarketContext{Now: testNow})

	if d.Direction != model.DirectionHold || d.Confidence != 0.5 || d.AvgSignalStrength != 0 {
		t.Errorf("Fuse(nil) = %s/%v/%v, want hold/0.5/0", d.Direction, d.Confidence, d.AvgSignalStrength)
	}
	if d.DirectionLabel != "홀드" {
		t.Errorf("label = %q, want 홀드", d.DirectionLabel)
	}
}

func TestFuseThresholds(t *testing.T) {
	strategy := config.DefaultStrategy()
	strategy.Thresholds = config.DecisionThresholds{BuyThreshold: 0.2, SellThreshold: -0.2}
	strategy.IndicatorWeights = config.Weights{}
	e := NewEngine(strategy)

	tests := []struct {
		name    string
		signals []model.Signal
		want    model.Direction
	}{
		{
			name:    "strong buy",
			signals: []model.Signal{model.NewSignal(model.CategoryRSI, model.DirectionBuy, 0.9, "")},
			want:    model.DirectionBuy,
		},
		{
			name:    "weak buy stays hold",
			signals: []model.Signal{model.NewSignal(model.CategoryRSI, model.DirectionBuy, 0.1, "")},
			want:    model.DirectionHold,
		},
		{
			name:    "exactly at buy threshold",
			signals: []model.Signal{model.NewSignal(model.CategoryRSI, model.DirectionBuy, 0.2, "")},
			want:    model.DirectionBuy,
		},
		{
			name:    "strong sell",
			signals: []model.Signal{model.NewSignal(model.CategoryRSI, model.DirectionSell, 0.9, "")},
			want:    model.DirectionSell,
		},
		{
			name: "opposing signals cancel",
			signals: []model.Signal{
				model.NewSignal(model.CategoryRSI, model.DirectionBuy, 0.8, ""),
				model.NewSignal(model.CategoryMACD, model.DirectionSell, 0.8, ""),
			},
			want: model.DirectionHold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.Fuse(tt.signals, MarketContext{Now: testNow})
			if d.Direction != tt.want {
				t.Errorf("direction = %s (avg %v), want %s", d.Direction, d.AvgSignalStrength, tt.want)
			}
			if d.Confidence < 0.5 || d.Confidence > 1 {
				t.Errorf("confidence %v out of [0.5, 1]", d.Confidence)
			}
		})
	}
}

func TestHoldSignalsDiluteAverage(t *testing.T) {
	strategy := config.DefaultStrategy()
	strategy.IndicatorWeights = config.Weights{}
	e := NewEngine(strategy)

	signals := []model.Signal{
		model.NewSignal(model.CategoryRSI, model.DirectionBuy, 0.6, ""),
		model.HoldSignal(model.CategoryBB, ""),
		model.HoldSignal(model.CategoryMACD, ""),
	}
	if got := e.Average(signals); !almostEqual(got, 0.2) {
		t.Errorf("Average() = %v, want 0.2", got)
	}
}

func TestUnconfiguredWeightDefaultsToOne(t *testing.T) {
	strategy := config.DefaultStrategy()
	strategy.IndicatorWeights = config.Weights{model.CategoryRSI: 3}
	e := NewEngine(strategy)

	signals := []model.Signal{
		model.NewSignal(model.CategoryRSI, model.DirectionBuy, 1, ""),
		model.NewSignal(model.CategoryKIMP, model.DirectionSell, 1, ""),
	}
	// (3 - 1) / (3 + 1)
	if got := e.Average(signals); !almostEqual(got, 0.5) {
		t.Errorf("Average() = %v, want 0.5", got)
	}
}

func TestHoldReasoningQuotesAllDirections(t *testing.T) {
	e := NewEngine(config.DefaultStrategy())
	signals := []model.Signal{
		model.NewSignal(model.CategoryRSI, model.DirectionBuy, 0.35, "RSI weak"),
		model.NewSignal(model.CategoryMACD, model.DirectionSell, 0.4, "MACD below signal line"),
		model.HoldSignal(model.CategoryBB, "price mid-band"),
	}

	d := e.Fuse(signals, MarketContext{Now: testNow})
	if d.Direction != model.DirectionHold {
		t.Fatalf("direction = %s, want hold", d.Direction)
	}
	lines := strings.Split(d.Reasoning, "\n")
	if len(lines) != 5 {
		t.Fatalf("reasoning = %q, want counts, average and three bullets", d.Reasoning)
	}
	if lines[2] != "- MACD (sell): MACD below signal line" {
		t.Errorf("strongest bullet = %q", lines[2])
	}
	if lines[3] != "- RSI (buy): RSI weak" {
		t.Errorf("second bullet = %q", lines[3])
	}
}

func TestFuseIsDeterministic(t *testing.T) {
	e := NewEngine(config.DefaultStrategy())
	signals := []model.Signal{
		model.NewSignal(model.CategoryRSI, model.DirectionBuy, 0.35, "a"),
		model.NewSignal(model.CategoryMA, model.DirectionSell, 0.45, "b"),
		model.NewSignal(model.CategoryBB, model.DirectionBuy, 0.75, "c"),
	}
	mctx := MarketContext{Symbol: "KRW-BTC", Price: 1, Now: testNow}

	first := e.Fuse(signals, mctx)
	second := e.Fuse(signals, mctx)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Fuse() not deterministic:\n%+v\n%+v", first, second)
	}

	first.Signals[0].Strength = 0
	if signals[0].Strength == 0 {
		t.Errorf("decision shares the caller's signal slice")
	}
}

func TestFuseOnShortSeries(t *testing.T) {
	strategy := config.DefaultStrategy()
	calc := technical.NewCalculator(strategy)

	candles := make([]model.Candle, 40)
	for i := range candles {
		p := 1000 + 10*math.Sin(float64(i)/2)
		candles[i] = model.Candle{Time: testNow.Add(time.Duration(i-40) * time.Hour), Open: p, High: p + 3, Low: p - 3, Close: p}
	}

	signals := calc.Signals(candles)
	d := NewEngine(strategy).Fuse(signals, MarketContext{Now: testNow})

	for _, s := range d.Signals {
		if s.Source == model.CategoryMA60 {
			t.Errorf("MA60 contributed on a 40-bar series")
		}
	}
	if len(d.Signals) != 5 {
		t.Errorf("got %d signals, want 5", len(d.Signals))
	}
	if !d.Direction.Valid() {
		t.Errorf("invalid direction %q", d.Direction)
	}
}
