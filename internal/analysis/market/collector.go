package market

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/BitTrader/internal/config"
	"github.com/Alias1177/BitTrader/internal/model"
)

// Inputs are the market-state observations for one cycle.
// A nil pointer means the upstream fetch failed and yields no signal.
type Inputs struct {
	OrderBook *model.OrderBook
	Ticks     []model.TradeTick
	Premium   *model.PremiumQuote
	Sentiment *model.SentimentIndex
	Now       time.Time
}

// Collector converts market-state observations into signals
type Collector struct {
	strengths config.SignalStrengths
	usage     config.Usage
	window    time.Duration
	logger    zerolog.Logger
}

// NewCollector creates a collector bound to the strategy
func NewCollector(strategy config.Strategy) *Collector {
	usage := make(config.Usage, len(strategy.IndicatorUsage))
	for k, v := range strategy.IndicatorUsage {
		usage[k] = v
	}
	return &Collector{
		strengths: strategy.SignalStrengths,
		usage:     usage,
		window:    strategy.Trading.TradeWindow,
		logger:    log.With().Str("component", "market_signals").Logger(),
	}
}

// Collect returns the signals for every available and enabled input
func (c *Collector) Collect(in Inputs) []model.Signal {
	signals := make([]model.Signal, 0, 4)

	if c.usage.Enabled(model.CategoryOrderbook) {
		if in.OrderBook == nil {
			c.skip(model.CategoryOrderbook, "order book unavailable")
		} else if ratio, ok := OrderBookRatio(*in.OrderBook); ok {
			signals = append(signals, OrderBookSignal(ratio))
		} else {
			c.skip(model.CategoryOrderbook, "order book empty")
		}
	}

	if c.usage.Enabled(model.CategoryTrades) {
		if in.Ticks == nil {
			c.skip(model.CategoryTrades, "trade ticks unavailable")
		} else if ratio, ok := BidRatio(in.Ticks, c.window, in.Now); ok {
			signals = append(signals, TradeFlowSignal(ratio))
		} else {
			signals = append(signals, model.HoldSignal(model.CategoryTrades, "no trades in window"))
		}
	}

	if c.usage.Enabled(model.CategoryKIMP) {
		if in.Premium == nil {
			c.skip(model.CategoryKIMP, "premium quote unavailable")
		} else if pct, ok := Premium(*in.Premium); ok {
			signals = append(signals, PremiumSignal(pct))
		} else {
			c.skip(model.CategoryKIMP, "premium quote invalid")
		}
	}

	if c.usage.Enabled(model.CategoryFearGreed) {
		if in.Sentiment == nil {
			c.skip(model.CategoryFearGreed, "sentiment index unavailable")
		} else if s, ok := SentimentSignal(*in.Sentiment, c.strengths); ok {
			signals = append(signals, s)
		} else {
			c.skip(model.CategoryFearGreed, "sentiment index out of range")
		}
	}

	return signals
}

func (c *Collector) skip(cat model.Category, reason string) {
	c.logger.Debug().Str("source", string(cat)).Str("reason", reason).Msg("Market signal omitted")
}
