package market

import (
	"fmt"
	"math"
	"time"

	"github.com/Alias1177/BitTrader/internal/config"
	"github.com/Alias1177/BitTrader/internal/model"
)

// OrderBookRatio returns total bid notional over total ask notional.
// An empty ask side gives 2.0; ok is false when both sides are empty.
func OrderBookRatio(book model.OrderBook) (ratio float64, ok bool) {
	bids := notional(book.Bids)
	asks := notional(book.Asks)
	if bids == 0 && asks == 0 {
		return 0, false
	}
	if asks == 0 {
		return 2.0, true
	}
	return bids / asks, true
}

func notional(levels []model.OrderBookLevel) float64 {
	var total float64
	for _, l := range levels {
		total += l.Price * l.Quantity
	}
	return total
}

// OrderBookSignal maps the bid/ask notional ratio to a signal
func OrderBookSignal(ratio float64) model.Signal {
	switch {
	case ratio > 1.2:
		return model.NewSignal(model.CategoryOrderbook, model.DirectionBuy, math.Min(0.6, (ratio-1)/2),
			fmt.Sprintf("bid pressure dominates order book (ratio %.2f)", ratio))
	case ratio < 0.8:
		return model.NewSignal(model.CategoryOrderbook, model.DirectionSell, math.Min(0.6, (1-ratio)/2),
			fmt.Sprintf("ask pressure dominates order book (ratio %.2f)", ratio))
	}
	return model.HoldSignal(model.CategoryOrderbook, fmt.Sprintf("order book balanced (ratio %.2f)", ratio))
}

// BidRatio returns the share of bid-side volume among ticks inside the window
// ending at now. A zero window uses every tick. ok is false when no volume traded.
func BidRatio(ticks []model.TradeTick, window time.Duration, now time.Time) (ratio float64, ok bool) {
	var bid, ask float64
	for _, t := range ticks {
		if window > 0 && (t.Time.Before(now.Add(-window)) || t.Time.After(now)) {
			continue
		}
		switch t.Side {
		case model.TickBid:
			bid += t.Volume
		case model.TickAsk:
			ask += t.Volume
		}
	}
	total := bid + ask
	if total <= 0 {
		return 0, false
	}
	return bid / total, true
}

// TradeFlowSignal maps the bid-volume share to a signal
func TradeFlowSignal(bidRatio float64) model.Signal {
	switch {
	case bidRatio > 0.6:
		return model.NewSignal(model.CategoryTrades, model.DirectionBuy, math.Min(0.5, (bidRatio-0.5)*2),
			fmt.Sprintf("buyers dominate recent trades (%.0f%% bid volume)", bidRatio*100))
	case bidRatio < 0.4:
		return model.NewSignal(model.CategoryTrades, model.DirectionSell, math.Min(0.5, (0.5-bidRatio)*2),
			fmt.Sprintf("sellers dominate recent trades (%.0f%% bid volume)", bidRatio*100))
	}
	return model.HoldSignal(model.CategoryTrades, fmt.Sprintf("trade flow balanced (%.0f%% bid volume)", bidRatio*100))
}

// Premium returns the local price premium over the FX-converted foreign price, in percent
func Premium(q model.PremiumQuote) (pct float64, ok bool) {
	foreign := q.ForeignPrice * q.FXRate
	if foreign <= 0 || q.LocalPrice <= 0 {
		return 0, false
	}
	return (q.LocalPrice - foreign) / foreign * 100, true
}

// PremiumSignal maps the cross-exchange premium to a signal
func PremiumSignal(pct float64) model.Signal {
	switch {
	case pct < -1.0:
		return model.NewSignal(model.CategoryKIMP, model.DirectionBuy, math.Min(0.5, math.Abs(pct)/10),
			fmt.Sprintf("local price at a discount (%.2f%%)", pct))
	case pct > 4.0:
		return model.NewSignal(model.CategoryKIMP, model.DirectionSell, math.Min(0.5, pct/10),
			fmt.Sprintf("local premium overheated (%.2f%%)", pct))
	}
	return model.HoldSignal(model.CategoryKIMP, fmt.Sprintf("premium normal (%.2f%%)", pct))
}

// SentimentSignal maps the fear and greed index to a signal. ok is false
// for readings outside 0..100.
func SentimentSignal(idx model.SentimentIndex, s config.SignalStrengths) (model.Signal, bool) {
	v := idx.Value
	if v < 0 || v > 100 {
		return model.Signal{}, false
	}
	switch {
	case v <= 25:
		return model.NewSignal(model.CategoryFearGreed, model.DirectionBuy, s.FearGreedExtreme,
			fmt.Sprintf("extreme fear (%d)", v)), true
	case v <= 40:
		return model.NewSignal(model.CategoryFearGreed, model.DirectionBuy, s.FearGreedMiddle,
			fmt.Sprintf("fear (%d)", v)), true
	case v >= 75:
		return model.NewSignal(model.CategoryFearGreed, model.DirectionSell, s.FearGreedExtreme,
			fmt.Sprintf("extreme greed (%d)", v)), true
	case v >= 60:
		return model.NewSignal(model.CategoryFearGreed, model.DirectionSell, s.FearGreedMiddle,
			fmt.Sprintf("greed (%d)", v)), true
	}
	return model.HoldSignal(model.CategoryFearGreed, fmt.Sprintf("neutral sentiment (%d)", v)), true
}
