package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/BitTrader/internal/analysis/arbiter"
	"github.com/Alias1177/BitTrader/internal/analysis/fusion"
	"github.com/Alias1177/BitTrader/internal/analysis/market"
	"github.com/Alias1177/BitTrader/internal/analysis/technical"
	"github.com/Alias1177/BitTrader/internal/api/upbit"
	"github.com/Alias1177/BitTrader/internal/config"
	"github.com/Alias1177/BitTrader/internal/model"
	"github.com/Alias1177/BitTrader/internal/trading/risk"
)

// Exchange is the market data and order surface of the exchange
type Exchange interface {
	GetCandles(ctx context.Context, market, interval string, count int) ([]model.Candle, error)
	GetOrderBook(ctx context.Context, market string) (model.OrderBook, error)
	GetTicks(ctx context.Context, market string, count int) ([]model.TradeTick, error)
	GetCurrentPrice(ctx context.Context, market string) (float64, error)
	GetBalance(ctx context.Context, currency string) (float64, error)
	BuyMarket(ctx context.Context, market string, notional float64) (*upbit.OrderResult, error)
	SellMarket(ctx context.Context, market string, qty float64) (*upbit.OrderResult, error)
}

// PremiumSource quotes the foreign price of the asset
type PremiumSource interface {
	GetPremiumQuote(ctx context.Context, symbol string, localPrice float64) (model.PremiumQuote, error)
}

// SentimentSource reads the market sentiment index
type SentimentSource interface {
	GetIndex(ctx context.Context) (model.SentimentIndex, error)
}

// Store is the append-only decision and trade log
type Store interface {
	SaveDecision(ctx context.Context, d model.Decision) error
	SaveTrade(ctx context.Context, t model.TradeRecord) error
}

// Notifier pushes events to the operator
type Notifier interface {
	Trade(t model.TradeRecord)
	Signal(d model.Decision)
	Error(err error)
}

// Metrics records cycle outcomes
type Metrics interface {
	RecordCycle(d time.Duration, err error)
	RecordDecision(d model.Decision)
	RecordOrder(t model.TradeRecord)
}

// Options configure an Engine. Exchange is required; every other
// collaborator may be nil.
type Options struct {
	Symbol         string
	ForeignSymbol  string
	Interval       string
	CandleCount    int
	RequestTimeout time.Duration
	EnableTrade    bool
	PaperBalance   float64
	PaperAsset     float64

	Exchange  Exchange
	Premium   PremiumSource
	Sentiment SentimentSource
	AI        arbiter.OpinionProvider
	Store     Store
	Notifier  Notifier
	Metrics   Metrics

	// Now is the clock; defaults to time.Now
	Now func() time.Time
}

// Report describes one finished cycle
type Report struct {
	Decision    model.Decision
	Instruction model.TradeInstruction
	Trade       *model.TradeRecord
	Skipped     string
	Duration    time.Duration
}

// Gate reasons reported in Report.Skipped
const (
	SkipOutsideHours = "outside trading hours"
	SkipCooldown     = "trade cooldown"
	SkipNoBalance    = "balances unavailable"
	SkipOrderFailed  = "order failed"
	SkipNoOrder      = "no order"
)

// Engine runs the analysis and trading cycle
type Engine struct {
	opts     Options
	strategy config.Strategy

	technical *technical.Calculator
	market    *market.Collector
	fusion    *fusion.Engine
	arbiter   *arbiter.Arbiter
	sizer     *risk.PositionSizer

	fiat  string
	asset string

	lastTrade time.Time
	logger    zerolog.Logger
}

// New creates an engine for one market
func New(opts Options, strategy config.Strategy) (*Engine, error) {
	if opts.Exchange == nil {
		return nil, errors.New("engine: exchange is required")
	}
	fiat, asset, ok := strings.Cut(opts.Symbol, "-")
	if !ok || fiat == "" || asset == "" {
		return nil, fmt.Errorf("engine: market %q is not in QUOTE-BASE form", opts.Symbol)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.CandleCount <= 0 {
		opts.CandleCount = 200
	}

	return &Engine{
		opts:      opts,
		strategy:  strategy,
		technical: technical.NewCalculator(strategy),
		market:    market.NewCollector(strategy),
		fusion:    fusion.NewEngine(strategy),
		arbiter:   arbiter.New(strategy.AI, opts.AI),
		sizer:     risk.NewPositionSizer(strategy),
		fiat:      fiat,
		asset:     asset,
		logger:    log.With().Str("component", "engine").Str("symbol", opts.Symbol).Logger(),
	}, nil
}

// Run executes a cycle immediately and then on every trading interval until
// ctx is cancelled. A failed cycle is logged and the loop continues.
func (e *Engine) Run(ctx context.Context) error {
	interval := e.strategy.Trading.TradingInterval
	e.logger.Info().Dur("interval", interval).Bool("enable_trade", e.opts.EnableTrade).Msg("Trading loop started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := e.RunCycle(ctx); err != nil {
			e.logger.Error().Err(err).Msg("Cycle failed")
		}

		select {
		case <-ctx.Done():
			e.logger.Info().Msg("Trading loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunCycle performs one fetch, analyse, decide and trade pass
func (e *Engine) RunCycle(ctx context.Context) (report Report, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
		report.Duration = time.Since(start)
		if e.opts.Metrics != nil {
			e.opts.Metrics.RecordCycle(report.Duration, err)
		}
		if err != nil && e.opts.Notifier != nil {
			e.opts.Notifier.Error(err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	candles, err := e.fetchCandles(ctx)
	if err != nil {
		return report, err
	}
	price := e.currentPrice(ctx, candles)
	now := e.opts.Now()

	in := e.fetchMarketInputs(ctx, price, now)

	signals := e.technical.Signals(candles)
	signals = append(signals, e.market.Collect(in)...)

	local := e.fusion.Fuse(signals, fusion.MarketContext{
		Symbol:         e.opts.Symbol,
		Price:          price,
		PriceChange24h: model.FormatPriceChange24h(candles),
		Now:            now,
	})
	local.ID = uuid.NewString()

	final := e.arbiter.Arbitrate(ctx, local, model.OpinionRequest{Decision: local, Candles: candles})
	report.Decision = final

	e.logger.Info().
		Str("decision", string(final.Direction)).
		Float64("confidence", final.Confidence).
		Float64("avg", final.AvgSignalStrength).
		Str("counts", final.SignalCounts.String()).
		Str("ai_error", final.AIError).
		Msg("Decision made")

	e.record(ctx, final)

	report.Instruction, report.Skipped = e.instruction(ctx, final)
	if report.Instruction.Action == model.ActionNone {
		if report.Skipped == "" {
			report.Skipped = SkipNoOrder
		}
		return report, nil
	}

	if reason := e.gate(now); reason != "" {
		e.logger.Info().Str("reason", reason).Str("action", string(report.Instruction.Action)).Msg("Order skipped")
		report.Skipped = reason
		return report, nil
	}

	trade, err := e.execute(ctx, final, report.Instruction, price, now)
	if err != nil {
		// a rejected order does not fail the cycle
		e.logger.Error().Err(err).Msg("Order placement failed")
		report.Skipped = SkipOrderFailed
		if e.opts.Notifier != nil {
			e.opts.Notifier.Error(err)
		}
		return report, nil
	}
	e.lastTrade = now
	report.Trade = &trade

	if e.opts.Store != nil {
		if err := e.opts.Store.SaveTrade(ctx, trade); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to record trade")
		}
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordOrder(trade)
	}
	if e.opts.Notifier != nil {
		e.opts.Notifier.Trade(trade)
	}

	return report, nil
}

func (e *Engine) fetchCandles(ctx context.Context) ([]model.Candle, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	defer cancel()

	candles, err := e.opts.Exchange.GetCandles(ctx, e.opts.Symbol, e.opts.Interval, e.opts.CandleCount)
	if err != nil {
		return nil, fmt.Errorf("fetching candles: %w", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("fetching candles: %w", model.ErrInsufficientData)
	}
	return candles, nil
}

// currentPrice prefers the ticker and falls back to the last close
func (e *Engine) currentPrice(ctx context.Context, candles []model.Candle) float64 {
	ctx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	defer cancel()

	price, err := e.opts.Exchange.GetCurrentPrice(ctx, e.opts.Symbol)
	if err != nil || price <= 0 {
		e.logger.Warn().Err(err).Msg("Ticker unavailable, using last close")
		return candles[len(candles)-1].Close
	}
	return price
}

// fetchMarketInputs fetches the market-state observations concurrently.
// Each failure leaves its input nil.
func (e *Engine) fetchMarketInputs(ctx context.Context, price float64, now time.Time) market.Inputs {
	in := market.Inputs{Now: now}
	var wg sync.WaitGroup

	run := func(name string, f func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
			defer cancel()
			if err := f(ctx); err != nil {
				e.logger.Warn().Err(err).Str("input", name).Msg("Market input unavailable")
			}
		}()
	}

	run("orderbook", func(ctx context.Context) error {
		book, err := e.opts.Exchange.GetOrderBook(ctx, e.opts.Symbol)
		if err != nil {
			return err
		}
		in.OrderBook = &book
		return nil
	})

	run("trades", func(ctx context.Context) error {
		ticks, err := e.opts.Exchange.GetTicks(ctx, e.opts.Symbol, e.strategy.Trading.TickCount)
		if err != nil {
			return err
		}
		if ticks == nil {
			ticks = []model.TradeTick{}
		}
		in.Ticks = ticks
		return nil
	})

	if e.opts.Premium != nil {
		run("premium", func(ctx context.Context) error {
			q, err := e.opts.Premium.GetPremiumQuote(ctx, e.opts.ForeignSymbol, price)
			if err != nil {
				return err
			}
			in.Premium = &q
			return nil
		})
	}

	if e.opts.Sentiment != nil {
		run("sentiment", func(ctx context.Context) error {
			idx, err := e.opts.Sentiment.GetIndex(ctx)
			if err != nil {
				return err
			}
			in.Sentiment = &idx
			return nil
		})
	}

	wg.Wait()
	return in
}

// instruction sizes the decision against the account, or the paper balance
// when trading is disabled and the account cannot be read
func (e *Engine) instruction(ctx context.Context, d model.Decision) (model.TradeInstruction, string) {
	if d.Direction == model.DirectionHold {
		return e.sizer.SizeDecision(d, risk.Balances{}), ""
	}

	bal, err := e.balances(ctx)
	if err != nil {
		if e.opts.EnableTrade {
			e.logger.Warn().Err(err).Msg("Balances unavailable, skipping trade")
			return model.TradeInstruction{Action: model.ActionNone, Reason: SkipNoBalance}, SkipNoBalance
		}
		e.logger.Debug().Err(err).
			Float64("paper_balance", e.opts.PaperBalance).
			Float64("paper_asset", e.opts.PaperAsset).
			Msg("Using paper balance")
		bal = risk.Balances{Fiat: e.opts.PaperBalance, Asset: e.opts.PaperAsset}
	}

	ins := e.sizer.SizeDecision(d, bal)
	if ins.Action == model.ActionNone {
		e.logger.Info().Str("reason", ins.Reason).Float64("ratio", ins.RatioUsed).Msg("No order for decision")
	}
	return ins, ""
}

func (e *Engine) balances(ctx context.Context) (risk.Balances, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	defer cancel()

	fiat, err := e.opts.Exchange.GetBalance(ctx, e.fiat)
	if err != nil {
		return risk.Balances{}, fmt.Errorf("%s balance: %w", e.fiat, err)
	}
	asset, err := e.opts.Exchange.GetBalance(ctx, e.asset)
	if err != nil {
		return risk.Balances{}, fmt.Errorf("%s balance: %w", e.asset, err)
	}
	return risk.Balances{Fiat: fiat, Asset: asset}, nil
}

// gate applies the trading-hours window and the post-trade cooldown
func (e *Engine) gate(now time.Time) string {
	if !e.strategy.Trading.TradingHours.Allows(now) {
		return SkipOutsideHours
	}
	if cd := e.strategy.Trading.TradeCooldown; cd > 0 && !e.lastTrade.IsZero() && now.Sub(e.lastTrade) < cd {
		return SkipCooldown
	}
	return ""
}

func (e *Engine) execute(ctx context.Context, d model.Decision, ins model.TradeInstruction, price float64, now time.Time) (model.TradeRecord, error) {
	rec := model.TradeRecord{
		ID:         uuid.NewString(),
		Symbol:     e.opts.Symbol,
		Side:       ins.Action,
		Price:      price,
		Confidence: d.Confidence,
		DryRun:     !e.opts.EnableTrade,
		Timestamp:  now,
	}
	switch ins.Action {
	case model.ActionBuy:
		rec.Total = ins.Amount
		if price > 0 {
			rec.Quantity = ins.Amount / price
		}
	case model.ActionSell:
		rec.Quantity = ins.Amount
		rec.Total = ins.Amount * price
	}

	if rec.DryRun {
		e.logger.Info().
			Str("side", string(rec.Side)).
			Float64("amount", ins.Amount).
			Float64("ratio", ins.RatioUsed).
			Msg("Dry run, order not placed")
		return rec, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	defer cancel()

	var (
		res *upbit.OrderResult
		err error
	)
	if ins.Action == model.ActionBuy {
		res, err = e.opts.Exchange.BuyMarket(ctx, e.opts.Symbol, ins.Amount)
	} else {
		res, err = e.opts.Exchange.SellMarket(ctx, e.opts.Symbol, ins.Amount)
	}
	if err != nil {
		return model.TradeRecord{}, fmt.Errorf("placing %s order: %w", ins.Action, err)
	}
	if res != nil {
		rec.OrderID = res.UUID
	}

	e.logger.Info().
		Str("side", string(rec.Side)).
		Str("order_id", rec.OrderID).
		Float64("amount", ins.Amount).
		Msg("Order placed")
	return rec, nil
}

func (e *Engine) record(ctx context.Context, d model.Decision) {
	if e.opts.Store != nil {
		if err := e.opts.Store.SaveDecision(ctx, d); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to record decision")
		}
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordDecision(d)
	}
	if e.opts.Notifier != nil {
		e.opts.Notifier.Signal(d)
	}
}
