package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Alias1177/BitTrader/internal/model"
)

func writeStrategy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write strategy: %v", err)
	}
	return path
}

func TestDefaultStrategy(t *testing.T) {
	s := DefaultStrategy()

	if s.Thresholds.BuyThreshold != 0.05 || s.Thresholds.SellThreshold != -0.05 {
		t.Errorf("thresholds = %+v, want 0.05/-0.05", s.Thresholds)
	}
	if s.Investment.MinRatio != 0.2 || s.Investment.MaxRatio != 0.7 {
		t.Errorf("investment ratios = %+v, want 0.2/0.7", s.Investment)
	}
	if s.SignalStrengths.RSIExtreme != 0.9 || s.SignalStrengths.FearGreedMiddle != 0.5 {
		t.Errorf("strengths = %+v", s.SignalStrengths)
	}
	if s.Trading.MinOrderAmount != 5000 || s.Trading.TradingInterval != 5*time.Minute {
		t.Errorf("trading settings = %+v", s.Trading)
	}
	if !s.AI.UseAI || !s.AI.AIPrimaryDecision || s.AI.Weight != 500 || s.AI.Timeout != 30*time.Second {
		t.Errorf("ai settings = %+v", s.AI)
	}
	if got := s.IndicatorWeights.Weight(model.CategoryRSI); got != 1.5 {
		t.Errorf("RSI weight = %v, want 1.5", got)
	}
	for _, c := range model.Categories {
		if !s.IndicatorUsage.Enabled(c) {
			t.Errorf("category %s disabled by default", c)
		}
	}
	if err := s.Validate(); err != nil {
		t.Errorf("default strategy invalid: %v", err)
	}
}

func TestLoadStrategyMissingFile(t *testing.T) {
	s, err := LoadStrategy(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadStrategy() error = %v", err)
	}
	if s.Thresholds.BuyThreshold != 0.05 {
		t.Errorf("missing file should give defaults, got %+v", s.Thresholds)
	}
}

func TestLoadStrategyOverrides(t *testing.T) {
	path := writeStrategy(t, `
decision_thresholds:
  buy_threshold: 0.2
  sell_threshold: -0.3
indicator_weights:
  RSI: 2.5
indicator_usage:
  KIMP: false
ai_settings:
  use_ai: false
  timeout: 5s
trading_settings:
  trade_cooldown: 10m
`)

	s, err := LoadStrategy(path)
	if err != nil {
		t.Fatalf("LoadStrategy() error = %v", err)
	}
	if s.Thresholds.BuyThreshold != 0.2 || s.Thresholds.SellThreshold != -0.3 {
		t.Errorf("thresholds = %+v", s.Thresholds)
	}
	if got := s.IndicatorWeights.Weight(model.CategoryRSI); got != 2.5 {
		t.Errorf("RSI weight = %v, want 2.5", got)
	}
	if got := s.IndicatorWeights.Weight(model.CategoryMACD); got != 1.5 {
		t.Errorf("MACD weight = %v, want default 1.5", got)
	}
	if s.IndicatorUsage.Enabled(model.CategoryKIMP) {
		t.Errorf("KIMP should be disabled")
	}
	if !s.IndicatorUsage.Enabled(model.CategoryRSI) {
		t.Errorf("RSI should stay enabled")
	}
	if s.AI.UseAI {
		t.Errorf("use_ai: false was not honoured")
	}
	if s.AI.Timeout != 5*time.Second {
		t.Errorf("ai timeout = %v, want 5s", s.AI.Timeout)
	}
	if s.Trading.TradeCooldown != 10*time.Minute {
		t.Errorf("cooldown = %v, want 10m", s.Trading.TradeCooldown)
	}
}

func TestLoadStrategyRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "buy threshold below sell threshold",
			body: "decision_thresholds:\n  buy_threshold: -0.1\n  sell_threshold: 0.1\n",
		},
		{
			name: "min ratio above max ratio",
			body: "investment_ratios:\n  min_ratio: 0.8\n  max_ratio: 0.3\n",
		},
		{
			name: "strength above one",
			body: "signal_strengths:\n  rsi_extreme: 1.5\n",
		},
		{
			name: "negative weight",
			body: "indicator_weights:\n  BB: -1\n",
		},
		{
			name: "malformed yaml",
			body: "decision_thresholds: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadStrategy(writeStrategy(t, tt.body)); err == nil {
				t.Errorf("LoadStrategy() error = nil, want error")
			}
		})
	}
}

func TestWeightsAndUsageFallbacks(t *testing.T) {
	w := Weights{model.CategoryBB: 0, model.CategoryRSI: 2}
	if got := w.Weight(model.CategoryBB); got != 1.0 {
		t.Errorf("Weight(zero) = %v, want 1.0", got)
	}
	if got := w.Weight(model.CategoryMA); got != 1.0 {
		t.Errorf("Weight(missing) = %v, want 1.0", got)
	}
	if got := w.Weight(model.CategoryRSI); got != 2 {
		t.Errorf("Weight(RSI) = %v, want 2", got)
	}

	var u Usage
	if !u.Enabled(model.CategoryMACD) {
		t.Errorf("nil usage should enable everything")
	}
}

func TestTradingHoursAllows(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2024, 5, 1, h, 30, 0, 0, time.UTC) }

	tests := []struct {
		name  string
		hours TradingHours
		hour  int
		want  bool
	}{
		{"disabled", TradingHours{Enabled: false, StartHour: 9, EndHour: 10}, 3, true},
		{"inside", TradingHours{Enabled: true, StartHour: 9, EndHour: 18}, 12, true},
		{"end hour inclusive", TradingHours{Enabled: true, StartHour: 9, EndHour: 18}, 18, true},
		{"outside", TradingHours{Enabled: true, StartHour: 9, EndHour: 18}, 20, false},
		{"wraps midnight inside", TradingHours{Enabled: true, StartHour: 22, EndHour: 2}, 1, true},
		{"wraps midnight outside", TradingHours{Enabled: true, StartHour: 22, EndHour: 2}, 12, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hours.Allows(at(tt.hour)); got != tt.want {
				t.Errorf("Allows(%d) = %v, want %v", tt.hour, got, tt.want)
			}
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SYMBOL", "KRW-ETH")
	t.Setenv("CANDLE_COUNT", "120")
	t.Setenv("ENABLE_TRADE", "yes")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001234")
	t.Setenv("REQUEST_TIMEOUT", "not-a-number")
	t.Setenv("PAPER_ASSET", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Symbol != "KRW-ETH" || cfg.CandleCount != 120 || !cfg.EnableTrade {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.TelegramChatID != -1001234 {
		t.Errorf("TelegramChatID = %d, want -1001234", cfg.TelegramChatID)
	}
	if cfg.Timeout() != 10*time.Second {
		t.Errorf("Timeout() = %v, want default 10s", cfg.Timeout())
	}
	if cfg.PaperAsset != 0.5 || cfg.PaperBalance != 1000000 {
		t.Errorf("paper balance = %v fiat, %v asset", cfg.PaperBalance, cfg.PaperAsset)
	}
}

func TestShippedStrategyFile(t *testing.T) {
	s, err := LoadStrategy(filepath.Join("..", "..", "configs", "strategy.yaml"))
	if err != nil {
		t.Fatalf("LoadStrategy(configs/strategy.yaml) error = %v", err)
	}
	if s.AI.Weight != 500 || s.Trading.TradingInterval != 5*time.Minute || s.Trading.TradeWindow != 0 {
		t.Errorf("strategy = %+v", s)
	}
	if s.IndicatorWeights.Weight(model.CategoryRSI) != 1.5 || !s.IndicatorUsage.Enabled(model.CategoryKIMP) {
		t.Errorf("indicator maps = %v / %v", s.IndicatorWeights, s.IndicatorUsage)
	}
}
