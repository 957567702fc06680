package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Alias1177/BitTrader/internal/model"
)

// SignalStrengths holds the strength assigned to each indicator regime
type SignalStrengths struct {
	MACrossover      float64 `yaml:"ma_crossover" default:"0.45" validate:"gte=0,lte=1"`
	MALongTrend      float64 `yaml:"ma_long_trend" default:"0.30" validate:"gte=0,lte=1"`
	BBExtreme        float64 `yaml:"bb_extreme" default:"0.75" validate:"gte=0,lte=1"`
	BBMiddle         float64 `yaml:"bb_middle" default:"0.30" validate:"gte=0,lte=1"`
	RSIExtreme       float64 `yaml:"rsi_extreme" default:"0.90" validate:"gte=0,lte=1"`
	RSIMiddle        float64 `yaml:"rsi_middle" default:"0.35" validate:"gte=0,lte=1"`
	MACDCrossover    float64 `yaml:"macd_crossover" default:"0.85" validate:"gte=0,lte=1"`
	MACDTrend        float64 `yaml:"macd_trend" default:"0.40" validate:"gte=0,lte=1"`
	StochExtreme     float64 `yaml:"stoch_extreme" default:"0.70" validate:"gte=0,lte=1"`
	StochMiddle      float64 `yaml:"stoch_middle" default:"0.30" validate:"gte=0,lte=1"`
	FearGreedExtreme float64 `yaml:"fear_greed_extreme" default:"0.85" validate:"gte=0,lte=1"`
	FearGreedMiddle  float64 `yaml:"fear_greed_middle" default:"0.50" validate:"gte=0,lte=1"`
}

// Weights maps a signal category to its fusion weight
type Weights map[model.Category]float64

// Weight returns the configured weight, or 1.0 when missing or not positive
func (w Weights) Weight(c model.Category) float64 {
	if v, ok := w[c]; ok && v > 0 {
		return v
	}
	return 1.0
}

// Usage maps a signal category to whether it is enabled
type Usage map[model.Category]bool

// Enabled reports whether the category is enabled; missing categories are enabled
func (u Usage) Enabled(c model.Category) bool {
	if v, ok := u[c]; ok {
		return v
	}
	return true
}

// DecisionThresholds split the fused average into buy, hold and sell
type DecisionThresholds struct {
	BuyThreshold  float64 `yaml:"buy_threshold" default:"0.05" validate:"gtfield=SellThreshold,lte=1"`
	SellThreshold float64 `yaml:"sell_threshold" default:"-0.05" validate:"gte=-1"`
}

// InvestmentRatios bound the share of balance committed to one order
type InvestmentRatios struct {
	MinRatio float64 `yaml:"min_ratio" default:"0.2" validate:"gte=0,lte=1"`
	MaxRatio float64 `yaml:"max_ratio" default:"0.7" validate:"gtefield=MinRatio,lte=1"`
}

// TradingHours restricts order placement to [StartHour, EndHour] local time
type TradingHours struct {
	Enabled   bool `yaml:"enabled"`
	StartHour int  `yaml:"start_hour" validate:"gte=0,lte=23"`
	EndHour   int  `yaml:"end_hour" default:"23" validate:"gte=0,lte=23"`
}

// Allows reports whether orders may be placed at t
func (h TradingHours) Allows(t time.Time) bool {
	if !h.Enabled {
		return true
	}
	hour := t.Hour()
	if h.StartHour <= h.EndHour {
		return hour >= h.StartHour && hour <= h.EndHour
	}
	// window wraps midnight
	return hour >= h.StartHour || hour <= h.EndHour
}

// TradingSettings control order placement and the analysis loop
type TradingSettings struct {
	MinOrderAmount  float64       `yaml:"min_order_amount" default:"5000" validate:"gt=0"`
	TradingInterval time.Duration `yaml:"trading_interval" default:"5m" validate:"gt=0"`
	TradeCooldown   time.Duration `yaml:"trade_cooldown" default:"5m" validate:"gte=0"`
	TradeWindow     time.Duration `yaml:"trade_window" validate:"gte=0"`
	TickCount       int           `yaml:"tick_count" default:"100" validate:"gt=0,lte=500"`
	TradingHours    TradingHours  `yaml:"trading_hours"`
}

// AISettings control how the AI opinion is combined with the local decision
type AISettings struct {
	UseAI             bool          `yaml:"use_ai" default:"true"`
	Weight            float64       `yaml:"weight" default:"500" validate:"gte=0"`
	ConfidenceBoost   float64       `yaml:"confidence_boost" validate:"gte=0,lte=1"`
	AIPrimaryDecision bool          `yaml:"ai_primary_decision" default:"true"`
	OverrideReasoning bool          `yaml:"override_reasoning" default:"true"`
	Timeout           time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
}

// NotificationSettings control what is pushed to the chat
type NotificationSettings struct {
	Enabled                bool    `yaml:"enabled" default:"true"`
	NotifyOnTrade          bool    `yaml:"notify_on_trade" default:"true"`
	NotifyOnSignal         bool    `yaml:"notify_on_signal" default:"true"`
	NotifyOnError          bool    `yaml:"notify_on_error" default:"true"`
	MinConfidenceForSignal float64 `yaml:"min_confidence_for_signal" default:"0.8" validate:"gte=0,lte=1"`
}

// Strategy holds every tunable of the decision pipeline
type Strategy struct {
	SignalStrengths  SignalStrengths      `yaml:"signal_strengths"`
	IndicatorWeights Weights              `yaml:"indicator_weights" validate:"dive,gte=0"`
	IndicatorUsage   Usage                `yaml:"indicator_usage"`
	Thresholds       DecisionThresholds   `yaml:"decision_thresholds"`
	Investment       InvestmentRatios     `yaml:"investment_ratios"`
	Trading          TradingSettings      `yaml:"trading_settings"`
	AI               AISettings           `yaml:"ai_settings"`
	Notifications    NotificationSettings `yaml:"notification_settings"`
}

// SetDefaults fills the category maps; called by defaults.Set
func (s *Strategy) SetDefaults() {
	if s.IndicatorWeights == nil {
		s.IndicatorWeights = Weights{}
	}
	for c, w := range defaultWeights {
		if _, ok := s.IndicatorWeights[c]; !ok {
			s.IndicatorWeights[c] = w
		}
	}
	if s.IndicatorUsage == nil {
		s.IndicatorUsage = Usage{}
	}
	for _, c := range model.Categories {
		if _, ok := s.IndicatorUsage[c]; !ok {
			s.IndicatorUsage[c] = true
		}
	}
}

var defaultWeights = Weights{
	model.CategoryMA:         0.8,
	model.CategoryMA60:       0.7,
	model.CategoryBB:         1.3,
	model.CategoryRSI:        1.5,
	model.CategoryMACD:       1.5,
	model.CategoryStochastic: 1.3,
	model.CategoryOrderbook:  1.1,
	model.CategoryTrades:     0.9,
	model.CategoryKIMP:       1.2,
	model.CategoryFearGreed:  1.4,
}

var validate = validator.New()

// DefaultStrategy returns the built-in strategy
func DefaultStrategy() Strategy {
	var s Strategy
	if err := defaults.Set(&s); err != nil {
		// tags are static, a failure here is a programming error
		panic(fmt.Sprintf("strategy defaults: %v", err))
	}
	return s
}

// LoadStrategy reads the strategy file at path on top of the defaults.
// A missing file yields the defaults; an invalid one is an error.
func LoadStrategy(path string) (Strategy, error) {
	s := DefaultStrategy()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("path", path).Msg("Strategy file not found, using defaults")
			return s, nil
		}
		return Strategy{}, fmt.Errorf("read strategy file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return Strategy{}, fmt.Errorf("parse strategy file: %w", err)
	}
	// keys the file did not mention keep their defaults
	s.SetDefaults()

	if err := s.Validate(); err != nil {
		return Strategy{}, err
	}
	return s, nil
}

// Validate checks ranges and cross-field constraints
func (s Strategy) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid strategy: %w", err)
	}
	return nil
}
