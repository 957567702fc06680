package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds process-level settings read from the environment
type Config struct {
	Symbol         string
	Interval       string
	CandleCount    int
	LogLevel       string
	RequestTimeout int // seconds
	EnableTrade    bool
	StrategyFile   string
	MetricsAddr    string
	JournalPath    string
	FXFallbackRate float64
	PaperBalance   float64
	PaperAsset     float64

	UpbitAccessKey string
	UpbitSecretKey string

	OpenAIAPIKey string
	OpenAIModel  string

	TelegramBotToken string
	TelegramChatID   int64

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.Symbol = getEnvWithDefault("SYMBOL", "KRW-BTC")
	cfg.Interval = getEnvWithDefault("INTERVAL", "minute60")
	cfg.CandleCount = getEnvIntWithDefault("CANDLE_COUNT", 200)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 10)
	cfg.EnableTrade = getEnvBoolWithDefault("ENABLE_TRADE", false)
	cfg.StrategyFile = getEnvWithDefault("STRATEGY_FILE", "configs/strategy.yaml")
	cfg.MetricsAddr = getEnvWithDefault("METRICS_ADDR", ":9102")
	cfg.JournalPath = getEnvWithDefault("JOURNAL_PATH", "logs/decisions.jsonl")
	cfg.FXFallbackRate = getEnvFloatWithDefault("FX_FALLBACK_RATE", 1350)
	cfg.PaperBalance = getEnvFloatWithDefault("PAPER_BALANCE", 1000000)
	cfg.PaperAsset = getEnvFloatWithDefault("PAPER_ASSET", 0)

	cfg.UpbitAccessKey = os.Getenv("UPBIT_ACCESS_KEY")
	cfg.UpbitSecretKey = os.Getenv("UPBIT_SECRET_KEY")

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = getEnvWithDefault("OPENAI_MODEL", "gpt-4o")

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = int64(getEnvIntWithDefault("TELEGRAM_CHAT_ID", 0))

	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = os.Getenv("DB_USER")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "bittrader")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	return &cfg, nil
}

// Timeout returns the per-request timeout
func (c *Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
