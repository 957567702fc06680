package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/BitTrader/internal/analysis/arbiter"
	"github.com/Alias1177/BitTrader/internal/api/binance"
	"github.com/Alias1177/BitTrader/internal/api/feargreed"
	"github.com/Alias1177/BitTrader/internal/api/openai"
	"github.com/Alias1177/BitTrader/internal/api/upbit"
	"github.com/Alias1177/BitTrader/internal/config"
	"github.com/Alias1177/BitTrader/internal/database"
	"github.com/Alias1177/BitTrader/internal/journal"
	"github.com/Alias1177/BitTrader/internal/metrics"
	"github.com/Alias1177/BitTrader/internal/notify"
	"github.com/Alias1177/BitTrader/internal/trading/engine"
)

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	setupSignalHandling(cancel)

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting BitTrader")

	strategy, err := config.LoadStrategy(cfg.StrategyFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.StrategyFile).Msg("Failed to load strategy")
	}

	// 3. Print configuration
	printConfig(cfg, strategy)

	// 4. Setup API clients
	exchange := upbit.NewClient(upbit.ClientOptions{
		AccessKey:      cfg.UpbitAccessKey,
		SecretKey:      cfg.UpbitSecretKey,
		RequestTimeout: cfg.Timeout(),
		MaxRetries:     3,
	})
	premium := binance.NewClient(binance.ClientOptions{
		FallbackFXRate: cfg.FXFallbackRate,
		RequestTimeout: cfg.Timeout(),
	})
	sentiment := feargreed.NewClient("", cfg.Timeout())

	var provider arbiter.OpinionProvider
	if cfg.OpenAIAPIKey != "" {
		provider = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else if strategy.AI.UseAI {
		log.Warn().Msg("OPENAI_API_KEY not set, AI arbitration disabled")
	}

	// 5. Decision log
	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	// 6. Notifications and metrics
	var sender notify.Sender
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn().Err(err).Msg("Telegram notifications disabled")
		} else {
			sender = tg
		}
	}

	recorder := metrics.New(nil)
	if cfg.MetricsAddr != "" {
		srv := metrics.Serve(cfg.MetricsAddr, nil)
		defer srv.Close()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("Metrics endpoint started")
	}

	// 7. Run the trading loop
	eng, err := engine.New(engine.Options{
		Symbol:         cfg.Symbol,
		ForeignSymbol:  binance.ForeignSymbol(cfg.Symbol),
		Interval:       cfg.Interval,
		CandleCount:    cfg.CandleCount,
		RequestTimeout: cfg.Timeout(),
		EnableTrade:    cfg.EnableTrade,
		PaperBalance:   cfg.PaperBalance,
		PaperAsset:     cfg.PaperAsset,
		Exchange:       exchange,
		Premium:        premium,
		Sentiment:      sentiment,
		AI:             provider,
		Store:          store,
		Notifier:       notify.New(strategy.Notifications, sender),
		Metrics:        recorder,
	}, strategy)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create engine")
	}

	if err := eng.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Trading loop exited with error")
	}
	log.Info().Msg("BitTrader stopped")
}

// openStore connects to Postgres when DB_HOST is set and falls back to the JSONL journal
func openStore(ctx context.Context, cfg *config.Config) (engine.Store, func()) {
	if cfg.DBHost != "" {
		dbCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
		defer cancel()

		db, err := database.New(dbCtx, database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err == nil {
			log.Info().Str("host", cfg.DBHost).Msg("Recording decisions to PostgreSQL")
			return db, func() { db.Close() }
		}
		log.Warn().Err(err).Msg("Database unavailable, falling back to journal file")
	}

	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.JournalPath).Msg("Failed to open journal")
	}
	log.Info().Str("path", cfg.JournalPath).Msg("Recording decisions to journal file")
	return j, func() { j.Close() }
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, finishing current cycle...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	// Set log level from config
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config, strategy config.Strategy) {
	log.Info().
		Str("Symbol", cfg.Symbol).
		Str("Interval", cfg.Interval).
		Int("CandleCount", cfg.CandleCount).
		Bool("EnableTrade", cfg.EnableTrade).
		Str("StrategyFile", cfg.StrategyFile).
		Float64("BuyThreshold", strategy.Thresholds.BuyThreshold).
		Float64("SellThreshold", strategy.Thresholds.SellThreshold).
		Float64("MinRatio", strategy.Investment.MinRatio).
		Float64("MaxRatio", strategy.Investment.MaxRatio).
		Float64("MinOrderAmount", strategy.Trading.MinOrderAmount).
		Dur("TradingInterval", strategy.Trading.TradingInterval).
		Bool("UseAI", strategy.AI.UseAI).
		Bool("AIPrimaryDecision", strategy.AI.AIPrimaryDecision).
		Msg("Configuration loaded")
}
