package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/BitTrader/internal/config"
	"github.com/Alias1177/BitTrader/internal/database"
	"github.com/Alias1177/BitTrader/internal/journal"
	"github.com/Alias1177/BitTrader/internal/model"
	"github.com/Alias1177/BitTrader/internal/trading/ledger"
)

// history is the read side of the decision log
type history interface {
	RecentDecisions(ctx context.Context, symbol string, limit int) ([]model.Decision, error)
	Trades(ctx context.Context, symbol string) ([]model.TradeRecord, error)
}

func main() {
	limit := flag.Int("limit", 10, "number of recent decisions to print")
	useJournal := flag.Bool("journal", false, "read the journal file even when DB_HOST is set")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(zerolog.WarnLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var src history
	if cfg.DBHost != "" && !*useJournal {
		db, err := database.New(ctx, database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer db.Close()
		src = db
	} else {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open journal")
		}
		defer j.Close()
		src = j
	}

	decisions, err := src.RecentDecisions(ctx, cfg.Symbol, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read decisions")
	}
	trades, err := src.Trades(ctx, cfg.Symbol)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read trades")
	}

	printDecisions(cfg.Symbol, decisions)
	printStats(ledger.Compute(trades))
}

// printDecisions outputs the most recent decisions, newest first
func printDecisions(symbol string, decisions []model.Decision) {
	fmt.Printf("\n===== RECENT DECISIONS (%s) =====\n", symbol)
	if len(decisions) == 0 {
		fmt.Println("No decisions recorded")
		return
	}
	for _, d := range decisions {
		ai := ""
		if d.AIOpinion != nil {
			ai = fmt.Sprintf(" | AI %s %.0f%%", d.AIOpinion.Direction, d.AIOpinion.Confidence*100)
		}
		if d.AIError != "" {
			ai = " | AI error"
		}
		fmt.Printf("%s  %-5s %-8s conf %5.1f%%  avg %+.3f  price %.0f (%s)%s\n",
			d.Timestamp.Local().Format("2006-01-02 15:04"),
			d.Direction, d.DirectionLabel, d.Confidence*100, d.AvgSignalStrength,
			d.CurrentPrice, d.PriceChange24h, ai)
	}
}

// printStats outputs trade statistics
func printStats(st ledger.Stats) {
	fmt.Println("\n===== TRADE STATISTICS =====")
	if st.TotalTrades == 0 {
		fmt.Println("No trades recorded")
		return
	}

	fmt.Printf("Trades: %d (buy %d, sell %d, dry run %d)\n", st.TotalTrades, st.BuyCount, st.SellCount, st.DryRunCount)
	fmt.Printf("Bought: %.0f for %.8f units (avg order %.0f, avg price %.0f)\n",
		st.TotalBought, st.BoughtQty, st.AvgBuyAmount, st.AvgBuyPrice)
	fmt.Printf("Sold:   %.0f for %.8f units (avg order %.0f, avg price %.0f)\n",
		st.TotalSold, st.SoldQty, st.AvgSellAmount, st.AvgSellPrice)
	fmt.Printf("Net position: %.8f | Realized P&L: %.0f | Avg confidence: %.1f%%\n",
		st.NetQuantity, st.RealizedPnL, st.AvgConfidence*100)

	months := make([]string, 0, len(st.Monthly))
	for m := range st.Monthly {
		months = append(months, m)
	}
	sort.Strings(months)
	if len(months) > 0 {
		fmt.Println("\nMonthly:")
		for _, m := range months {
			ms := st.Monthly[m]
			fmt.Printf("  %s  buy %d  sell %d  volume %.0f\n", m, ms.Buys, ms.Sells, ms.Volume)
		}
	}

	if st.LastTrade != nil {
		t := st.LastTrade
		mode := "live"
		if t.DryRun {
			mode = "dry run"
		}
		fmt.Printf("\nLast trade: %s %s %.8f @ %.0f (%s, %s)\n",
			t.Timestamp.Local().Format("2006-01-02 15:04"), strings.ToUpper(string(t.Side)),
			t.Quantity, t.Price, mode, t.Symbol)
	}
}
