package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Alias1177/BitTrader/internal/model"
)

func TestJournalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "decisions.jsonl")
	ctx := context.Background()

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, dir := range []model.Direction{model.DirectionBuy, model.DirectionHold, model.DirectionSell} {
		d := model.Decision{ID: string(dir), Symbol: "KRW-BTC", Direction: dir, Timestamp: base.Add(time.Duration(i) * time.Hour)}
		if err := j.SaveDecision(ctx, d); err != nil {
			t.Fatalf("SaveDecision error: %v", err)
		}
	}
	if err := j.SaveDecision(ctx, model.Decision{ID: "eth", Symbol: "KRW-ETH"}); err != nil {
		t.Fatalf("SaveDecision error: %v", err)
	}
	trade := model.TradeRecord{ID: "t1", Symbol: "KRW-BTC", Side: model.ActionBuy, Price: 100, Quantity: 2, Total: 200, DryRun: true}
	if err := j.SaveTrade(ctx, trade); err != nil {
		t.Fatalf("SaveTrade error: %v", err)
	}

	recent, err := j.RecentDecisions(ctx, "KRW-BTC", 2)
	if err != nil {
		t.Fatalf("RecentDecisions error: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "sell" || recent[1].ID != "hold" {
		t.Fatalf("RecentDecisions = %+v, want newest two BTC decisions", recent)
	}

	trades, err := j.Trades(ctx, "KRW-BTC")
	if err != nil {
		t.Fatalf("Trades error: %v", err)
	}
	if len(trades) != 1 || trades[0] != trade {
		t.Fatalf("Trades = %+v", trades)
	}

	if err := j.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := j.SaveTrade(ctx, trade); err == nil {
		t.Fatalf("SaveTrade after Close succeeded")
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	entries, err := ReadFile(filepath.Join(dir, "missing.jsonl"))
	if err != nil || len(entries) != 0 {
		t.Fatalf("ReadFile(missing) = %v, %v", entries, err)
	}

	truncated := filepath.Join(dir, "truncated.jsonl")
	content := `{"kind":"trade","trade":{"id":"a","symbol":"KRW-BTC","side":"buy"}}` + "\n" + `{"kind":"tra`
	if err := os.WriteFile(truncated, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err = ReadFile(truncated)
	if err != nil {
		t.Fatalf("ReadFile(truncated) error: %v", err)
	}
	if len(entries) != 1 || entries[0].Trade.ID != "a" {
		t.Fatalf("ReadFile(truncated) = %+v", entries)
	}

	corrupt := filepath.Join(dir, "corrupt.jsonl")
	content = "not json\n" + `{"kind":"trade","trade":{"id":"a"}}` + "\n"
	if err := os.WriteFile(corrupt, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(corrupt); err == nil {
		t.Fatalf("ReadFile(corrupt) error = nil")
	}
}
