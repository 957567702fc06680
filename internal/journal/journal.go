package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Alias1177/BitTrader/internal/model"
)

// Kind tags each journal line
type Kind string

const (
	KindDecision Kind = "decision"
	KindTrade    Kind = "trade"
)

// Entry is one JSON line of the journal
type Entry struct {
	Kind     Kind               `json:"kind"`
	Decision *model.Decision    `json:"decision,omitempty"`
	Trade    *model.TradeRecord `json:"trade,omitempty"`
}

// Journal appends decisions and trades as JSON lines. Lines are never rewritten.
type Journal struct {
	mu   sync.Mutex
	path string
	file *os.File
	enc  *json.Encoder
}

// Open creates/opens the target file for appending
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Journal{
		path: path,
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// SaveDecision appends a decision line
func (j *Journal) SaveDecision(_ context.Context, d model.Decision) error {
	return j.write(Entry{Kind: KindDecision, Decision: &d})
}

// SaveTrade appends a trade line
func (j *Journal) SaveTrade(_ context.Context, t model.TradeRecord) error {
	return j.write(Entry{Kind: KindTrade, Trade: &t})
}

func (j *Journal) write(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return os.ErrClosed
	}
	return j.enc.Encode(e)
}

// RecentDecisions returns up to limit decisions for symbol, newest first
func (j *Journal) RecentDecisions(_ context.Context, symbol string, limit int) ([]model.Decision, error) {
	entries, err := ReadFile(j.path)
	if err != nil {
		return nil, err
	}
	var out []model.Decision
	for i := len(entries) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		e := entries[i]
		if e.Kind == KindDecision && e.Decision != nil && e.Decision.Symbol == symbol {
			out = append(out, *e.Decision)
		}
	}
	return out, nil
}

// Trades returns every trade for symbol in file order
func (j *Journal) Trades(_ context.Context, symbol string) ([]model.TradeRecord, error) {
	entries, err := ReadFile(j.path)
	if err != nil {
		return nil, err
	}
	var out []model.TradeRecord
	for _, e := range entries {
		if e.Kind == KindTrade && e.Trade != nil && e.Trade.Symbol == symbol {
			out = append(out, *e.Trade)
		}
	}
	return out, nil
}

// Close flushes and closes the file handle.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// ReadFile decodes every line of a journal. A missing file is an empty journal.
// A truncated last line, as left by a crash mid-write, is skipped.
func ReadFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var (
		entries []Entry
		bad     int
		line    int
	)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			bad = line
			continue
		}
		if bad != 0 {
			return nil, fmt.Errorf("journal %s: malformed line %d", path, bad)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
