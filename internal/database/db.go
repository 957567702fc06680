package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/Alias1177/BitTrader/internal/model"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the lib/pq connection string
func (p ConnectionParams) DSN() string {
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, sslMode,
	)
}

// New creates a new database connection
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	db, err := sql.Open("postgres", params.DSN())
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS decisions (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			decision TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			avg_signal_strength DOUBLE PRECISION NOT NULL,
			current_price DOUBLE PRECISION NOT NULL,
			ai_error TEXT,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			quantity DOUBLE PRECISION NOT NULL,
			total DOUBLE PRECISION NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			order_id TEXT,
			dry_run BOOLEAN NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, _ = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS trades_symbol_created_idx ON trades (symbol, created_at)`)
	return nil
}

// SaveDecision appends a decision to the log
func (db *DB) SaveDecision(ctx context.Context, d model.Decision) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding decision: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO decisions (
			id, symbol, decision, confidence, avg_signal_strength, current_price, ai_error, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`,
		d.ID, d.Symbol, string(d.Direction), d.Confidence, d.AvgSignalStrength, d.CurrentPrice,
		nullString(d.AIError), payload, d.Timestamp)
	return err
}

// SaveTrade appends a trade record
func (db *DB) SaveTrade(ctx context.Context, t model.TradeRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO trades (
			id, symbol, side, price, quantity, total, confidence, order_id, dry_run, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`,
		t.ID, t.Symbol, string(t.Side), t.Price, t.Quantity, t.Total, t.Confidence,
		nullString(t.OrderID), t.DryRun, t.Timestamp)
	return err
}

// RecentDecisions returns up to limit decisions for symbol, newest first
func (db *DB) RecentDecisions(ctx context.Context, symbol string, limit int) ([]model.Decision, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT payload
		FROM decisions
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Decision
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var d model.Decision
		if err := json.Unmarshal(payload, &d); err != nil {
			return nil, fmt.Errorf("decoding decision: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Trades returns every trade for symbol in execution order
func (db *DB) Trades(ctx context.Context, symbol string) ([]model.TradeRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, symbol, side, price, quantity, total, confidence, order_id, dry_run, created_at
		FROM trades
		WHERE symbol = $1
		ORDER BY created_at ASC
	`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TradeRecord
	for rows.Next() {
		var (
			t       model.TradeRecord
			side    string
			orderID sql.NullString
		)
		if err := rows.Scan(
			&t.ID, &t.Symbol, &side, &t.Price, &t.Quantity, &t.Total, &t.Confidence,
			&orderID, &t.DryRun, &t.Timestamp,
		); err != nil {
			return nil, err
		}
		t.Side = model.TradeAction(side)
		if orderID.Valid {
			t.OrderID = orderID.String
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
