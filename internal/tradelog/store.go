package tradelog

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gw/optlog/internal/trade"
)

// Store keeps the trade collection in a sqlite database.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	// WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the stored trades in saved order. NULL numbers come back as
// empty fields.
func (s *Store) Load(ctx context.Context) ([]trade.Raw, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticker, strategy, open_date, close_date, strike, premium,
			buyback, qty, commissions
		FROM trades ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer rows.Close()

	var results []trade.Raw
	for rows.Next() {
		var (
			r               trade.Raw
			id              string
			strike, premium sql.NullFloat64
			buyback, comm   float64
			qty             int64
		)
		if err := rows.Scan(&id, &r.Ticker, &r.Strategy, &r.OpenDate, &r.CloseDate,
			&strike, &premium, &buyback, &qty, &comm); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		r.ID = trade.Field(id)
		r.Strike = nullField(strike)
		r.Premium = nullField(premium)
		r.Buyback = floatField(buyback)
		r.Qty = trade.Field(strconv.FormatInt(qty, 10))
		r.Commissions = floatField(comm)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Save replaces every stored trade with records in one transaction.
func (s *Store) Save(ctx context.Context, records []trade.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM trades`); err != nil {
		return fmt.Errorf("clearing trades: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (position, id, ticker, strategy, open_date, close_date,
			strike, premium, buyback, qty, commissions, net, percent, saved_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, r := range records {
		if _, err := stmt.ExecContext(ctx,
			i, r.ID, r.Ticker, r.Strategy, r.OpenDate.String(), r.CloseDate.String(),
			nullable(r.Strike), nullable(r.Premium), finiteOrZero(r.Buyback), r.Qty,
			finiteOrZero(r.Commissions), nullable(r.Net), nullable(r.Percent), now,
		); err != nil {
			return fmt.Errorf("inserting trade %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// Count reports how many trades are stored.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&n)
	return n, err
}

func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func nullField(v sql.NullFloat64) trade.Field {
	if !v.Valid {
		return ""
	}
	return floatField(v.Float64)
}

func floatField(v float64) trade.Field {
	return trade.Field(strconv.FormatFloat(v, 'f', -1, 64))
}
