// Package postgres stores indicator records in PostgreSQL through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"bopcli/pkg/contracts/domain"
)

// Options configures the connection pool
type Options struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store is a PostgreSQL-backed record store
type Store struct {
	db *sql.DB
}

// New connects, verifies the connection and creates the schema if needed
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.URL == "" {
		return nil, errors.New("postgres: url is required")
	}

	db, err := sql.Open("postgres", opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

// NewWithDB wraps an existing connection; the caller owns the schema
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the connection pool
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const upsertQuery = `
	INSERT INTO economic_indicators (description, date, value, fiscal_year, run_id, ingested_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (description, date) DO UPDATE SET
		value = EXCLUDED.value,
		fiscal_year = EXCLUDED.fiscal_year,
		run_id = EXCLUDED.run_id,
		ingested_at = EXCLUDED.ingested_at
`

// UpsertRecords writes records in one transaction
func (s *Store) UpsertRecords(ctx context.Context, runID string, records []domain.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.Description, rec.Date, rec.Value, rec.FiscalYear, runID, now); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) {
				return 0, fmt.Errorf("failed to upsert %s: %s (%s)", rec.Description, pqErr.Message, pqErr.Code.Name())
			}
			return 0, fmt.Errorf("failed to upsert %s: %w", rec.Description, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return len(records), nil
}

// ListRecords returns stored records ordered by date then description. An
// empty description lists everything.
func (s *Store) ListRecords(ctx context.Context, description string) ([]domain.Record, error) {
	query := `SELECT description, date, value, fiscal_year FROM economic_indicators`
	var args []any
	if description != "" {
		query += ` WHERE description = $1`
		args = append(args, description)
	}
	query += ` ORDER BY date, description`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.Description, &rec.Date, &rec.Value, &rec.FiscalYear); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Date = domain.TruncateDay(rec.Date)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS economic_indicators (
			description TEXT NOT NULL,
			date DATE NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			fiscal_year INTEGER NOT NULL,
			run_id TEXT NOT NULL,
			ingested_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (description, date)
		)`)
	return err
}
