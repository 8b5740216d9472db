package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"bopcli/pkg/contracts/domain"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) UpsertRecords(ctx context.Context, runID string, records []domain.Record) (n int, err error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO economic_indicators (
			description, date, value, fiscal_year, run_id, ingested_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(description, date)
		DO UPDATE SET
			value = excluded.value,
			fiscal_year = excluded.fiscal_year,
			run_id = excluded.run_id,
			ingested_at = excluded.ingested_at
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range records {
		if _, err = stmt.ExecContext(ctx,
			rec.Description,
			rec.Date.Format(domain.DateLayout),
			rec.Value,
			rec.FiscalYear,
			runID,
			now,
		); err != nil {
			return 0, fmt.Errorf("upsert %s %s: %w", rec.Description, rec.Date.Format(domain.DateLayout), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ListRecords returns stored records ordered by date then description. An
// empty description lists everything.
func (s *Store) ListRecords(ctx context.Context, description string) ([]domain.Record, error) {
	query := `SELECT description, date, value, fiscal_year FROM economic_indicators`
	var args []any
	if description != "" {
		query += ` WHERE description = ?`
		args = append(args, description)
	}
	query += ` ORDER BY date, description`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var (
			rec  domain.Record
			date string
		)
		if err := rows.Scan(&rec.Description, &date, &rec.Value, &rec.FiscalYear); err != nil {
			return nil, err
		}
		rec.Date, err = time.Parse(domain.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS economic_indicators (
			description TEXT NOT NULL,
			date TEXT NOT NULL,
			value REAL NOT NULL,
			fiscal_year INTEGER NOT NULL,
			run_id TEXT NOT NULL,
			ingested_at TEXT NOT NULL,
			PRIMARY KEY (description, date)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_economic_indicators_fiscal_year
			ON economic_indicators (fiscal_year);`,
	}

	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return err
		}
	}

	return nil
}
