// Package store persists indicator records. Implementations live in the
// sqlite and postgres subpackages; Open selects one from configuration.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bopcli/internal/config"
	"bopcli/internal/store/postgres"
	"bopcli/internal/store/sqlite"
	"bopcli/pkg/contracts/domain"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name
var ErrUnknownDriver = errors.New("unknown database driver")

// Store is the persistence sink for canonical records. Upserts are keyed by
// (description, date); a later run replaces an earlier value.
type Store interface {
	UpsertRecords(ctx context.Context, runID string, records []domain.Record) (int, error)
	ListRecords(ctx context.Context, description string) ([]domain.Record, error)
	Close() error
}

// NopStore discards writes and reads nothing
type NopStore struct{}

// UpsertRecords reports zero rows written
func (NopStore) UpsertRecords(context.Context, string, []domain.Record) (int, error) {
	return 0, nil
}

// ListRecords returns no records
func (NopStore) ListRecords(context.Context, string) ([]domain.Record, error) {
	return nil, nil
}

// Close is a no-op
func (NopStore) Close() error {
	return nil
}

// Enabled reports whether s persists anything
func Enabled(s Store) bool {
	if s == nil {
		return false
	}
	_, nop := s.(NopStore)
	return !nop
}

// Open returns the store selected by cfg.Driver
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case "", config.DriverNone:
		return NopStore{}, nil
	case config.DriverSQLite:
		s, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.InfoContext(ctx, "store opened", slog.String("driver", cfg.Driver), slog.String("path", cfg.SQLitePath))
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.New(ctx, postgres.Options{
			URL:             cfg.PostgresURL,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		logger.InfoContext(ctx, "store opened", slog.String("driver", cfg.Driver))
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
