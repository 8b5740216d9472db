package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bopcli/pkg/contracts/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "bop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func day(s string) time.Time {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestStore_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	records := []domain.Record{
		domain.NewRecord("balance_on_goods", day("2013-08-01"), 15),
		domain.NewRecord("balance_on_goods", day("2013-07-01"), 20),
		domain.NewRecord("Exports of goods fob", day("2013-07-01"), 100),
	}
	n, err := s.UpsertRecords(ctx, "run-1", records)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := s.ListRecords(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []domain.Record{records[2], records[1], records[0]}, all)

	goods, err := s.ListRecords(ctx, "balance_on_goods")
	require.NoError(t, err)
	require.Len(t, goods, 2)
	assert.Equal(t, 2014, goods[0].FiscalYear)
}

func TestStore_UpsertReplacesValue(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.UpsertRecords(ctx, "run-1", []domain.Record{domain.NewRecord("gdp", day("2014-01-01"), 1000)})
	require.NoError(t, err)
	_, err = s.UpsertRecords(ctx, "run-2", []domain.Record{domain.NewRecord("gdp", day("2014-01-01"), 1200)})
	require.NoError(t, err)

	got, err := s.ListRecords(ctx, "gdp")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1200.0, got[0].Value)

	var runID string
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT run_id FROM economic_indicators`).Scan(&runID))
	assert.Equal(t, "run-2", runID)
}

func TestStore_Empty(t *testing.T) {
	s := newTestStore(t)

	n, err := s.UpsertRecords(context.Background(), "run-1", nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := s.ListRecords(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(context.Background(), "")
	assert.Error(t, err)
}

func TestStore_CloseNil(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close())
}
