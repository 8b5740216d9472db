package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bopcli/pkg/contracts/domain"
)

// Runs against a live server when BOP_TEST_POSTGRES_URL is set
func TestStore_Integration(t *testing.T) {
	url := os.Getenv("BOP_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("BOP_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	s, err := New(ctx, Options{URL: url, MaxOpenConns: 2})
	require.NoError(t, err)
	defer s.Close()

	description := "test_" + time.Now().Format("20060102150405.000000")
	date := time.Date(2013, time.July, 1, 0, 0, 0, 0, time.UTC)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM economic_indicators WHERE description = $1`, description)
	})

	_, err = s.UpsertRecords(ctx, "run-1", []domain.Record{domain.NewRecord(description, date, 1)})
	require.NoError(t, err)
	n, err := s.UpsertRecords(ctx, "run-2", []domain.Record{domain.NewRecord(description, date, 2)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.ListRecords(ctx, description)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Value)
	assert.Equal(t, 2014, got[0].FiscalYear)
	assert.True(t, date.Equal(got[0].Date))
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.EqualError(t, err, "postgres: url is required")
}
