package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bopcli/internal/dataprocessing"
	apperrors "bopcli/internal/errors"
	"bopcli/internal/files"
	"bopcli/internal/operations"
	"bopcli/internal/store"
	"bopcli/pkg/contracts/domain"
)

const wideCSV = "Description,Jul-13,Aug-13\n" +
	"Exports of goods fob,100,105\n" +
	"Imports of goods fob,60,65\n"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type listStore struct {
	records []domain.Record
	err     error
	filter  string
}

func (s *listStore) UpsertRecords(_ context.Context, _ string, records []domain.Record) (int, error) {
	return len(records), nil
}

func (s *listStore) ListRecords(_ context.Context, description string) ([]domain.Record, error) {
	s.filter = description
	return s.records, s.err
}

func (s *listStore) Close() error { return nil }

func newTestRunService(t *testing.T, st store.Store) (*RunService, string) {
	t.Helper()
	logger := quietLogger()
	registry, err := operations.NewPipeline(operations.Dependencies{
		Loader:     files.NewLoader("", logger),
		Normalizer: dataprocessing.NewNormalizer(logger, dataprocessing.DefaultNormalizerOptions()),
		Engine:     dataprocessing.NewEngine(nil, logger),
		Store:      st,
	})
	require.NoError(t, err)

	uploadDir := filepath.Join(t.TempDir(), "uploads")
	manager := operations.NewManager(registry, nil, 2, logger)
	return NewRunService(manager, st, uploadDir, time.Minute, logger), uploadDir
}

func TestRunService_SubmitCachesResult(t *testing.T) {
	svc, uploadDir := newTestRunService(t, nil)

	result, err := svc.Submit(context.Background(), "Q3 report.csv", strings.NewReader(wideCSV), false)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, operations.RunStatusCompleted, result.Status)
	assert.NotZero(t, result.RecordCount)

	assert.True(t, strings.HasPrefix(filepath.Base(result.Input), "Q3_report-"))
	assert.Equal(t, uploadDir, filepath.Dir(result.Input))
	_, statErr := os.Stat(result.Input)
	assert.NoError(t, statErr)

	cached, err := svc.Get(result.RunID)
	require.NoError(t, err)
	assert.Same(t, result, cached)
	assert.Equal(t, 1, svc.Count())
}

func TestRunService_Records(t *testing.T) {
	svc, _ := newTestRunService(t, nil)

	result, err := svc.Submit(context.Background(), "bop.csv", strings.NewReader(wideCSV), false)
	require.NoError(t, err)

	all, err := svc.Records(result.RunID, "")
	require.NoError(t, err)
	assert.Len(t, all, result.RecordCount)

	exports, err := svc.Records(result.RunID, "Exports of goods fob")
	require.NoError(t, err)
	require.Len(t, exports, 2)
	for _, r := range exports {
		assert.Equal(t, "Exports of goods fob", r.Description)
	}

	none, err := svc.Records(result.RunID, "No such line")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRunService_GetUnknown(t *testing.T) {
	svc, _ := newTestRunService(t, nil)

	_, err := svc.Get("missing")
	assert.ErrorIs(t, err, apperrors.ErrRunNotFound)

	_, err = svc.Records("missing", "")
	assert.ErrorIs(t, err, apperrors.ErrRunNotFound)
}

func TestRunService_SubmitRejectsUnsupported(t *testing.T) {
	svc, _ := newTestRunService(t, nil)

	_, err := svc.Submit(context.Background(), "notes.txt", strings.NewReader("hello"), false)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedMedia)

	_, err = svc.Submit(context.Background(), "  ", strings.NewReader(""), false)
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, 0, svc.Count())
}

func TestRunService_SubmitParsingFailure(t *testing.T) {
	svc, _ := newTestRunService(t, nil)

	result, err := svc.Submit(context.Background(), "bad.csv", strings.NewReader("Description,Notes\nExports of goods fob,n/a\n"), false)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, operations.StepNormalize, appErr.Context["step"])

	require.NotNil(t, result)
	assert.Equal(t, operations.RunStatusFailed, result.Status)
	cached, getErr := svc.Get(result.RunID)
	require.NoError(t, getErr)
	assert.Equal(t, operations.RunStatusFailed, cached.Status)
}

func TestRunService_SubmitBodyTooLarge(t *testing.T) {
	svc, uploadDir := newTestRunService(t, nil)

	body := http.MaxBytesReader(nil, io.NopCloser(strings.NewReader(wideCSV)), 10)
	_, err := svc.Submit(context.Background(), "bop.csv", body, false)
	var maxErr *http.MaxBytesError
	require.ErrorAs(t, err, &maxErr)

	entries, readErr := os.ReadDir(uploadDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestRunService_StoredRecords(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		svc, _ := newTestRunService(t, nil)
		_, err := svc.StoredRecords(context.Background(), "")
		assert.ErrorIs(t, err, ErrStoreDisabled)
	})

	t.Run("enabled", func(t *testing.T) {
		st := &listStore{records: []domain.Record{
			domain.NewRecord("Exports of goods fob", time.Date(2013, 7, 1, 0, 0, 0, 0, time.UTC), 100),
		}}
		svc, _ := newTestRunService(t, st)
		records, err := svc.StoredRecords(context.Background(), "Exports of goods fob")
		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.Equal(t, "Exports of goods fob", st.filter)
	})

	t.Run("failure", func(t *testing.T) {
		st := &listStore{err: errors.New("connection refused")}
		svc, _ := newTestRunService(t, st)
		_, err := svc.StoredRecords(context.Background(), "")
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	})
}

func TestClassifyRunError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.ErrorType
	}{
		{"validation", operations.NewValidationError(operations.StepLoad, "input is required"), apperrors.ErrTypeValidation},
		{"load", operations.NewExecutionError(operations.StepLoad, errors.New("bad file")), apperrors.ErrTypeParsing},
		{"persist", operations.NewExecutionError(operations.StepPersist, errors.New("db down")), apperrors.ErrTypeStorage},
		{"export", operations.NewExecutionError(operations.StepExport, errors.New("disk full")), apperrors.ErrTypeStorage},
		{"narrate", operations.NewExecutionError(operations.StepNarrate, errors.New("timeout")), apperrors.ErrTypeNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, apperrors.IsType(classifyRunError(tt.err), tt.want))
		})
	}

	cancelled := operations.NewExecutionError(operations.StepDerive, context.Canceled)
	assert.ErrorIs(t, classifyRunError(cancelled), context.Canceled)
}
