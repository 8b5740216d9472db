package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	apperrors "bopcli/internal/errors"
	"bopcli/internal/files"
	"bopcli/internal/operations"
	"bopcli/internal/store"
	"bopcli/pkg/contracts/domain"
)

// Runner is the part of operations.Manager the service needs
type Runner interface {
	Run(ctx context.Context, req operations.RunRequest) (*operations.RunResult, error)
}

// ErrStoreDisabled is returned by StoredRecords when no database is configured
var ErrStoreDisabled = apperrors.New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "No database is configured")

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// RunService executes uploaded files and caches their results
type RunService struct {
	runner    Runner
	store     store.Store
	results   *cache.Cache
	uploadDir string
	logger    *slog.Logger
}

// NewRunService creates a run service. Results expire after ttl.
func NewRunService(runner Runner, st store.Store, uploadDir string, ttl time.Duration, logger *slog.Logger) *RunService {
	if logger == nil {
		logger = slog.Default()
	}
	if st == nil {
		st = store.NopStore{}
	}
	return &RunService{
		runner:    runner,
		store:     st,
		results:   cache.New(ttl, 2*ttl),
		uploadDir: uploadDir,
		logger:    logger.With(slog.String("service", "runs")),
	}
}

// Submit saves the upload and runs the pipeline on it. The result is cached
// under its run ID whether or not the run succeeded.
func (s *RunService) Submit(ctx context.Context, filename string, body io.Reader, narrate bool) (*operations.RunResult, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return nil, apperrors.ErrValidation("file", "a file name is required")
	}
	if !files.IsSupported(filename) {
		return nil, apperrors.ErrUnsupportedMedia
	}

	path, stem, err := s.saveUpload(filename, body)
	if err != nil {
		return nil, err
	}

	result, runErr := s.runner.Run(ctx, operations.RunRequest{Input: path, Name: stem, Narrate: narrate})
	if result != nil {
		s.results.Set(result.RunID, result, cache.DefaultExpiration)
	}
	if runErr != nil {
		s.logger.WarnContext(ctx, "run failed",
			slog.String("file", filename),
			slog.String("error", runErr.Error()))
		return result, classifyRunError(runErr)
	}
	return result, nil
}

// saveUpload copies body into the upload directory under a unique name and
// returns the path plus an export stem derived from the original name
func (s *RunService) saveUpload(filename string, body io.Reader) (string, string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", "", apperrors.NewStorageError("cannot create upload directory", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	base := unsafeName.ReplaceAllString(strings.TrimSuffix(filename, filepath.Ext(filename)), "_")
	stem := fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
	path := filepath.Join(s.uploadDir, stem+ext)

	f, err := os.Create(path)
	if err != nil {
		return "", "", apperrors.NewStorageError("cannot store upload", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return "", "", err
		}
		return "", "", apperrors.NewStorageError("cannot store upload", err)
	}
	if err := f.Close(); err != nil {
		return "", "", apperrors.NewStorageError("cannot store upload", err)
	}
	return path, stem, nil
}

// Get returns a cached run result
func (s *RunService) Get(id string) (*operations.RunResult, error) {
	v, ok := s.results.Get(id)
	if !ok {
		return nil, apperrors.ErrRunNotFound
	}
	return v.(*operations.RunResult), nil
}

// Records returns a cached run's records, optionally limited to one description
func (s *RunService) Records(id, description string) ([]domain.Record, error) {
	result, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return filterRecords(result.Records, description), nil
}

// StoredRecords reads persisted records across all runs
func (s *RunService) StoredRecords(ctx context.Context, description string) ([]domain.Record, error) {
	if !store.Enabled(s.store) {
		return nil, ErrStoreDisabled
	}
	records, err := s.store.ListRecords(ctx, description)
	if err != nil {
		return nil, apperrors.NewStorageError("cannot list records", err)
	}
	return records, nil
}

// Count returns the number of cached results
func (s *RunService) Count() int {
	return s.results.ItemCount()
}

func filterRecords(records []domain.Record, description string) []domain.Record {
	if description == "" {
		return records
	}
	out := make([]domain.Record, 0)
	for _, r := range records {
		if r.Description == description {
			out = append(out, r)
		}
	}
	return out
}

// classifyRunError maps a pipeline failure to an application error type by
// the step that failed
func classifyRunError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	step := operations.FailedStep(err)
	var appErr *apperrors.AppError
	switch {
	case operations.GetErrorType(err) == operations.ErrorTypeValidation:
		appErr = apperrors.NewAppValidationError(err.Error())
	case step == operations.StepPersist || step == operations.StepExport:
		appErr = apperrors.NewStorageError(step+" failed", err)
	case step == operations.StepNarrate:
		appErr = apperrors.NewNetworkError("narrative generation failed", err)
	default:
		appErr = apperrors.NewParsingError("input could not be processed", err)
	}
	return appErr.WithContext("step", step)
}
