package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "bopcli/internal/errors"
	"bopcli/internal/operations"
	"bopcli/pkg/contracts/domain"
)

// RunService is the run surface the handler drives
type RunService interface {
	Submit(ctx context.Context, filename string, body io.Reader, narrate bool) (*operations.RunResult, error)
	Get(id string) (*operations.RunResult, error)
	Records(id, description string) ([]domain.Record, error)
	StoredRecords(ctx context.Context, description string) ([]domain.Record, error)
}

// RunsHandler handles pipeline run requests
type RunsHandler struct {
	service        RunService
	errorHandler   *apperrors.ErrorHandler
	maxUploadBytes int64
	submitLimit    func(http.Handler) http.Handler
	logger         *slog.Logger
}

// NewRunsHandler creates a runs handler. Uploads larger than maxUploadBytes
// are rejected with 413.
func NewRunsHandler(service RunService, errorHandler *apperrors.ErrorHandler, maxUploadBytes int64, logger *slog.Logger) *RunsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apperrors.NewErrorHandler(logger, false)
	}
	return &RunsHandler{
		service:        service,
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "runs")),
	}
}

// WithSubmitLimit wraps run submission in mw, typically a rate limiter
func (h *RunsHandler) WithSubmitLimit(mw func(http.Handler) http.Handler) *RunsHandler {
	h.submitLimit = mw
	return h
}

// Routes returns the /runs routes
func (h *RunsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	submit := http.Handler(http.HandlerFunc(h.CreateRun))
	if h.submitLimit != nil {
		submit = h.submitLimit(submit)
	}
	r.Method(http.MethodPost, "/", submit)
	r.Get("/{id}", h.GetRun)
	r.Get("/{id}/records", h.GetRunRecords)
	return r
}

// RecordsResponse lists records with their count
type RecordsResponse struct {
	RunID       string          `json:"run_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Count       int             `json:"count"`
	Records     []domain.Record `json:"records"`
}

// CreateRun handles POST /api/v1/runs with a multipart "file" field and an
// optional "narrate" flag
func (h *RunsHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			h.errorHandler.HandleError(w, r, err)
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			h.errorHandler.HandleError(w, r, apperrors.ErrValidation("file", "a multipart file field named \"file\" is required"))
		default:
			h.errorHandler.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		}
		return
	}
	defer file.Close()

	narrate := false
	if v := r.FormValue("narrate"); v != "" {
		narrate, err = strconv.ParseBool(v)
		if err != nil {
			h.errorHandler.HandleError(w, r, apperrors.ErrValidation("narrate", "must be a boolean"))
			return
		}
	}

	result, err := h.service.Submit(r.Context(), header.Filename, file, narrate)
	if err != nil {
		if result != nil {
			h.logger.InfoContext(r.Context(), "run finished with error",
				slog.String("run_id", result.RunID),
				slog.String("failed_step", result.FailedStep))
		}
		h.errorHandler.HandleError(w, r, withRunID(err, result))
		return
	}

	w.Header().Set("Location", r.URL.Path+"/"+result.RunID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// GetRun handles GET /api/v1/runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// GetRunRecords handles GET /api/v1/runs/{id}/records?description=
func (h *RunsHandler) GetRunRecords(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	description := r.URL.Query().Get("description")

	records, err := h.service.Records(id, description)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, RecordsResponse{RunID: id, Description: description, Count: len(records), Records: records})
}

// ListStoredRecords handles GET /api/v1/records?description=
func (h *RunsHandler) ListStoredRecords(w http.ResponseWriter, r *http.Request) {
	description := r.URL.Query().Get("description")

	records, err := h.service.StoredRecords(r.Context(), description)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.Record{}
	}
	render.JSON(w, r, RecordsResponse{Description: description, Count: len(records), Records: records})
}

// withRunID tags an application error with the failed run so clients can
// fetch its partial result
func withRunID(err error, result *operations.RunResult) error {
	if result == nil {
		return err
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		appErr.WithContext("run_id", result.RunID)
	}
	return err
}
