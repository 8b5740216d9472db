package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorToProblem(t *testing.T) {
	h := NewErrorHandler(quietLogger(), false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"cancelled wrapped", fmt.Errorf("run: %w", context.Canceled), http.StatusGatewayTimeout, TypeTimeout},
		{"max bytes", &http.MaxBytesError{Limit: 1024}, http.StatusRequestEntityTooLarge, TypePayloadTooLarge},
		{"api not found", ErrRunNotFound, http.StatusNotFound, TypeRunNotFound},
		{"api validation", ErrValidation("file", "missing"), http.StatusBadRequest, TypeValidation},
		{"api unsupported", ErrUnsupportedMedia, http.StatusUnsupportedMediaType, TypeUnsupportedMedia},
		{"app validation", NewAppValidationError("input path is required"), http.StatusBadRequest, TypeValidation},
		{"app parsing", NewParsingError("ambiguous shape", nil), http.StatusUnprocessableEntity, TypeDataInvalid},
		{"app not found", NewNotFoundError("run"), http.StatusNotFound, TypeNotFound},
		{"app network", NewNetworkError("llm down", nil), http.StatusBadGateway, TypeUpstreamFailure},
		{"app storage", NewStorageError("upsert failed", errors.New("secret dsn")), http.StatusInternalServerError, TypeStorageFailure},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := h.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, "/api/v1/runs", p.Instance)
		})
	}
}

func TestErrorToProblemHidesStorageCause(t *testing.T) {
	h := NewErrorHandler(quietLogger(), false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	p := h.ErrorToProblem(NewStorageError("upsert failed", errors.New("password=hunter2")), req)
	assert.Equal(t, "upsert failed", p.Detail)
	assert.Equal(t, "STORAGE", p.Extensions["error_type"])
}

func TestHandleError(t *testing.T) {
	h := NewErrorHandler(quietLogger(), false)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/abc", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-1"))

	rec := httptest.NewRecorder()
	h.HandleError(rec, req, NewParsingError("no date column", nil).WithContext("step", "normalize"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeDataInvalid, body["type"])
	assert.Equal(t, "Unprocessable Entity", body["title"])
	assert.Equal(t, float64(422), body["status"])
	assert.Equal(t, "[PARSING] no date column", body["detail"])
	assert.Equal(t, "normalize", body["step"])
	assert.Equal(t, "req-1", body["trace_id"])
}

func TestHandleErrorNil(t *testing.T) {
	rec := httptest.NewRecorder()
	NewErrorHandler(nil, false).HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Zero(t, rec.Body.Len())
}

func TestHandleErrorAPIDetails(t *testing.T) {
	h := NewErrorHandler(quietLogger(), false)
	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), ErrValidation("description", "too long"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
	assert.Equal(t, map[string]any{"field": "description", "message": "too long"}, body["details"])
	assert.NotContains(t, body, "trace_id")
}

func TestHandlePanic(t *testing.T) {
	tests := []struct {
		name         string
		includeStack bool
	}{
		{"production", false},
		{"development", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewErrorHandler(quietLogger(), tt.includeStack)
			rec := httptest.NewRecorder()
			h.HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/", nil), "nil map")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, TypeInternal, body["type"])
			if tt.includeStack {
				assert.Equal(t, "nil map", body["panic"])
				assert.NotEmpty(t, body["stack"])
			} else {
				assert.NotContains(t, body, "panic")
				assert.NotContains(t, body, "stack")
			}
		})
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := NewErrorHandler(quietLogger(), false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/nope", decodeProblem(t, rec)["instance"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method DELETE is not allowed for this endpoint", decodeProblem(t, rec)["detail"])
}

func TestProblemDetailsMarshalKeepsStandardFields(t *testing.T) {
	p := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "", "").
		WithExtension("status", "overridden").
		WithExtension("run_id", "r1")

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, float64(400), body["status"])
	assert.Equal(t, "r1", body["run_id"])
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, "instance")
}
