package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := errors.New("unexpected EOF")

	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantMsg  string
	}{
		{"parsing", NewParsingError("cannot read workbook", cause), ErrTypeParsing, "[PARSING] cannot read workbook: unexpected EOF"},
		{"storage", NewStorageError("upsert failed", cause), ErrTypeStorage, "[STORAGE] upsert failed: unexpected EOF"},
		{"network", NewNetworkError("anthropic request failed", cause), ErrTypeNetwork, "[NETWORK] anthropic request failed: unexpected EOF"},
		{"config", NewConfigError("bad driver", cause), ErrTypeConfig, "[CONFIG] bad driver: unexpected EOF"},
		{"validation", NewAppValidationError("file is required"), ErrTypeValidation, "[VALIDATION] file is required"},
		{"not found", NewNotFoundError("run"), ErrTypeNotFound, "[NOT_FOUND] run not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.True(t, IsType(fmt.Errorf("wrapped: %w", tt.err), tt.wantType))
		})
	}
}

func TestAppErrorUnwrapAndContext(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("write failed", cause).WithContext("path", "/tmp/out.csv")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "/tmp/out.csv", err.Context["path"])

	bare := &AppError{Type: ErrTypeParsing, Message: "x"}
	bare.WithContext("row", 3)
	assert.Equal(t, 3, bare.Context["row"])

	assert.False(t, IsType(errors.New("plain"), ErrTypeParsing))
	assert.False(t, IsType(err, ErrTypeNetwork))
}

func TestAPIError(t *testing.T) {
	err := NotFoundError("run")
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "run not found", err.Error())
	assert.Equal(t, "run", err.Details)

	validation := ErrValidation("file", "is required")
	assert.Equal(t, "VALIDATION_FAILED", validation.ErrorCode)
	assert.Equal(t, ValidationError{Field: "file", Message: "is required"}, validation.Details)

	invalid := InvalidRequestWithError(errors.New("no multipart boundary"))
	assert.Equal(t, http.StatusBadRequest, invalid.StatusCode)
	assert.Equal(t, "no multipart boundary", invalid.Details)

	var target *APIError
	require.ErrorAs(t, fmt.Errorf("handler: %w", ErrRunNotFound), &target)
	assert.Equal(t, "RUN_NOT_FOUND", target.ErrorCode)
}
