package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoliError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with PoliError
	poliErr := New(ErrCodeFileNotFound, "file not found: pages.json", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, poliErr)
	assert.Equal(t, originalErr, errors.Unwrap(poliErr))
	assert.True(t, errors.Is(poliErr, originalErr))
}

func TestPoliError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "config file not found",
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "file error",
			code:     ErrCodeFileNotFound,
			message:  "pages.json not found",
			expected: "[ERR_201_FILE_NOT_FOUND] pages.json not found",
		},
		{
			name:     "capability error",
			code:     ErrCodeCapabilityTimeout,
			message:  "embedding request timed out",
			expected: "[ERR_301_CAPABILITY_TIMEOUT] embedding request timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestPoliError_Is_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeFileNotFound, "pages A not found", nil)
	err2 := New(ErrCodeFileNotFound, "pages B not found", nil)

	assert.True(t, errors.Is(err1, err2))
}

func TestPoliError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	err1 := New(ErrCodeFileNotFound, "file not found", nil)
	err2 := New(ErrCodeConfigNotFound, "config not found", nil)

	assert.False(t, errors.Is(err1, err2))
}

func TestPoliError_WithDetail_AddsContext(t *testing.T) {
	err := New(ErrCodeFileNotFound, "file not found", nil).
		WithDetail("path", "/data/pages.json").
		WithDetail("operation", "index build")

	require.NotNil(t, err.Details)
	assert.Equal(t, "/data/pages.json", err.Details["path"])
	assert.Equal(t, "index build", err.Details["operation"])
}

func TestPoliError_WithSuggestion_SetsSuggestion(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "vector_weight out of range", nil).
		WithSuggestion("set search.vector_weight between 0.0 and 1.0")

	assert.Equal(t, "set search.vector_weight between 0.0 and 1.0", err.Suggestion)
}

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
		severity Severity
	}{
		{"config is fatal", ErrCodeConfigInvalid, CategoryConfig, SeverityFatal},
		{"io is error", ErrCodeCorruptIndex, CategoryIO, SeverityError},
		{"capability is warning", ErrCodeCapabilityUnavailable, CategoryCapability, SeverityWarning},
		{"validation is error", ErrCodeInvalidInput, CategoryValidation, SeverityError},
		{"internal is error", ErrCodeSearchFailed, CategoryInternal, SeverityError},
		{"corpus is fatal", ErrCodeEmptyCorpus, CategoryCorpus, SeverityFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestWrap_NilError_ReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrCodeBuildFailed, cause)

	require.NotNil(t, err)
	assert.Equal(t, ErrCodeBuildFailed, err.Code)
	assert.Equal(t, "disk full", err.Message)
	assert.True(t, errors.Is(err, cause))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeCapabilityTimeout, "timeout", nil)))
	assert.True(t, IsRetryable(New(ErrCodeCapabilityUnavailable, "down", nil)))
	assert.False(t, IsRetryable(New(ErrCodeConfigInvalid, "bad config", nil)))
	assert.False(t, IsRetryable(errors.New("plain error")))
	assert.False(t, IsRetryable(nil))
}

func TestIsIndexUnavailable(t *testing.T) {
	assert.True(t, IsIndexUnavailable(IndexUnavailable("vector index unreachable", nil)))
	assert.True(t, IsIndexUnavailable(New(ErrCodeMalformedResult, "bad payload", nil)))
	assert.False(t, IsIndexUnavailable(New(ErrCodeEmptyCorpus, "no chunks", nil)))
	assert.False(t, IsIndexUnavailable(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeQueryEmpty, GetCode(New(ErrCodeQueryEmpty, "empty query", nil)))
	assert.Equal(t, "", GetCode(errors.New("plain")))
	assert.Equal(t, "", GetCode(nil))
}

func TestEmptyCorpus_HasSuggestion(t *testing.T) {
	err := EmptyCorpus("no chunks produced")
	assert.Equal(t, ErrCodeEmptyCorpus, err.Code)
	assert.NotEmpty(t, err.Suggestion)
}
