// Package errors provides structured error handling for polisearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (files, index storage)
//   - 3XX: Capability errors (embedding / vector index, network)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
//   - 6XX: Corpus errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and index storage I/O errors.
	CategoryIO Category = "IO"
	// CategoryCapability indicates errors from the external embedding or
	// vector index capability (network, timeouts, malformed results).
	CategoryCapability Category = "CAPABILITY"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
	// CategoryCorpus indicates corpus-level errors (empty corpus, bad pages).
	CategoryCorpus Category = "CORPUS"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound = "ERR_201_FILE_NOT_FOUND"
	ErrCodeCorruptIndex = "ERR_202_CORRUPT_INDEX"
	ErrCodeIndexLocked  = "ERR_203_INDEX_LOCKED"

	// Capability errors (300-399)
	ErrCodeCapabilityTimeout     = "ERR_301_CAPABILITY_TIMEOUT"
	ErrCodeCapabilityUnavailable = "ERR_302_CAPABILITY_UNAVAILABLE"
	ErrCodeMalformedResult       = "ERR_303_MALFORMED_RESULT"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeDimensionMismatch = "ERR_402_DIMENSION_MISMATCH"
	ErrCodeQueryEmpty        = "ERR_403_QUERY_EMPTY"

	// Internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeEmbeddingFailed = "ERR_502_EMBEDDING_FAILED"
	ErrCodeSearchFailed    = "ERR_503_SEARCH_FAILED"
	ErrCodeBuildFailed     = "ERR_504_BUILD_FAILED"

	// Corpus errors (600-699)
	ErrCodeEmptyCorpus  = "ERR_601_EMPTY_CORPUS"
	ErrCodeInvalidPages = "ERR_602_INVALID_PAGES"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryCapability
	case '4':
		return CategoryValidation
	case '5':
		return CategoryInternal
	case '6':
		return CategoryCorpus
	default:
		return CategoryInternal
	}
}

// severityFromCode derives severity from error code.
// Config and corpus errors abort the operation; capability errors degrade.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryConfig, CategoryCorpus:
		return SeverityFatal
	case CategoryCapability:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether operations failing with this code may be retried.
// Only transient capability failures are retryable.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeCapabilityTimeout, ErrCodeCapabilityUnavailable:
		return true
	default:
		return false
	}
}
