package stash

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
// These codes enable programmatic error matching using errors.Is() and errors.As().
const (
	ErrCodeForbiddenField  = "FORBIDDEN_FIELD"
	ErrCodeNotAMap         = "NOT_A_MAP"
	ErrCodeNotAnArray      = "NOT_AN_ARRAY"
	ErrCodeIndexRange      = "INDEX_RANGE"
	ErrCodeFilterNotFound  = "FILTER_NOT_FOUND"
	ErrCodeNilAdapter      = "NIL_ADAPTER"
	ErrCodeNilFilter       = "NIL_FILTER"
	ErrCodeNilEncoder      = "NIL_ENCODER"
	ErrCodeUnknownType     = "UNKNOWN_TYPE"
	ErrCodeDuplicateType   = "DUPLICATE_TYPE"
	ErrCodeAdapterClosed   = "ADAPTER_CLOSED"
	ErrCodeEmptyFilePath   = "EMPTY_FILE_PATH"
	ErrCodePathTooLong     = "PATH_TOO_LONG"
	ErrCodePathTraversal   = "PATH_TRAVERSAL"
	ErrCodeNullByte        = "NULL_BYTE"
	ErrCodeInvalidPath     = "INVALID_PATH"
	ErrCodeInvalidPattern  = "INVALID_PATTERN"
	ErrCodePatternTooLong  = "PATTERN_TOO_LONG"
	ErrCodeInvalidSeverity = "INVALID_SEVERITY"
	ErrCodeBufferTooLarge  = "BUFFER_TOO_LARGE"
	ErrCodeConfigInvalid   = "CONFIG_INVALID"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrForbiddenField is returned when application code attempts to
	// write a reserved event field under forcing semantics.
	ErrForbiddenField = errors.New("field name is reserved")

	// ErrNotAMap is returned when a value cannot be coerced to a field
	// mapping for a merge operation.
	ErrNotAMap = errors.New("value cannot be coerced to a field map")

	// ErrNotAnArray is returned when a value cannot be coerced to an
	// ordered sequence for an array operation.
	ErrNotAnArray = errors.New("value cannot be coerced to an array")

	// ErrIndexRange is returned by Array.Set for an out-of-range index.
	ErrIndexRange = errors.New("index out of range")

	// ErrFilterNotFound is returned by FilterChain mutation operations
	// when the locator does not resolve to a chain entry.
	ErrFilterNotFound = errors.New("filter not found in chain")

	ErrNilAdapter = errors.New("adapter is nil")
	ErrNilFilter  = errors.New("filter is nil")
	ErrNilEncoder = errors.New("encoder is nil")

	// ErrUnknownType is returned by a Registry when no factory is
	// registered under the requested name.
	ErrUnknownType = errors.New("no factory registered for type")

	// ErrDuplicateType is returned by Registry.Register for an already
	// registered name.
	ErrDuplicateType = errors.New("type already registered")

	ErrAdapterClosed   = errors.New("adapter is closed")
	ErrEmptyFilePath   = errors.New("file path is empty")
	ErrPathTooLong     = errors.New("file path exceeds maximum length")
	ErrPathTraversal   = errors.New("file path contains traversal sequence")
	ErrNullByte        = errors.New("file path contains null byte")
	ErrInvalidPath     = errors.New("file path is invalid")
	ErrInvalidPattern  = errors.New("invalid redaction pattern")
	ErrPatternTooLong  = errors.New("redaction pattern exceeds maximum length")
	ErrInvalidSeverity = errors.New("invalid severity")
	ErrBufferTooLarge  = errors.New("write buffer size exceeds maximum")
	ErrConfigInvalid   = errors.New("invalid pipeline configuration")
)

// Error represents a structured error with additional context.
// It implements error, Unwrap(), and Is() for fine-grained matching:
//
//	err := fields.Set("message", "boom")
//	if errors.Is(err, stash.ErrForbiddenField) {
//	    var se *stash.Error
//	    if errors.As(err, &se) {
//	        fmt.Println(se.Context["key"])
//	    }
//	}
type Error struct {
	Code    string         // Machine-readable error code (e.g. "FORBIDDEN_FIELD")
	Message string         // Human-readable message
	Cause   error          // Underlying error (for wrapping)
	Context map[string]any // Additional context for debugging
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for use with errors.Is() and errors.As().
func (e *Error) Unwrap() error {
	return e.Cause
}

// errorCodeToSentinel maps error codes to their corresponding sentinel errors.
var errorCodeToSentinel = map[string]error{
	ErrCodeForbiddenField:  ErrForbiddenField,
	ErrCodeNotAMap:         ErrNotAMap,
	ErrCodeNotAnArray:      ErrNotAnArray,
	ErrCodeIndexRange:      ErrIndexRange,
	ErrCodeFilterNotFound:  ErrFilterNotFound,
	ErrCodeNilAdapter:      ErrNilAdapter,
	ErrCodeNilFilter:       ErrNilFilter,
	ErrCodeNilEncoder:      ErrNilEncoder,
	ErrCodeUnknownType:     ErrUnknownType,
	ErrCodeDuplicateType:   ErrDuplicateType,
	ErrCodeAdapterClosed:   ErrAdapterClosed,
	ErrCodeEmptyFilePath:   ErrEmptyFilePath,
	ErrCodePathTooLong:     ErrPathTooLong,
	ErrCodePathTraversal:   ErrPathTraversal,
	ErrCodeNullByte:        ErrNullByte,
	ErrCodeInvalidPath:     ErrInvalidPath,
	ErrCodeInvalidPattern:  ErrInvalidPattern,
	ErrCodePatternTooLong:  ErrPatternTooLong,
	ErrCodeInvalidSeverity: ErrInvalidSeverity,
	ErrCodeBufferTooLarge:  ErrBufferTooLarge,
	ErrCodeConfigInvalid:   ErrConfigInvalid,
}

// Is reports whether this error matches the target sentinel error,
// either through its code or through its wrapped cause.
func (e *Error) Is(target error) bool {
	if sentinel, ok := errorCodeToSentinel[e.Code]; ok && sentinel == target {
		return true
	}
	return false
}

// newError creates a structured Error with the given code and message.
func newError(code, message string, context map[string]any) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   errorCodeToSentinel[code],
		Context: context,
	}
}
