package stash

import "time"

// Reserved event field names. The Buffer owns these; application code
// cannot write them through Fields (see forbiddenFields).
const (
	// FieldMessage holds the concatenated message texts of a flushed buffer.
	FieldMessage = "message"

	// FieldTags holds the sorted tag list of a flushed buffer.
	FieldTags = "tags"

	// FieldTimestamp holds the buffer's latched creation time as an
	// ISO-8601 UTC string with microsecond precision.
	FieldTimestamp = "@timestamp"

	// FieldVersion holds the event schema version.
	FieldVersion = "@version"
)

// EventVersion is the value stamped into FieldVersion on every event.
const EventVersion = "1"

// Field names set by Buffer.AddError. These are ordinary fields and may
// be overwritten by application code.
const (
	FieldError        = "error"
	FieldErrorMessage = "error_message"
	FieldErrorTrace   = "error_trace"
)

// TimeFormat renders timestamps as ISO-8601 UTC with exactly six
// fractional digits, e.g. "2026-08-29T10:15:30.123456Z".
const TimeFormat = "2006-01-02T15:04:05.000000Z"

// forbiddenFields is the immutable set of field names reserved for the
// Buffer. Never mutated after package initialization.
var forbiddenFields = map[string]struct{}{
	FieldMessage:   {},
	FieldTags:      {},
	FieldTimestamp: {},
	FieldVersion:   {},
}

// IsForbiddenField reports whether key is reserved for the Buffer.
// The key is matched after UTF-8 normalization, the same way Fields.Set
// matches it.
func IsForbiddenField(key string) bool {
	_, ok := forbiddenFields[key]
	return ok
}

const (
	// MaxPathLength limits adapter file paths to 4096 bytes (POSIX PATH_MAX).
	MaxPathLength = 4096

	// MaxNormalizeDepth limits recursion when normalizing nested values.
	// Prevents stack exhaustion from deeply nested or cyclic structures.
	MaxNormalizeDepth = 100

	// MaxPatternLength limits regex patterns accepted by the redact filter.
	// Longer patterns are rarely legitimate and may indicate ReDoS attempts.
	MaxPatternLength = 1000

	// DirPermissions is the mode for directories created for file adapters.
	DirPermissions = 0o750

	// FilePermissions is the mode for log files created by the file adapter.
	FilePermissions = 0o600
)

const (
	// DefaultFlushInterval is how often a buffered file adapter flushes
	// accumulated output when no write has triggered a flush.
	DefaultFlushInterval = 100 * time.Millisecond

	// MaxBufferSizeKB caps the file adapter's in-memory write buffer.
	MaxBufferSizeKB = 10 * 1024
)
