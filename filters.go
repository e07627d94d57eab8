package stash

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RateLimitFilter aborts the chain for events exceeding a token-bucket
// rate, protecting downstream adapters from log flooding.
type RateLimitFilter struct {
	limiter *rate.Limiter
}

// NewRateLimitFilter allows eventsPerSecond sustained throughput with
// the given burst. A non-positive burst defaults to the rounded-up rate.
func NewRateLimitFilter(eventsPerSecond float64, burst int) *RateLimitFilter {
	if burst <= 0 {
		burst = int(eventsPerSecond) + 1
	}
	return &RateLimitFilter{limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), burst)}
}

func (f *RateLimitFilter) Apply(event Event) (bool, error) {
	return f.limiter.Allow(), nil
}

// RedactFilter replaces pattern matches in every string value of the
// event, including the message, with a mask.
type RedactFilter struct {
	patterns []*regexp.Regexp
	mask     string
}

// NewRedactFilter compiles the given patterns. Patterns longer than
// MaxPatternLength fail with ErrPatternTooLong; invalid patterns with
// ErrInvalidPattern.
func NewRedactFilter(mask string, patterns ...string) (*RedactFilter, error) {
	if mask == "" {
		mask = "[REDACTED]"
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if len(p) > MaxPatternLength {
			return nil, newError(ErrCodePatternTooLong, "redaction pattern too long", map[string]any{"length": len(p)})
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &Error{Code: ErrCodeInvalidPattern, Message: "cannot compile redaction pattern", Cause: err}
		}
		compiled = append(compiled, re)
	}
	return &RedactFilter{patterns: compiled, mask: mask}, nil
}

func (f *RedactFilter) Apply(event Event) (bool, error) {
	for k, v := range event {
		event[k] = f.redactValue(v)
	}
	return true, nil
}

func (f *RedactFilter) redactValue(v any) any {
	switch val := v.(type) {
	case string:
		for _, re := range f.patterns {
			val = re.ReplaceAllString(val, f.mask)
		}
		return val
	case map[string]any:
		for k, nested := range val {
			val[k] = f.redactValue(nested)
		}
		return val
	case []any:
		for i, nested := range val {
			val[i] = f.redactValue(nested)
		}
		return val
	case []string:
		for i, s := range val {
			for _, re := range f.patterns {
				s = re.ReplaceAllString(s, f.mask)
			}
			val[i] = s
		}
		return val
	default:
		return v
	}
}

// Comparison operators understood by DropIfFilter.
const (
	OpEquals   = "equals"
	OpContains = "contains"
	OpRegex    = "regex"
)

// DropIfFilter aborts the chain when a dotted-path field matches a
// condition. A missing field passes the event through (fail-open), the
// same way an unparseable condition would be rejected at construction.
type DropIfFilter struct {
	path  []string
	op    string
	value string
	regex *regexp.Regexp
}

// NewDropIfFilter builds a condition on the dotted path (e.g.
// "request.status"). op is one of equals, contains or regex; an empty op
// defaults to equals.
func NewDropIfFilter(path, op, value string) (*DropIfFilter, error) {
	if path == "" {
		// strings.Split("", ".") would yield [""], a condition that can
		// never match; reject the misconfiguration up front.
		return nil, newError(ErrCodeConfigInvalid, "drop condition requires a field path", nil)
	}
	if op == "" {
		op = OpEquals
	}
	f := &DropIfFilter{path: strings.Split(path, "."), op: op, value: value}
	if op == OpRegex {
		re, err := regexp.Compile(value)
		if err != nil {
			return nil, &Error{Code: ErrCodeInvalidPattern, Message: "cannot compile drop condition", Cause: err}
		}
		f.regex = re
	}
	return f, nil
}

func (f *DropIfFilter) Apply(event Event) (bool, error) {
	v, ok := lookupPath(event, f.path)
	if !ok {
		return true, nil
	}
	return !f.matches(stringForm(v)), nil
}

func (f *DropIfFilter) matches(s string) bool {
	switch f.op {
	case OpEquals:
		return s == f.value
	case OpContains:
		return strings.Contains(s, f.value)
	case OpRegex:
		return f.regex != nil && f.regex.MatchString(s)
	default:
		return false
	}
}

func lookupPath(event Event, path []string) (any, bool) {
	var current any = map[string]any(event)
	for _, part := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func stringForm(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	norm := Normalize(v)
	if s, ok := norm.(string); ok {
		return s
	}
	return debugString(norm)
}

// EventIDFilter stamps each event with a random UUID so downstream
// consumers can deduplicate replayed streams.
type EventIDFilter struct {
	field string
}

// NewEventIDFilter writes the UUID into field; an empty field defaults
// to "event_id". Reserved field names fail with ErrForbiddenField.
func NewEventIDFilter(field string) (*EventIDFilter, error) {
	if field == "" {
		field = "event_id"
	}
	if IsForbiddenField(field) {
		return nil, newError(ErrCodeForbiddenField, "cannot stamp UUID into reserved field", map[string]any{"key": field})
	}
	return &EventIDFilter{field: field}, nil
}

func (f *EventIDFilter) Apply(event Event) (bool, error) {
	event[f.field] = uuid.NewString()
	return true, nil
}

// TruncateMessageFilter caps the event message at a maximum byte length,
// cutting on a rune boundary and appending an ellipsis marker.
type TruncateMessageFilter struct {
	max int
}

func NewTruncateMessageFilter(maxBytes int) *TruncateMessageFilter {
	return &TruncateMessageFilter{max: maxBytes}
}

func (f *TruncateMessageFilter) Apply(event Event) (bool, error) {
	msg := event.Message()
	if f.max <= 0 || len(msg) <= f.max {
		return true, nil
	}
	cut := f.max
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	event.SetMessage(msg[:cut] + "...")
	return true, nil
}
