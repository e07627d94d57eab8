package stash

// Event is the final flat field mapping produced by a Buffer, ready for
// filtering and encoding. After composition it always carries the
// reserved message, tag list, timestamp and version fields, and every
// value is a plain normalized value: string, int64, float64, bool, nil,
// map[string]any or []any (tags are []string). An Event holds no
// references back to the Buffer that produced it.
type Event map[string]any

// Message returns the event's message text, or "" when absent.
func (e Event) Message() string {
	s, _ := e[FieldMessage].(string)
	return s
}

// SetMessage replaces the event's message text. Filters use this to
// rewrite the message in place.
func (e Event) SetMessage(text string) {
	e[FieldMessage] = text
}

// Tags returns the event's tag list, or nil when absent.
func (e Event) Tags() []string {
	tags, _ := e[FieldTags].([]string)
	return tags
}

// Timestamp returns the event's ISO-8601 timestamp, or "" when absent.
func (e Event) Timestamp() string {
	s, _ := e[FieldTimestamp].(string)
	return s
}

// Version returns the event's schema version, or "" when absent.
func (e Event) Version() string {
	s, _ := e[FieldVersion].(string)
	return s
}

// Clone returns a deep copy of the event. Nested maps and slices are
// copied so that filters mutating one flow's event cannot leak changes
// into another flow's.
func (e Event) Clone() Event {
	if e == nil {
		return nil
	}
	clone := make(Event, len(e))
	for k, v := range e {
		clone[k] = cloneValue(v)
	}
	return clone
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, nested := range val {
			m[k] = cloneValue(nested)
		}
		return m
	case []any:
		s := make([]any, len(val))
		for i, nested := range val {
			s[i] = cloneValue(nested)
		}
		return s
	case []string:
		s := make([]string, len(val))
		copy(s, val)
		return s
	default:
		return v
	}
}
