package stash

import (
	"strings"
	"sync"
	"time"
)

// Sink consumes the event composed by a flushing Buffer. Flow and Flows
// implement it; tests substitute their own.
type Sink interface {
	Write(event Event) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(event Event) error

func (f SinkFunc) Write(event Event) error { return f(event) }

// BufferOptions configures a Buffer.
type BufferOptions struct {
	// Buffering accumulates messages until an explicit Flush. When false
	// the buffer auto-flushes (and clears) after every AddMessage.
	Buffering bool

	// AllowEmpty makes a buffer with only field or tag mutations (no
	// messages) count as pending, so it flushes instead of being
	// discarded.
	AllowEmpty bool
}

// Buffer accumulates messages, fields and tags for one logical scope
// (typically one request) and composes them into a single Event on
// flush.
//
// The fields and tags containers returned by Fields and Tags are live:
// mutations are visible immediately and contribute to Pending. The
// message list and the timestamp latch are guarded by the buffer's own
// mutex. Cross-container reads (such as ToEvent) are individually
// consistent but not atomic as a group.
type Buffer struct {
	sink       Sink
	buffering  bool
	allowEmpty bool

	fields *Fields
	tags   *Tags

	mu        sync.Mutex
	messages  []Message
	timestamp string
}

// NewBuffer creates a Buffer flushing into sink.
func NewBuffer(sink Sink, opts BufferOptions) *Buffer {
	return &Buffer{
		sink:       sink,
		buffering:  opts.Buffering,
		allowEmpty: opts.AllowEmpty,
		fields:     NewFields(),
		tags:       NewTags(),
	}
}

// Fields returns the buffer's live field container.
func (b *Buffer) Fields() *Fields { return b.fields }

// Tags returns the buffer's live tag set.
func (b *Buffer) Tags() *Tags { return b.tags }

// AllowEmpty reports whether field/tag-only buffers flush.
func (b *Buffer) AllowEmpty() bool { return b.allowEmpty }

// Buffering reports whether the buffer accumulates messages.
func (b *Buffer) Buffering() bool { return b.buffering }

// AddMessage appends a message. A non-buffering buffer immediately
// flushes (and clears) afterwards; the flush error, if any, is returned.
func (b *Buffer) AddMessage(msg Message) error {
	b.mu.Lock()
	b.messages = append(b.messages, msg)
	if b.timestamp == "" {
		b.timestamp = FormatTime(msg.Time)
	}
	b.mu.Unlock()

	if !b.buffering {
		return b.Flush()
	}
	return nil
}

// Messages returns a copy of the accumulated messages.
func (b *Buffer) Messages() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// Timestamp latches the buffer's timestamp on first call (to t when
// given, otherwise now) and returns the latched ISO-8601 string. Later
// calls return the same value regardless of t; the first write wins.
func (b *Buffer) Timestamp(t ...time.Time) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timestamp == "" {
		when := time.Now()
		if len(t) > 0 {
			when = t[0]
		}
		b.timestamp = FormatTime(when)
	}
	return b.timestamp
}

// AddError records err in the error, error_message and error_trace
// fields. With force, existing values are overwritten; without force,
// existing non-nil values win. The trace field is only set when the
// error exposes a stack trace.
func (b *Buffer) AddError(err error, force bool) error {
	if err == nil {
		return nil
	}
	m := map[string]any{
		FieldError:        NormalizeError(err),
		FieldErrorMessage: err.Error(),
	}
	if st, ok := err.(StackTracer); ok {
		if trace := st.StackTrace(); trace != "" {
			m[FieldErrorTrace] = trace
		}
	}
	return b.fields.MergeInPlace(m, force)
}

// Pending reports whether a flush would produce an event: any message is
// pending, and with AllowEmpty, so are field or tag mutations alone.
func (b *Buffer) Pending() bool {
	b.mu.Lock()
	hasMessages := len(b.messages) > 0
	b.mu.Unlock()

	if hasMessages {
		return true
	}
	if !b.allowEmpty {
		return false
	}
	return b.fields.Len() > 0 || b.tags.Len() > 0
}

// ToEvent composes the final event: the buffer's fields deep-merged with
// extraFields (non-forcing, buffer values win), tags unioned with
// extraTags, message texts concatenated in order, and the reserved
// timestamp and version fields stamped. The returned event is a plain
// self-contained snapshot; the buffer keeps its state untouched apart
// from the lazily latched timestamp.
func (b *Buffer) ToEvent(extraFields *Fields, extraTags *Tags) Event {
	fields := b.fields.Clone()
	if extraFields != nil {
		// Reserved keys cannot occur inside a Fields container, so this
		// merge cannot fail.
		_ = fields.mergeFields(extraFields, false, true, true)
	}

	tags := b.tags.Clone()
	if extraTags != nil {
		tags.Merge(extraTags)
	}

	var sb strings.Builder
	for _, msg := range b.Messages() {
		sb.WriteString(msg.Text)
	}

	event := Event(fields.ToMap())
	event[FieldMessage] = sb.String()
	event[FieldTags] = tags.List()
	event[FieldTimestamp] = b.Timestamp()
	event[FieldVersion] = EventVersion
	return event
}

// Flush composes the pending event and hands it to the sink, then
// clears the buffer. A buffer with nothing pending is a no-op. Errors
// from the sink (filters, encoder, adapter) propagate unmodified and
// leave the buffer unchanged; the failed event is not retried by the
// buffer itself.
func (b *Buffer) Flush() error {
	if !b.Pending() {
		return nil
	}
	event := b.ToEvent(nil, nil)
	if b.sink != nil {
		if err := b.sink.Write(event); err != nil {
			return err
		}
	}
	b.Clear()
	return nil
}

// Clear resets messages, fields, tags and the timestamp latch. The
// buffer returns to its empty state.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.messages = nil
	b.timestamp = ""
	b.mu.Unlock()

	// Containers are reset in place: handles obtained through Fields()
	// and Tags() before the clear stay valid.
	b.fields.Reset()
	b.tags.Reset()
}
