package stash

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// LoggerOptions configures a Logger.
type LoggerOptions struct {
	// Level is the minimum severity written. Messages below it are
	// discarded before touching the buffer.
	Level Severity

	// Buffering and AllowEmpty configure the buffers the logger creates,
	// including the default buffer behind the plain log methods.
	Buffering  bool
	AllowEmpty bool
}

// Logger is the front end of the pipeline. Plain log calls go through a
// shared non-buffering buffer and emit one event per message; WithBuffer
// scopes a buffering buffer to a unit of work (such as one HTTP request)
// and emits a single combined event at the end.
type Logger struct {
	flows *Flows
	opts  LoggerOptions
	level atomic.Int32
	base  *Buffer
}

// NewLogger creates a logger writing into flows.
func NewLogger(flows *Flows, opts LoggerOptions) *Logger {
	if flows == nil {
		flows = NewFlows()
	}
	l := &Logger{
		flows: flows,
		opts:  opts,
		base:  NewBuffer(flows, BufferOptions{Buffering: opts.Buffering, AllowEmpty: opts.AllowEmpty}),
	}
	l.level.Store(int32(opts.Level))
	return l
}

// Flows returns the logger's fan-out for runtime flow management.
func (l *Logger) Flows() *Flows { return l.flows }

// Level returns the current minimum severity.
func (l *Logger) Level() Severity { return Severity(l.level.Load()) }

// SetLevel changes the minimum severity. Invalid severities fail with
// ErrInvalidSeverity.
func (l *Logger) SetLevel(level Severity) error {
	if !level.IsValid() {
		return newError(ErrCodeInvalidSeverity, "cannot set invalid severity", map[string]any{"severity": int(level)})
	}
	l.level.Store(int32(level))
	return nil
}

// Enabled reports whether messages at severity would be written.
func (l *Logger) Enabled(severity Severity) bool {
	return severity >= l.Level()
}

// Log records a message at the given severity on the logger's default
// buffer. Multiple args are joined with single spaces.
func (l *Logger) Log(severity Severity, args ...any) error {
	if !l.Enabled(severity) {
		return nil
	}
	return l.base.AddMessage(NewMessage(severity, joinArgs(args)))
}

// Logf records a formatted message at the given severity.
func (l *Logger) Logf(severity Severity, format string, args ...any) error {
	if !l.Enabled(severity) {
		return nil
	}
	return l.base.AddMessage(NewMessage(severity, fmt.Sprintf(format, args...)))
}

func (l *Logger) Debug(args ...any) error { return l.Log(SeverityDebug, args...) }
func (l *Logger) Info(args ...any) error  { return l.Log(SeverityInfo, args...) }
func (l *Logger) Warn(args ...any) error  { return l.Log(SeverityWarn, args...) }
func (l *Logger) Error(args ...any) error { return l.Log(SeverityError, args...) }
func (l *Logger) Fatal(args ...any) error { return l.Log(SeverityFatal, args...) }

func (l *Logger) Debugf(format string, args ...any) error {
	return l.Logf(SeverityDebug, format, args...)
}
func (l *Logger) Infof(format string, args ...any) error {
	return l.Logf(SeverityInfo, format, args...)
}
func (l *Logger) Warnf(format string, args ...any) error {
	return l.Logf(SeverityWarn, format, args...)
}
func (l *Logger) Errorf(format string, args ...any) error {
	return l.Logf(SeverityError, format, args...)
}
func (l *Logger) Fatalf(format string, args ...any) error {
	return l.Logf(SeverityFatal, format, args...)
}

// Fields returns the default buffer's field container. Fields set here
// ride along on the next flushed event and are cleared with it.
func (l *Logger) Fields() *Fields { return l.base.Fields() }

// Tags returns the default buffer's tag set.
func (l *Logger) Tags() *Tags { return l.base.Tags() }

// AddError records err on the default buffer's error fields.
func (l *Logger) AddError(err error) error {
	return l.base.AddError(err, true)
}

// WithBuffer runs fn against a fresh buffering buffer scoped to one unit
// of work. When fn returns nil the buffer flushes into the logger's
// flows as a single event; when fn returns an error the buffer is
// discarded unflushed and the error is returned. Panics propagate after
// the buffer is dropped; log what must survive a crash with AddError
// and an explicit Flush inside fn.
func (l *Logger) WithBuffer(fn func(b *Buffer) error) error {
	buffer := NewBuffer(l.flows, BufferOptions{Buffering: true, AllowEmpty: l.opts.AllowEmpty})
	if err := fn(buffer); err != nil {
		return err
	}
	return buffer.Flush()
}

// Flush flushes the default buffer. Only meaningful with a buffering
// logger; a non-buffering one has already flushed each message.
func (l *Logger) Flush() error { return l.base.Flush() }

// Reopen re-opens every flow's adapter, for log rotation handlers.
func (l *Logger) Reopen() error { return l.flows.Reopen() }

// Close flushes the default buffer and closes all flows.
func (l *Logger) Close() error {
	flushErr := l.base.Flush()
	if err := l.flows.Close(); err != nil {
		return err
	}
	return flushErr
}

// joinArgs renders each argument with fmt and joins them with single
// spaces, regardless of operand types.
func joinArgs(args []any) string {
	switch len(args) {
	case 0:
		return ""
	case 1:
		if s, ok := args[0].(string); ok {
			return s
		}
		return fmt.Sprint(args[0])
	}

	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprint(arg)
	}
	return strings.Join(parts, " ")
}
