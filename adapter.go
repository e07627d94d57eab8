package stash

import (
	"io"
	"sync"
)

// Adapter is the output end of a flow. Write receives one encoded line
// at a time, without a trailing newline; the adapter decides on framing.
// Adapters must be safe for concurrent Write calls.
type Adapter interface {
	// Write persists one encoded event.
	Write(line []byte) error

	// Close flushes buffered output and releases resources. Writes after
	// Close fail with ErrAdapterClosed.
	Close() error

	// Reopen re-establishes the output target, e.g. after external log
	// rotation moved the file away. Adapters without a reopenable target
	// treat it as a no-op.
	Reopen() error
}

// WriterAdapter frames encoded events as newline-terminated lines on an
// arbitrary io.Writer. If the writer implements io.Closer, Close
// forwards to it.
type WriterAdapter struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

// NewWriterAdapter wraps w. A nil writer fails with ErrNilAdapter.
func NewWriterAdapter(w io.Writer) (*WriterAdapter, error) {
	if w == nil {
		return nil, newError(ErrCodeNilAdapter, "cannot adapt nil writer", nil)
	}
	return &WriterAdapter{w: w}, nil
}

func (a *WriterAdapter) Write(line []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return newError(ErrCodeAdapterClosed, "write on closed adapter", nil)
	}
	if _, err := a.w.Write(line); err != nil {
		return err
	}
	_, err := a.w.Write([]byte{'\n'})
	return err
}

func (a *WriterAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if c, ok := a.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (a *WriterAdapter) Reopen() error { return nil }

// CallableAdapter hands each encoded line to a function. The function
// receives its own copy of the line and may retain it.
type CallableAdapter struct {
	fn func(line []byte) error
}

// NewCallableAdapter wraps fn. A nil function fails with ErrNilAdapter.
func NewCallableAdapter(fn func(line []byte) error) (*CallableAdapter, error) {
	if fn == nil {
		return nil, newError(ErrCodeNilAdapter, "cannot adapt nil function", nil)
	}
	return &CallableAdapter{fn: fn}, nil
}

func (a *CallableAdapter) Write(line []byte) error {
	own := make([]byte, len(line))
	copy(own, line)
	return a.fn(own)
}

func (a *CallableAdapter) Close() error  { return nil }
func (a *CallableAdapter) Reopen() error { return nil }

// NullAdapter discards everything. Useful for benchmarks and for flows
// whose filters exist only for their side effects.
type NullAdapter struct{}

func (NullAdapter) Write([]byte) error { return nil }
func (NullAdapter) Close() error       { return nil }
func (NullAdapter) Reopen() error      { return nil }
