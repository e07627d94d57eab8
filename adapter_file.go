package stash

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cybergodev/stash/internal"
)

// FileAdapterOptions tunes a FileAdapter.
type FileAdapterOptions struct {
	// BufferSizeKB enables an in-memory write buffer of the given size.
	// Zero disables buffering entirely; every event hits the OS directly.
	BufferSizeKB int

	// FlushInterval is how often buffered output is flushed to disk when
	// buffering is enabled. Zero means DefaultFlushInterval.
	FlushInterval time.Duration
}

// FileAdapter appends newline-terminated events to a log file. The path
// is validated and resolved to an absolute path up front; missing parent
// directories are created with restrictive permissions.
//
// With buffering enabled a background goroutine flushes the buffer
// periodically so short-lived bursts are not lost between writes. Reopen
// supports external rotation: after logrotate moves the file aside,
// calling Reopen (typically from a SIGHUP handler) re-creates it at the
// original path.
type FileAdapter struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	writer   *bufio.Writer
	opts     FileAdapterOptions
	closed   bool
	cancel   context.CancelFunc
	flushing sync.WaitGroup
}

// NewFileAdapter opens (or creates) the log file at path for appending.
func NewFileAdapter(path string, opts FileAdapterOptions) (*FileAdapter, error) {
	abs, err := internal.SecurePath(path, MaxPathLength,
		newError(ErrCodeEmptyFilePath, "log file path is empty", nil),
		newError(ErrCodeNullByte, "log file path contains null byte", nil),
		newError(ErrCodePathTooLong, "log file path too long", map[string]any{"max": MaxPathLength}),
		newError(ErrCodePathTraversal, "log file path contains traversal sequence", nil),
		newError(ErrCodeInvalidPath, "log file path is invalid", nil),
	)
	if err != nil {
		return nil, err
	}
	if opts.BufferSizeKB > MaxBufferSizeKB {
		return nil, newError(ErrCodeBufferTooLarge, "write buffer too large",
			map[string]any{"requested_kb": opts.BufferSizeKB, "max_kb": MaxBufferSizeKB})
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}

	a := &FileAdapter{path: abs, opts: opts}
	if err := a.open(); err != nil {
		return nil, err
	}

	if opts.BufferSizeKB > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		a.cancel = cancel
		a.flushing.Add(1)
		go a.flushLoop(ctx)
	}
	return a, nil
}

func (a *FileAdapter) open() error {
	if err := os.MkdirAll(filepath.Dir(a.path), DirPermissions); err != nil {
		return &Error{Code: ErrCodeInvalidPath, Message: "cannot create log directory", Cause: err}
	}
	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, FilePermissions)
	if err != nil {
		return &Error{Code: ErrCodeInvalidPath, Message: "cannot open log file", Cause: err}
	}
	a.file = file
	if a.opts.BufferSizeKB > 0 {
		a.writer = bufio.NewWriterSize(file, a.opts.BufferSizeKB*1024)
	} else {
		a.writer = nil
	}
	return nil
}

func (a *FileAdapter) flushLoop(ctx context.Context) {
	defer a.flushing.Done()
	ticker := time.NewTicker(a.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.mu.Lock()
			if !a.closed && a.writer != nil {
				if err := a.writer.Flush(); err != nil {
					fmt.Fprintf(os.Stderr, "stash: background flush failed: %v\n", err)
				}
			}
			a.mu.Unlock()
		}
	}
}

// Path returns the resolved absolute path of the log file.
func (a *FileAdapter) Path() string { return a.path }

func (a *FileAdapter) Write(line []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return newError(ErrCodeAdapterClosed, "write on closed adapter", nil)
	}

	if a.writer != nil {
		if _, err := a.writer.Write(line); err != nil {
			return err
		}
		return a.writer.WriteByte('\n')
	}
	if _, err := a.file.Write(line); err != nil {
		return err
	}
	_, err := a.file.Write([]byte{'\n'})
	return err
}

// Flush forces buffered output to disk.
func (a *FileAdapter) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.writer == nil {
		return nil
	}
	return a.writer.Flush()
}

// Reopen closes and re-opens the log file at the original path. Pending
// buffered output is flushed to the old file handle first.
func (a *FileAdapter) Reopen() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return newError(ErrCodeAdapterClosed, "reopen on closed adapter", nil)
	}

	if a.writer != nil {
		if err := a.writer.Flush(); err != nil {
			return err
		}
	}
	if err := a.file.Close(); err != nil {
		return err
	}
	return a.open()
}

// Close stops the flush goroutine, flushes remaining output and closes
// the file. Close is idempotent.
func (a *FileAdapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	cancel := a.cancel
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		a.flushing.Wait()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	var flushErr error
	if a.writer != nil {
		flushErr = a.writer.Flush()
	}
	if err := a.file.Close(); err != nil {
		return err
	}
	return flushErr
}
