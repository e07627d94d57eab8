package stash

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriterAdapter(t *testing.T) {
	t.Run("frames lines with newline", func(t *testing.T) {
		var buf bytes.Buffer
		a, err := NewWriterAdapter(&buf)
		if err != nil {
			t.Fatal(err)
		}

		if err := a.Write([]byte("one")); err != nil {
			t.Fatal(err)
		}
		if err := a.Write([]byte("two")); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "one\ntwo\n" {
			t.Errorf("got %q", buf.String())
		}
	})

	t.Run("nil writer rejected", func(t *testing.T) {
		if _, err := NewWriterAdapter(nil); !errors.Is(err, ErrNilAdapter) {
			t.Errorf("got %v, want ErrNilAdapter", err)
		}
	})

	t.Run("write after close fails", func(t *testing.T) {
		a, err := NewWriterAdapter(&bytes.Buffer{})
		if err != nil {
			t.Fatal(err)
		}
		if err := a.Close(); err != nil {
			t.Fatal(err)
		}
		if err := a.Write([]byte("x")); !errors.Is(err, ErrAdapterClosed) {
			t.Errorf("got %v, want ErrAdapterClosed", err)
		}
		// Close is idempotent.
		if err := a.Close(); err != nil {
			t.Errorf("second close: %v", err)
		}
	})
}

func TestCallableAdapter(t *testing.T) {
	var received [][]byte
	a, err := NewCallableAdapter(func(line []byte) error {
		received = append(received, line)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	line := []byte("payload")
	if err := a.Write(line); err != nil {
		t.Fatal(err)
	}

	// The callback's copy must survive mutation of the original.
	line[0] = 'X'
	if string(received[0]) != "payload" {
		t.Errorf("callback received aliased line: %q", received[0])
	}

	if _, err := NewCallableAdapter(nil); !errors.Is(err, ErrNilAdapter) {
		t.Errorf("got %v, want ErrNilAdapter", err)
	}
}

func TestFileAdapter(t *testing.T) {
	t.Run("creates file and directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "app.log")
		a, err := NewFileAdapter(path, FileAdapterOptions{})
		if err != nil {
			t.Fatal(err)
		}
		defer a.Close()

		if err := a.Write([]byte("hello")); err != nil {
			t.Fatal(err)
		}
		if err := a.Close(); err != nil {
			t.Fatal(err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "hello\n" {
			t.Errorf("got %q", content)
		}
	})

	t.Run("buffered writes flush on close", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		a, err := NewFileAdapter(path, FileAdapterOptions{BufferSizeKB: 64})
		if err != nil {
			t.Fatal(err)
		}

		if err := a.Write([]byte("buffered")); err != nil {
			t.Fatal(err)
		}
		if err := a.Close(); err != nil {
			t.Fatal(err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "buffered\n" {
			t.Errorf("got %q", content)
		}
	})

	t.Run("background flush", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		a, err := NewFileAdapter(path, FileAdapterOptions{
			BufferSizeKB:  64,
			FlushInterval: 5 * time.Millisecond,
		})
		if err != nil {
			t.Fatal(err)
		}
		defer a.Close()

		if err := a.Write([]byte("line")); err != nil {
			t.Fatal(err)
		}

		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			content, _ := os.ReadFile(path)
			if len(content) > 0 {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Error("buffered line never flushed in the background")
	})

	t.Run("reopen after rotation", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "app.log")
		a, err := NewFileAdapter(path, FileAdapterOptions{})
		if err != nil {
			t.Fatal(err)
		}
		defer a.Close()

		if err := a.Write([]byte("before")); err != nil {
			t.Fatal(err)
		}
		if err := os.Rename(path, filepath.Join(dir, "app.log.1")); err != nil {
			t.Fatal(err)
		}
		if err := a.Reopen(); err != nil {
			t.Fatal(err)
		}
		if err := a.Write([]byte("after")); err != nil {
			t.Fatal(err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "after\n" {
			t.Errorf("new file contains %q", content)
		}
		rotated, err := os.ReadFile(filepath.Join(dir, "app.log.1"))
		if err != nil {
			t.Fatal(err)
		}
		if string(rotated) != "before\n" {
			t.Errorf("rotated file contains %q", rotated)
		}
	})

	t.Run("path validation", func(t *testing.T) {
		if _, err := NewFileAdapter("", FileAdapterOptions{}); !errors.Is(err, ErrEmptyFilePath) {
			t.Errorf("got %v, want ErrEmptyFilePath", err)
		}
		if _, err := NewFileAdapter("a\x00b", FileAdapterOptions{}); !errors.Is(err, ErrNullByte) {
			t.Errorf("got %v, want ErrNullByte", err)
		}
	})

	t.Run("oversized buffer rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		_, err := NewFileAdapter(path, FileAdapterOptions{BufferSizeKB: MaxBufferSizeKB + 1})
		if !errors.Is(err, ErrBufferTooLarge) {
			t.Errorf("got %v, want ErrBufferTooLarge", err)
		}
	})

	t.Run("write after close fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		a, err := NewFileAdapter(path, FileAdapterOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if err := a.Close(); err != nil {
			t.Fatal(err)
		}
		if err := a.Write([]byte("x")); !errors.Is(err, ErrAdapterClosed) {
			t.Errorf("got %v, want ErrAdapterClosed", err)
		}
	})
}

func TestNullAdapter(t *testing.T) {
	a := NullAdapter{}
	if err := a.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if err := a.Reopen(); err != nil {
		t.Fatal(err)
	}
}
