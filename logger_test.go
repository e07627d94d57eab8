package stash

import (
	"errors"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T, opts LoggerOptions) (*Logger, *lineAdapter) {
	t.Helper()
	adapter := &lineAdapter{}
	flow, err := NewFlow("test", &MessageEncoder{}, adapter)
	if err != nil {
		t.Fatal(err)
	}
	return NewLogger(NewFlows(flow), opts), adapter
}

func TestLoggerLevels(t *testing.T) {
	logger, adapter := newTestLogger(t, LoggerOptions{Level: SeverityWarn})

	if err := logger.Debug("hidden"); err != nil {
		t.Fatal(err)
	}
	if err := logger.Info("hidden"); err != nil {
		t.Fatal(err)
	}
	if err := logger.Warn("shown"); err != nil {
		t.Fatal(err)
	}
	if err := logger.Error("also shown"); err != nil {
		t.Fatal(err)
	}

	if len(adapter.lines) != 2 {
		t.Fatalf("lines = %v", adapter.lines)
	}
	if adapter.lines[0] != "shown" || adapter.lines[1] != "also shown" {
		t.Errorf("lines = %v", adapter.lines)
	}

	t.Run("enabled", func(t *testing.T) {
		if logger.Enabled(SeverityInfo) {
			t.Error("Info enabled at Warn level")
		}
		if !logger.Enabled(SeverityWarn) {
			t.Error("Warn disabled at Warn level")
		}
	})

	t.Run("set level", func(t *testing.T) {
		if err := logger.SetLevel(SeverityDebug); err != nil {
			t.Fatal(err)
		}
		if err := logger.Debug("now visible"); err != nil {
			t.Fatal(err)
		}
		if adapter.lines[len(adapter.lines)-1] != "now visible" {
			t.Errorf("lines = %v", adapter.lines)
		}

		if err := logger.SetLevel(Severity(99)); !errors.Is(err, ErrInvalidSeverity) {
			t.Errorf("got %v, want ErrInvalidSeverity", err)
		}
	})
}

func TestLoggerArgJoining(t *testing.T) {
	logger, adapter := newTestLogger(t, LoggerOptions{})

	if err := logger.Info("user", "alice", "logged in after", 3, "attempts"); err != nil {
		t.Fatal(err)
	}
	if adapter.lines[0] != "user alice logged in after 3 attempts" {
		t.Errorf("got %q", adapter.lines[0])
	}

	if err := logger.Infof("status=%d path=%s", 200, "/"); err != nil {
		t.Fatal(err)
	}
	if adapter.lines[1] != "status=200 path=/" {
		t.Errorf("got %q", adapter.lines[1])
	}

	if err := logger.Info(); err != nil {
		t.Fatal(err)
	}
	if adapter.lines[2] != "" {
		t.Errorf("got %q, want empty message", adapter.lines[2])
	}
}

func TestLoggerWithBuffer(t *testing.T) {
	t.Run("one event per unit of work", func(t *testing.T) {
		logger, adapter := newTestLogger(t, LoggerOptions{})

		err := logger.WithBuffer(func(b *Buffer) error {
			if err := b.AddMessage(NewMessage(SeverityInfo, "step one\n")); err != nil {
				return err
			}
			if err := b.Fields().Set("request_id", "r-1"); err != nil {
				return err
			}
			return b.AddMessage(NewMessage(SeverityInfo, "step two"))
		})
		if err != nil {
			t.Fatal(err)
		}

		if len(adapter.lines) != 1 {
			t.Fatalf("lines = %v, want a single combined event", adapter.lines)
		}
		if adapter.lines[0] != "step one\nstep two" {
			t.Errorf("got %q", adapter.lines[0])
		}
	})

	t.Run("fn error skips the flush", func(t *testing.T) {
		logger, adapter := newTestLogger(t, LoggerOptions{})
		boom := errors.New("handler failed")

		err := logger.WithBuffer(func(b *Buffer) error {
			if err := b.AddMessage(NewMessage(SeverityInfo, "doomed")); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("got %v, want handler error", err)
		}
		if len(adapter.lines) != 0 {
			t.Errorf("discarded buffer still flushed: %v", adapter.lines)
		}
	})

	t.Run("empty buffer flushes nothing", func(t *testing.T) {
		logger, adapter := newTestLogger(t, LoggerOptions{})
		if err := logger.WithBuffer(func(b *Buffer) error { return nil }); err != nil {
			t.Fatal(err)
		}
		if len(adapter.lines) != 0 {
			t.Errorf("empty buffer flushed: %v", adapter.lines)
		}
	})
}

func TestLoggerFieldsAttached(t *testing.T) {
	adapter := &lineAdapter{}
	flow, err := NewFlow("test", &JSONEncoder{}, adapter)
	if err != nil {
		t.Fatal(err)
	}
	logger := NewLogger(NewFlows(flow), LoggerOptions{})

	if err := logger.Fields().Set("service", "billing"); err != nil {
		t.Fatal(err)
	}
	logger.Tags().Add("prod")

	if err := logger.Info("first"); err != nil {
		t.Fatal(err)
	}
	if len(adapter.lines) != 1 {
		t.Fatalf("lines = %v", adapter.lines)
	}
	for _, want := range []string{`"service":"billing"`, `"tags":["prod"]`, `"message":"first"`} {
		if !strings.Contains(adapter.lines[0], want) {
			t.Errorf("event %q missing %q", adapter.lines[0], want)
		}
	}
}

func TestLoggerAddError(t *testing.T) {
	logger, _ := newTestLogger(t, LoggerOptions{Buffering: true})

	if err := logger.AddError(errors.New("oops")); err != nil {
		t.Fatal(err)
	}
	if v, _ := logger.Fields().Get(FieldErrorMessage); v != "oops" {
		t.Errorf("error_message = %v", v)
	}
}

func TestLoggerClose(t *testing.T) {
	logger, adapter := newTestLogger(t, LoggerOptions{Buffering: true})

	if err := logger.Info("pending"); err != nil {
		t.Fatal(err)
	}
	if len(adapter.lines) != 0 {
		t.Fatal("buffering logger flushed early")
	}

	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}
	if len(adapter.lines) != 1 || adapter.lines[0] != "pending" {
		t.Errorf("lines = %v", adapter.lines)
	}
}
