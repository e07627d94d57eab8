package stash

import (
	"errors"
	"strings"
	"testing"
)

func TestRateLimitFilter(t *testing.T) {
	// 1 event/s with a burst of 2: the first two pass, the third drops.
	f := NewRateLimitFilter(1, 2)

	for i := 0; i < 2; i++ {
		ok, err := f.Apply(Event{})
		if err != nil || !ok {
			t.Fatalf("event %d: Apply = %v, %v", i, ok, err)
		}
	}
	ok, err := f.Apply(Event{})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("third event passed, want rate-limited abort")
	}
}

func TestRedactFilter(t *testing.T) {
	f, err := NewRedactFilter("", `\b\d{16}\b`, `secret-\w+`)
	if err != nil {
		t.Fatal(err)
	}

	event := Event{
		"message": "card 4111111111111111 charged",
		"auth":    "secret-abc123",
		"nested":  map[string]any{"token": "secret-xyz"},
		"list":    []any{"secret-1", 42},
		"tags":    []string{"secret-tag"},
		"count":   int64(3),
	}

	ok, err := f.Apply(event)
	if err != nil || !ok {
		t.Fatalf("Apply = %v, %v", ok, err)
	}

	if event.Message() != "card [REDACTED] charged" {
		t.Errorf("message = %q", event.Message())
	}
	if event["auth"] != "[REDACTED]" {
		t.Errorf("auth = %v", event["auth"])
	}
	if got := event["nested"].(map[string]any)["token"]; got != "[REDACTED]" {
		t.Errorf("nested token = %v", got)
	}
	if got := event["list"].([]any)[0]; got != "[REDACTED]" {
		t.Errorf("list[0] = %v", got)
	}
	if got := event["tags"].([]string)[0]; got != "[REDACTED]" {
		t.Errorf("tags[0] = %v", got)
	}
	if event["count"] != int64(3) {
		t.Errorf("count = %v, non-strings must pass through", event["count"])
	}
}

func TestRedactFilterValidation(t *testing.T) {
	t.Run("invalid pattern", func(t *testing.T) {
		if _, err := NewRedactFilter("", `[unclosed`); !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("got %v, want ErrInvalidPattern", err)
		}
	})

	t.Run("pattern too long", func(t *testing.T) {
		long := strings.Repeat("a", MaxPatternLength+1)
		if _, err := NewRedactFilter("", long); !errors.Is(err, ErrPatternTooLong) {
			t.Errorf("got %v, want ErrPatternTooLong", err)
		}
	})

	t.Run("custom mask", func(t *testing.T) {
		f, err := NewRedactFilter("***", `pw`)
		if err != nil {
			t.Fatal(err)
		}
		event := Event{"v": "pw"}
		if _, err := f.Apply(event); err != nil {
			t.Fatal(err)
		}
		if event["v"] != "***" {
			t.Errorf("v = %v", event["v"])
		}
	})
}

func TestDropIfFilter(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		op       string
		value    string
		event    Event
		wantPass bool
	}{
		{
			name: "equals match drops", path: "status", op: OpEquals, value: "404",
			event: Event{"status": "404"}, wantPass: false,
		},
		{
			name: "equals mismatch passes", path: "status", op: OpEquals, value: "404",
			event: Event{"status": "200"}, wantPass: true,
		},
		{
			name: "missing field passes", path: "status", op: OpEquals, value: "404",
			event: Event{}, wantPass: true,
		},
		{
			name: "dotted path", path: "request.status", op: OpEquals, value: "404",
			event: Event{"request": map[string]any{"status": "404"}}, wantPass: false,
		},
		{
			name: "non-string value stringifies", path: "code", op: OpEquals, value: "404",
			event: Event{"code": int64(404)}, wantPass: false,
		},
		{
			name: "contains", path: "message", op: OpContains, value: "health",
			event: Event{"message": "GET /healthz 200"}, wantPass: false,
		},
		{
			name: "regex", path: "path", op: OpRegex, value: `^/internal/`,
			event: Event{"path": "/internal/metrics"}, wantPass: false,
		},
		{
			name: "default op is equals", path: "status", op: "", value: "404",
			event: Event{"status": "404"}, wantPass: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewDropIfFilter(tt.path, tt.op, tt.value)
			if err != nil {
				t.Fatal(err)
			}
			pass, err := f.Apply(tt.event)
			if err != nil {
				t.Fatal(err)
			}
			if pass != tt.wantPass {
				t.Errorf("Apply = %v, want %v", pass, tt.wantPass)
			}
		})
	}

	t.Run("invalid regex condition", func(t *testing.T) {
		if _, err := NewDropIfFilter("f", OpRegex, `[`); !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("got %v, want ErrInvalidPattern", err)
		}
	})

	t.Run("empty field path rejected", func(t *testing.T) {
		if _, err := NewDropIfFilter("", OpEquals, "404"); !errors.Is(err, ErrConfigInvalid) {
			t.Errorf("got %v, want ErrConfigInvalid", err)
		}
	})
}

func TestEventIDFilter(t *testing.T) {
	f, err := NewEventIDFilter("")
	if err != nil {
		t.Fatal(err)
	}

	first := Event{}
	second := Event{}
	if _, err := f.Apply(first); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Apply(second); err != nil {
		t.Fatal(err)
	}

	id, ok := first["event_id"].(string)
	if !ok || len(id) != 36 {
		t.Errorf("event_id = %v", first["event_id"])
	}
	if first["event_id"] == second["event_id"] {
		t.Error("two events got the same ID")
	}

	t.Run("reserved field rejected", func(t *testing.T) {
		if _, err := NewEventIDFilter("@timestamp"); !errors.Is(err, ErrForbiddenField) {
			t.Errorf("got %v, want ErrForbiddenField", err)
		}
	})
}

func TestTruncateMessageFilter(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		message string
		want    string
	}{
		{"short message untouched", 10, "hello", "hello"},
		{"exact length untouched", 5, "hello", "hello"},
		{"long message cut", 5, "hello world", "hello..."},
		{"cut lands on rune boundary", 5, "aaaaézzz", "aaaa..."},
		{"zero max disables", 0, "hello", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewTruncateMessageFilter(tt.max)
			event := Event{"message": tt.message}
			ok, err := f.Apply(event)
			if err != nil || !ok {
				t.Fatalf("Apply = %v, %v", ok, err)
			}
			if event.Message() != tt.want {
				t.Errorf("message = %q, want %q", event.Message(), tt.want)
			}
		})
	}
}
