package stash

import (
	"testing"
	"time"
)

func BenchmarkNormalizeScalar(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Normalize(42)
		Normalize("a plain string")
		Normalize(1.5)
	}
}

func BenchmarkNormalizeMap(b *testing.B) {
	payload := map[string]any{
		"user":   "alice",
		"status": 200,
		"nested": map[string]any{"a": 1, "b": []any{1, 2, 3}},
		"when":   time.Now(),
	}
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Normalize(payload)
	}
}

func BenchmarkFieldsSet(b *testing.B) {
	f := NewFields()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = f.Set("key", "value")
	}
}

func BenchmarkBufferFlush(b *testing.B) {
	sink := SinkFunc(func(Event) error { return nil })
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf := NewBuffer(sink, BufferOptions{Buffering: true})
		_ = buf.AddMessage(NewMessage(SeverityInfo, "request handled"))
		_ = buf.Fields().Set("status", 200)
		buf.Tags().Add("api")
		_ = buf.Flush()
	}
}

func BenchmarkJSONEncoder(b *testing.B) {
	encoder := &JSONEncoder{}
	event := sampleEvent()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := encoder.Encode(event); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkKeyValueEncoder(b *testing.B) {
	encoder := &KeyValueEncoder{}
	event := sampleEvent()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := encoder.Encode(event); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFlowWrite(b *testing.B) {
	flow, err := NewFlow("bench", &JSONEncoder{}, NullAdapter{})
	if err != nil {
		b.Fatal(err)
	}
	event := sampleEvent()
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := flow.Write(event); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLoggerInfo(b *testing.B) {
	flow, err := NewFlow("bench", &JSONEncoder{}, NullAdapter{})
	if err != nil {
		b.Fatal(err)
	}
	logger := NewLogger(NewFlows(flow), LoggerOptions{})
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = logger.Info("request handled")
	}
}
