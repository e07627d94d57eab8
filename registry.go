package stash

import (
	"os"
	"sync"
	"time"
)

// Params carries the free-form settings block of a configured pipeline
// component. Factories pull typed values out with the accessor methods;
// missing or mistyped entries fall back to the given default.
type Params map[string]any

func (p Params) String(key, fallback string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return fallback
}

func (p Params) Int(key string, fallback int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

func (p Params) Float(key string, fallback float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}

func (p Params) Bool(key string, fallback bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return fallback
}

func (p Params) Duration(key string, fallback time.Duration) time.Duration {
	switch v := p[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Millisecond
	case int64:
		return time.Duration(v) * time.Millisecond
	}
	return fallback
}

func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			if s, ok := elem.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Registry maps component type names to factories building them from
// configuration params. Safe for concurrent use.
type Registry[T any] struct {
	mu        sync.RWMutex
	factories map[string]func(Params) (T, error)
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{factories: make(map[string]func(Params) (T, error))}
}

// Register binds name to factory. Registering a name twice fails with
// ErrDuplicateType; components cannot be silently shadowed.
func (r *Registry[T]) Register(name string, factory func(Params) (T, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return newError(ErrCodeDuplicateType, "component type already registered", map[string]any{"type": name})
	}
	r.factories[name] = factory
	return nil
}

// Build constructs a component of the named type. An unregistered name
// fails with ErrUnknownType.
func (r *Registry[T]) Build(name string, params Params) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		var zero T
		return zero, newError(ErrCodeUnknownType, "unknown component type", map[string]any{"type": name})
	}
	return factory(params)
}

// Types returns the registered type names, unsorted.
func (r *Registry[T]) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// Registries bundles the component registries consulted when building a
// pipeline from configuration.
type Registries struct {
	Filters  *Registry[Filter]
	Encoders *Registry[Encoder]
	Adapters *Registry[Adapter]
}

// DefaultRegistries returns registries pre-populated with every built-in
// filter, encoder and adapter under its canonical configuration name.
func DefaultRegistries() *Registries {
	r := &Registries{
		Filters:  NewRegistry[Filter](),
		Encoders: NewRegistry[Encoder](),
		Adapters: NewRegistry[Adapter](),
	}

	// Registration of built-ins cannot collide; ignore the duplicate error.
	must := func(err error) { _ = err }

	must(r.Filters.Register("rate_limit", func(p Params) (Filter, error) {
		return Named("rate_limit", NewRateLimitFilter(p.Float("events_per_second", 1000), p.Int("burst", 0))), nil
	}))
	must(r.Filters.Register("redact", func(p Params) (Filter, error) {
		f, err := NewRedactFilter(p.String("mask", ""), p.Strings("patterns")...)
		if err != nil {
			return nil, err
		}
		return Named("redact", f), nil
	}))
	must(r.Filters.Register("drop_if", func(p Params) (Filter, error) {
		f, err := NewDropIfFilter(p.String("field", ""), p.String("op", ""), p.String("value", ""))
		if err != nil {
			return nil, err
		}
		return Named("drop_if", f), nil
	}))
	must(r.Filters.Register("unique_id", func(p Params) (Filter, error) {
		f, err := NewEventIDFilter(p.String("field", ""))
		if err != nil {
			return nil, err
		}
		return Named("unique_id", f), nil
	}))
	must(r.Filters.Register("truncate_message", func(p Params) (Filter, error) {
		return Named("truncate_message", NewTruncateMessageFilter(p.Int("max_bytes", 8192))), nil
	}))

	must(r.Encoders.Register("json", func(p Params) (Encoder, error) {
		return &JSONEncoder{Pretty: p.Bool("pretty", false), Indent: p.String("indent", "")}, nil
	}))
	must(r.Encoders.Register("key_value", func(Params) (Encoder, error) {
		return &KeyValueEncoder{}, nil
	}))
	must(r.Encoders.Register("message", func(Params) (Encoder, error) {
		return &MessageEncoder{}, nil
	}))
	must(r.Encoders.Register("raw", func(Params) (Encoder, error) {
		return &RawEncoder{}, nil
	}))

	must(r.Adapters.Register("file", func(p Params) (Adapter, error) {
		return NewFileAdapter(p.String("path", ""), FileAdapterOptions{
			BufferSizeKB:  p.Int("buffer_size_kb", 0),
			FlushInterval: p.Duration("flush_interval", 0),
		})
	}))
	must(r.Adapters.Register("stdout", func(Params) (Adapter, error) {
		return NewWriterAdapter(os.Stdout)
	}))
	must(r.Adapters.Register("stderr", func(Params) (Adapter, error) {
		return NewWriterAdapter(os.Stderr)
	}))
	must(r.Adapters.Register("null", func(Params) (Adapter, error) {
		return NullAdapter{}, nil
	}))

	return r
}
