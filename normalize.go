package stash

import (
	"encoding"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"time"

	"github.com/cybergodev/stash/internal"
)

// NormalizeOptions controls value normalization.
type NormalizeOptions struct {
	// Scope is passed to deferred values of the form func(scope any) any
	// when they are evaluated.
	Scope any

	// KeepDeferred preserves zero-argument and scoped closures unevaluated
	// instead of invoking them. Used when storing template-like default
	// values for later resolution.
	KeepDeferred bool
}

// Capability interfaces probed by the normalization fallback, in priority
// order. A value implementing one of these is converted and re-normalized
// instead of degrading to a debug string.
type (
	// FieldsConvertible converts a value into a field mapping.
	FieldsConvertible interface{ ToFields() *Fields }

	// MapConvertible converts a value into a plain string-keyed map.
	MapConvertible interface{ ToMap() map[string]any }

	// ArrayConvertible converts a value into an ordered sequence.
	ArrayConvertible interface{ ToArray() []any }

	// TimeConvertible converts a value into a timestamp.
	TimeConvertible interface{ ToTime() time.Time }

	// NumberConvertible converts a value into a float.
	NumberConvertible interface{ ToNumber() float64 }

	// StackTracer exposes a stack trace on an error value. When present,
	// the trace is appended to the error's normalized string form.
	StackTracer interface{ StackTrace() string }
)

// Deferred is a lazily evaluated value. It is invoked during
// normalization unless NormalizeOptions.KeepDeferred is set.
type Deferred func() any

// ScopedDeferred is a lazily evaluated value receiving the evaluation
// scope supplied by the caller (NormalizeOptions.Scope).
type ScopedDeferred func(scope any) any

// Normalize converts an arbitrary value into the constrained JSON-safe
// value tree used throughout this package: UTF-8 string, int64, float64,
// bool, nil, *Fields or *Array. Normalization is total: it never panics
// and never returns an error. Values that cannot be cleanly converted
// degrade to a UTF-8-safe debug string.
func Normalize(v any) any {
	return normalize(v, NormalizeOptions{}, 0)
}

// NormalizeWith is Normalize with explicit options.
func NormalizeWith(v any, opts NormalizeOptions) any {
	return normalize(v, opts, 0)
}

// FormatTime renders a timestamp in the fixed event format: ISO-8601,
// UTC, exactly six fractional digits.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

func normalize(v any, opts NormalizeOptions, depth int) any {
	if depth > MaxNormalizeDepth {
		return debugString(v)
	}

	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		return val
	case string:
		return internal.UTF8(val)
	case []byte:
		return internal.UTF8Bytes(val)
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint:
		return normalizeUint(uint64(val))
	case uint64:
		return normalizeUint(val)
	case uintptr:
		return normalizeUint(uint64(val))
	case float32:
		return normalizeFloat(float64(val))
	case float64:
		return normalizeFloat(val)
	case time.Time:
		return FormatTime(val)
	case time.Duration:
		return val.String()
	case *big.Int:
		// Exact decimal form, never a lossy binary float.
		return val.String()
	case *big.Float:
		return val.Text('f', -1)
	case *big.Rat:
		return val.RatString()
	case complex64:
		return strconv.FormatComplex(complex128(val), 'g', -1, 64)
	case complex128:
		return strconv.FormatComplex(val, 'g', -1, 128)
	case *Fields:
		return val
	case *Array:
		return val
	case *Tags:
		return NewArray(anySlice(val.List())...)
	case Event:
		return normalizeMapValue(map[string]any(val), opts, depth)
	case map[string]any:
		return normalizeMapValue(val, opts, depth)
	case []any:
		return normalizeSliceValue(val, opts, depth)
	case error:
		return NormalizeError(val)
	case Deferred:
		return normalizeDeferred(func() any { return val() }, v, opts, depth)
	case ScopedDeferred:
		return normalizeDeferred(func() any { return val(opts.Scope) }, v, opts, depth)
	case func() any:
		return normalizeDeferred(func() any { return val() }, v, opts, depth)
	case func(scope any) any:
		return normalizeDeferred(func() any { return val(opts.Scope) }, v, opts, depth)
	}

	return normalizeReflect(v, opts, depth)
}

// NormalizeError renders an error as "<message> (<type>)", with the
// stack trace appended on its own lines when the error exposes one.
func NormalizeError(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error() + " (" + reflect.TypeOf(err).String() + ")"
	if st, ok := err.(StackTracer); ok {
		if trace := st.StackTrace(); trace != "" {
			s += "\n" + trace
		}
	}
	return internal.UTF8(s)
}

func normalizeUint(u uint64) any {
	if u > math.MaxInt64 {
		// Preserve the exact value as a decimal string.
		return strconv.FormatUint(u, 10)
	}
	return int64(u)
}

func normalizeFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		// NaN and infinities are not representable in JSON.
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return f
}

func normalizeMapValue(m map[string]any, opts NormalizeOptions, depth int) *Fields {
	fields := NewFields()
	for k, v := range m {
		fields.put(internal.UTF8(k), normalize(v, opts, depth+1))
	}
	return fields
}

func normalizeSliceValue(s []any, opts NormalizeOptions, depth int) *Array {
	arr := &Array{}
	for _, v := range s {
		arr.raw = append(arr.raw, normalize(v, opts, depth+1))
	}
	return arr
}

// normalizeDeferred invokes a lazy value and normalizes its result.
// A panic inside the closure degrades to a debug string of the closure
// itself; lazy values must never break normalization totality.
func normalizeDeferred(call func() any, original any, opts NormalizeOptions, depth int) (result any) {
	if opts.KeepDeferred {
		return original
	}
	defer func() {
		if r := recover(); r != nil {
			result = debugString(original)
		}
	}()
	return normalize(call(), opts, depth+1)
}

func normalizeReflect(v any, opts NormalizeOptions, depth int) any {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		// Conversion methods often live on the pointer receiver, e.g.
		// (*url.URL).String. Probe them before the pointer identity is
		// lost, but only for pointees that would otherwise degrade to a
		// debug string; maps, slices and time.Time keep their structural
		// handling.
		if k := rv.Elem().Kind(); k == reflect.Struct || k == reflect.Chan || k == reflect.Func {
			if _, isTime := rv.Elem().Interface().(time.Time); !isTime {
				if converted, ok := tryConvert(v); ok {
					return normalize(converted, opts, depth+1)
				}
			}
		}
		return normalize(rv.Elem().Interface(), opts, depth+1)
	case reflect.Map:
		fields := NewFields()
		iter := rv.MapRange()
		for iter.Next() {
			key := keyString(iter.Key().Interface(), opts, depth)
			fields.put(key, normalize(iter.Value().Interface(), opts, depth+1))
		}
		return fields
	case reflect.Slice, reflect.Array:
		arr := &Array{}
		for i := 0; i < rv.Len(); i++ {
			arr.raw = append(arr.raw, normalize(rv.Index(i).Interface(), opts, depth+1))
		}
		return arr
	}

	return normalizeFallback(v, opts, depth)
}

// normalizeFallback attempts a fixed priority order of shape conversions
// before degrading to a debug string. Each probe is guarded: a panic in
// the conversion counts as a failed conversion, not a crash.
func normalizeFallback(v any, opts NormalizeOptions, depth int) any {
	if converted, ok := tryConvert(v); ok {
		return normalize(converted, opts, depth+1)
	}
	return debugString(v)
}

func tryConvert(v any) (converted any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			converted, ok = nil, false
		}
	}()

	switch c := v.(type) {
	case FieldsConvertible:
		return c.ToFields(), true
	case MapConvertible:
		return c.ToMap(), true
	case ArrayConvertible:
		return c.ToArray(), true
	case TimeConvertible:
		return c.ToTime(), true
	case NumberConvertible:
		return c.ToNumber(), true
	case fmt.Stringer:
		return c.String(), true
	case encoding.TextMarshaler:
		text, err := c.MarshalText()
		if err != nil {
			return nil, false
		}
		return string(text), true
	}
	return nil, false
}

// keyString coerces a map key to a UTF-8 string.
func keyString(key any, opts NormalizeOptions, depth int) string {
	if s, ok := key.(string); ok {
		return internal.UTF8(s)
	}
	norm := normalize(key, opts, depth+1)
	if s, ok := norm.(string); ok {
		return s
	}
	return internal.UTF8(fmt.Sprintf("%v", norm))
}

// debugString is the terminal fallback: a UTF-8-safe inspect string of
// the original value.
func debugString(v any) string {
	return internal.UTF8(fmt.Sprintf("%+v", v))
}

func anySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
