package stash

import (
	"sync"

	"github.com/tidwall/gjson"

	"github.com/cybergodev/stash/internal"
)

// Fields is a mutable, deep-mergeable mapping from UTF-8 string keys to
// normalized values. Insertion order is preserved. All mutation paths
// re-normalize their inputs, so a value read back from Fields is always
// part of the constrained JSON-safe value tree.
//
// Fields is safe for concurrent use. Each instance guards its own
// structural mutation with a single mutex; operations on two different
// containers are individually consistent but not atomic as a pair.
type Fields struct {
	mu   sync.Mutex
	keys []string
	raw  map[string]any
}

// NewFields creates an empty Fields container.
func NewFields() *Fields {
	return &Fields{raw: make(map[string]any)}
}

// NewFieldsFrom creates a Fields container from a plain map. Keys are
// UTF-8 cleaned and values normalized. Reserved field names are allowed
// here; enforcement applies to Set and Merge, not to construction of
// nested values.
func NewFieldsFrom(m map[string]any) *Fields {
	return normalizeMapValue(m, NormalizeOptions{}, 0)
}

// put stores an already-normalized value without forbidden-key
// enforcement. Only normalization and internal merge paths use it.
func (f *Fields) put(key string, value any) {
	f.mu.Lock()
	f.putLocked(key, value)
	f.mu.Unlock()
}

func (f *Fields) putLocked(key string, value any) {
	if f.raw == nil {
		f.raw = make(map[string]any)
	}
	if _, exists := f.raw[key]; !exists {
		f.keys = append(f.keys, key)
	}
	f.raw[key] = value
}

// Get returns the value stored under key. The key is UTF-8 normalized
// before lookup, the same way Set normalizes it.
func (f *Fields) Get(key string) (any, bool) {
	key = internal.UTF8(key)
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.raw[key]
	return v, ok
}

// Set normalizes value and stores it under key. Writing a reserved field
// name fails with ErrForbiddenField and leaves the container unchanged.
func (f *Fields) Set(key string, value any) error {
	return f.SetWith(key, value, NormalizeOptions{})
}

// SetWith is Set with explicit normalization options.
func (f *Fields) SetWith(key string, value any, opts NormalizeOptions) error {
	key = internal.UTF8(key)
	if IsForbiddenField(key) {
		return newError(ErrCodeForbiddenField, "cannot set reserved field", map[string]any{"key": key})
	}
	f.put(key, normalize(value, opts, 0))
	return nil
}

// SetUnlessForbidden is the non-forcing form of Set: a write to a
// reserved field name is silently dropped instead of failing.
func (f *Fields) SetUnlessForbidden(key string, value any) {
	key = internal.UTF8(key)
	if IsForbiddenField(key) {
		return
	}
	f.put(key, Normalize(value))
}

// SetIfMissing stores the result of compute under key when the key is
// absent or force is true, and returns the value now stored. compute is
// never invoked otherwise (the set-with-default pattern for expensive
// defaults).
func (f *Fields) SetIfMissing(key string, force bool, compute func() any) (any, error) {
	key = internal.UTF8(key)
	if IsForbiddenField(key) {
		return nil, newError(ErrCodeForbiddenField, "cannot set reserved field", map[string]any{"key": key})
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.raw[key]; ok && !force {
		return existing, nil
	}
	value := Normalize(compute())
	f.putLocked(key, value)
	return value, nil
}

// Delete removes key and returns the value that was stored, or nil.
func (f *Fields) Delete(key string) any {
	key = internal.UTF8(key)
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.raw[key]
	if !ok {
		return nil
	}
	delete(f.raw, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
	return v
}

// Keys returns the field names in insertion order.
func (f *Fields) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, len(f.keys))
	copy(keys, f.keys)
	return keys
}

// Values returns the field values in insertion order.
func (f *Fields) Values() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	values := make([]any, 0, len(f.keys))
	for _, k := range f.keys {
		values = append(values, f.raw[k])
	}
	return values
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

// Range calls fn for each key/value pair over a consistent snapshot,
// in insertion order, until fn returns false.
func (f *Fields) Range(fn func(key string, value any) bool) {
	f.mu.Lock()
	keys := make([]string, len(f.keys))
	copy(keys, f.keys)
	raw := make(map[string]any, len(f.raw))
	for k, v := range f.raw {
		raw[k] = v
	}
	f.mu.Unlock()

	for _, k := range keys {
		if !fn(k, raw[k]) {
			return
		}
	}
}

// Merge returns a new container combining the receiver with other.
// With force, conflicting keys take the incoming value and reserved keys
// in the incoming data fail with ErrForbiddenField; without force,
// existing non-nil values win and reserved keys are silently skipped.
// other may be *Fields, Event, any map, or a deferred value producing
// one of those; anything else fails with ErrNotAMap.
func (f *Fields) Merge(other any, force bool) (*Fields, error) {
	clone := f.Clone()
	if err := clone.MergeInPlace(other, force); err != nil {
		return nil, err
	}
	return clone, nil
}

// MergeInPlace is the destructive form of Merge.
func (f *Fields) MergeInPlace(other any, force bool) error {
	return f.merge(other, force, false, NormalizeOptions{})
}

// DeepMerge is like Merge, except that when the existing and incoming
// values at a key are both field maps they are merged recursively, and
// when both are arrays they are union-concatenated, instead of one side
// replacing the other.
func (f *Fields) DeepMerge(other any, force bool) (*Fields, error) {
	clone := f.Clone()
	if err := clone.DeepMergeInPlace(other, force); err != nil {
		return nil, err
	}
	return clone, nil
}

// DeepMergeInPlace is the destructive form of DeepMerge.
func (f *Fields) DeepMergeInPlace(other any, force bool) error {
	return f.merge(other, force, true, NormalizeOptions{})
}

// MergeWith merges with explicit normalization options (deferred values
// in other are evaluated against opts.Scope).
func (f *Fields) MergeWith(other any, force, deep bool, opts NormalizeOptions) error {
	return f.merge(other, force, deep, opts)
}

func (f *Fields) merge(other any, force, deep bool, opts NormalizeOptions) error {
	incoming, err := coerceFields(other, opts)
	if err != nil {
		return err
	}
	return f.mergeFields(incoming, force, deep, true)
}

// mergeFields folds incoming into f. enforce applies the forbidden-key
// rules; recursion into nested containers disables it since reserved
// names are only reserved at the event's top level.
func (f *Fields) mergeFields(incoming *Fields, force, deep, enforce bool) error {
	if incoming == nil || incoming == f {
		return nil
	}

	incoming.mu.Lock()
	keys := make([]string, len(incoming.keys))
	copy(keys, incoming.keys)
	values := make(map[string]any, len(incoming.raw))
	for k, v := range incoming.raw {
		values[k] = v
	}
	incoming.mu.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, key := range keys {
		if enforce && IsForbiddenField(key) {
			if force {
				return newError(ErrCodeForbiddenField, "cannot merge reserved field", map[string]any{"key": key})
			}
			continue
		}

		// Composite values are cloned on the way in so later mutation of
		// the merge source cannot leak into the receiver.
		value := cloneContainerValue(values[key])
		existing, exists := f.raw[key]
		if !exists {
			f.putLocked(key, value)
			continue
		}

		if deep {
			if merged, ok, err := deepMergeValues(existing, value, force); err != nil {
				return err
			} else if ok {
				f.putLocked(key, merged)
				continue
			}
		}

		if force || existing == nil {
			f.putLocked(key, value)
		}
	}
	return nil
}

// deepMergeValues merges two values of matching composite type. The
// second return value reports whether a composite merge applied.
func deepMergeValues(existing, incoming any, force bool) (any, bool, error) {
	if ef, ok := existing.(*Fields); ok {
		if nf, ok := incoming.(*Fields); ok {
			if err := ef.mergeFields(nf, force, true, false); err != nil {
				return nil, false, err
			}
			return ef, true, nil
		}
	}
	if ea, ok := existing.(*Array); ok {
		if na, ok := incoming.(*Array); ok {
			union, err := ea.Union(na)
			if err != nil {
				return nil, false, err
			}
			return union, true, nil
		}
	}
	return nil, false, nil
}

// coerceFields converts a merge input into a *Fields container.
func coerceFields(other any, opts NormalizeOptions) (*Fields, error) {
	switch val := other.(type) {
	case nil:
		return nil, newError(ErrCodeNotAMap, "cannot merge nil", nil)
	case *Fields:
		return val, nil
	case Event:
		return normalizeMapValue(map[string]any(val), opts, 0), nil
	case map[string]any:
		return normalizeMapValue(val, opts, 0), nil
	}

	// Deferred values and reflected maps go through full normalization.
	norm := normalize(other, opts, 0)
	if fields, ok := norm.(*Fields); ok {
		return fields, nil
	}
	return nil, newError(ErrCodeNotAMap, "cannot coerce value to field map", map[string]any{"value": norm})
}

// MergeJSON merges a JSON object document into the container. Invalid
// JSON or a non-object document fails with ErrNotAMap; otherwise the
// parsed fields merge with the given force semantics.
func (f *Fields) MergeJSON(data []byte, force bool) error {
	if !gjson.ValidBytes(data) {
		return newError(ErrCodeNotAMap, "invalid JSON document", nil)
	}
	parsed := gjson.ParseBytes(data)
	if !parsed.IsObject() {
		return newError(ErrCodeNotAMap, "JSON document is not an object", nil)
	}
	return f.MergeInPlace(parsed.Value(), force)
}

// Reset removes all fields.
func (f *Fields) Reset() {
	f.mu.Lock()
	f.keys = nil
	f.raw = make(map[string]any)
	f.mu.Unlock()
}

// Clone returns a deep copy: nested containers are copied, scalar values
// shared (they are immutable).
func (f *Fields) Clone() *Fields {
	f.mu.Lock()
	defer f.mu.Unlock()

	clone := &Fields{
		keys: make([]string, len(f.keys)),
		raw:  make(map[string]any, len(f.raw)),
	}
	copy(clone.keys, f.keys)
	for k, v := range f.raw {
		clone.raw[k] = cloneContainerValue(v)
	}
	return clone
}

// ToMap returns a deep plain-value snapshot: nested Fields become
// map[string]any, nested Arrays become []any. The result shares no
// state with the container.
func (f *Fields) ToMap() map[string]any {
	f.mu.Lock()
	keys := make([]string, len(f.keys))
	copy(keys, f.keys)
	raw := make(map[string]any, len(f.raw))
	for k, v := range f.raw {
		raw[k] = v
	}
	f.mu.Unlock()

	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = unwrapValue(raw[k])
	}
	return out
}

func cloneContainerValue(v any) any {
	switch val := v.(type) {
	case *Fields:
		return val.Clone()
	case *Array:
		return val.Clone()
	default:
		return v
	}
}

// unwrapValue converts container values into plain maps and slices.
func unwrapValue(v any) any {
	switch val := v.(type) {
	case *Fields:
		return val.ToMap()
	case *Array:
		return val.ToSlice()
	default:
		return v
	}
}
