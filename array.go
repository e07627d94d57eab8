package stash

import (
	"reflect"
	"sync"
)

// Array is a mutable ordered sequence of normalized values. All
// insertion paths re-normalize their inputs. Safe for concurrent use;
// each instance guards its own mutation with a single mutex.
type Array struct {
	mu  sync.Mutex
	raw []any
}

// NewArray creates an Array containing the normalized values.
func NewArray(values ...any) *Array {
	a := &Array{}
	a.Append(values...)
	return a
}

// Get returns the element at index i.
func (a *Array) Get(i int) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.raw) {
		return nil, false
	}
	return a.raw[i], true
}

// Set replaces the element at index i with the normalized value.
// An out-of-range index fails with ErrIndexRange.
func (a *Array) Set(i int, value any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.raw) {
		return newError(ErrCodeIndexRange, "array index out of range", map[string]any{"index": i, "len": len(a.raw)})
	}
	a.raw[i] = Normalize(value)
	return nil
}

// Append normalizes and appends the given values.
func (a *Array) Append(values ...any) {
	if len(values) == 0 {
		return
	}
	normalized := make([]any, len(values))
	for i, v := range values {
		normalized[i] = Normalize(v)
	}
	a.mu.Lock()
	a.raw = append(a.raw, normalized...)
	a.mu.Unlock()
}

// Len returns the number of elements.
func (a *Array) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.raw)
}

// Snapshot returns a shallow copy of the elements.
func (a *Array) Snapshot() []any {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]any, len(a.raw))
	copy(out, a.raw)
	return out
}

// Range calls fn for each element over a consistent snapshot until fn
// returns false.
func (a *Array) Range(fn func(i int, value any) bool) {
	for i, v := range a.Snapshot() {
		if !fn(i, v) {
			return
		}
	}
}

// Concat returns a new Array holding the receiver's elements followed by
// the elements of other. other may be *Array, any slice or array, or a
// deferred value producing one; anything else fails with ErrNotAnArray.
func (a *Array) Concat(other any) (*Array, error) {
	elems, err := coerceArray(other)
	if err != nil {
		return nil, err
	}
	result := &Array{raw: a.Snapshot()}
	result.raw = append(result.raw, elems...)
	return result, nil
}

// Union returns a new Array with the receiver's elements followed by the
// elements of other not already present. Order follows the receiver.
func (a *Array) Union(other any) (*Array, error) {
	elems, err := coerceArray(other)
	if err != nil {
		return nil, err
	}
	result := &Array{raw: a.Snapshot()}
	for _, e := range elems {
		if !containsValue(result.raw, e) {
			result.raw = append(result.raw, e)
		}
	}
	return result, nil
}

// Diff returns a new Array with the receiver's elements that are not
// present in other, preserving the receiver's order.
func (a *Array) Diff(other any) (*Array, error) {
	elems, err := coerceArray(other)
	if err != nil {
		return nil, err
	}
	result := &Array{}
	for _, e := range a.Snapshot() {
		if !containsValue(elems, e) {
			result.raw = append(result.raw, e)
		}
	}
	return result, nil
}

// Intersect returns a new Array with the receiver's elements that are
// also present in other, preserving the receiver's order.
func (a *Array) Intersect(other any) (*Array, error) {
	elems, err := coerceArray(other)
	if err != nil {
		return nil, err
	}
	result := &Array{}
	for _, e := range a.Snapshot() {
		if containsValue(elems, e) && !containsValue(result.raw, e) {
			result.raw = append(result.raw, e)
		}
	}
	return result, nil
}

// Clone returns a deep copy: nested containers are copied, scalar values
// shared.
func (a *Array) Clone() *Array {
	a.mu.Lock()
	defer a.mu.Unlock()
	clone := &Array{raw: make([]any, len(a.raw))}
	for i, v := range a.raw {
		clone.raw[i] = cloneContainerValue(v)
	}
	return clone
}

// ToSlice returns a deep plain-value snapshot: nested Fields become
// map[string]any, nested Arrays become []any.
func (a *Array) ToSlice() []any {
	snapshot := a.Snapshot()
	out := make([]any, len(snapshot))
	for i, v := range snapshot {
		out[i] = unwrapValue(v)
	}
	return out
}

// coerceArray converts a sequence input into normalized elements.
func coerceArray(other any) ([]any, error) {
	switch val := other.(type) {
	case nil:
		return nil, newError(ErrCodeNotAnArray, "cannot coerce nil to array", nil)
	case *Array:
		return val.Snapshot(), nil
	}

	norm := Normalize(other)
	if arr, ok := norm.(*Array); ok {
		return arr.Snapshot(), nil
	}
	return nil, newError(ErrCodeNotAnArray, "cannot coerce value to array", map[string]any{"value": norm})
}

// containsValue tests deep membership. Normalized values may contain
// nested containers, which are compared by their plain snapshots.
func containsValue(list []any, target any) bool {
	for _, e := range list {
		if equalValue(e, target) {
			return true
		}
	}
	return false
}

func equalValue(a, b any) bool {
	return reflect.DeepEqual(unwrapValue(a), unwrapValue(b))
}
