package stash

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Tags is a mutable, deduplicated set of UTF-8 tag strings. Insertion
// order is not significant; List returns tags sorted. Blank tags are
// dropped silently. Safe for concurrent use.
type Tags struct {
	mu  sync.Mutex
	raw map[string]struct{}
}

// NewTags creates a Tags set containing the given values.
func NewTags(values ...any) *Tags {
	t := &Tags{raw: make(map[string]struct{})}
	t.Merge(values...)
	return t
}

// Add normalizes tag and inserts it, returning the stored string form.
// Blank input is a no-op and returns "". A single added tag goes through
// exactly the same normalization path as a bulk Merge.
func (t *Tags) Add(tag any) string {
	s := tagString(tag, NormalizeOptions{})
	if s == "" {
		return ""
	}
	t.mu.Lock()
	if t.raw == nil {
		t.raw = make(map[string]struct{})
	}
	t.raw[s] = struct{}{}
	t.mu.Unlock()
	return s
}

// Merge inserts all given values. Nested slices, arrays, Tags sets and
// deferred values are flattened fully before insertion.
func (t *Tags) Merge(values ...any) {
	t.MergeWith(NormalizeOptions{}, values...)
}

// MergeWith is Merge with explicit normalization options for deferred
// tag values.
func (t *Tags) MergeWith(opts NormalizeOptions, values ...any) {
	for _, v := range values {
		t.mergeValue(v, opts, 0)
	}
}

func (t *Tags) mergeValue(v any, opts NormalizeOptions, depth int) {
	if depth > MaxNormalizeDepth {
		return
	}

	switch val := v.(type) {
	case nil:
		return
	case *Tags:
		for _, tag := range val.List() {
			t.addString(tag)
		}
		return
	case *Array:
		for _, elem := range val.Snapshot() {
			t.mergeValue(elem, opts, depth+1)
		}
		return
	case []string:
		for _, tag := range val {
			t.addString(tagString(tag, opts))
		}
		return
	case []any:
		for _, elem := range val {
			t.mergeValue(elem, opts, depth+1)
		}
		return
	}

	// Deferred values and reflected sequences flatten after
	// normalization; everything else inserts as a single tag.
	norm := normalize(v, opts, depth)
	if arr, ok := norm.(*Array); ok {
		for _, elem := range arr.Snapshot() {
			t.mergeValue(elem, opts, depth+1)
		}
		return
	}
	if fields, ok := norm.(*Fields); ok {
		// Maps have no meaningful tag form; use their keys.
		for _, key := range fields.Keys() {
			t.addString(key)
		}
		return
	}
	t.addString(scalarTag(norm))
}

func (t *Tags) addString(s string) {
	if s == "" {
		return
	}
	t.mu.Lock()
	if t.raw == nil {
		t.raw = make(map[string]struct{})
	}
	t.raw[s] = struct{}{}
	t.mu.Unlock()
}

// Contains reports whether the set holds tag. The probe is normalized
// identically to insertion, so encoding differences cannot cause false
// negatives.
func (t *Tags) Contains(tag any) bool {
	s := tagString(tag, NormalizeOptions{})
	if s == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.raw[s]
	return ok
}

// Delete removes tag, reporting whether it was present.
func (t *Tags) Delete(tag any) bool {
	s := tagString(tag, NormalizeOptions{})
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.raw[s]
	if ok {
		delete(t.raw, s)
	}
	return ok
}

// Len returns the number of tags.
func (t *Tags) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.raw)
}

// List returns a sorted copy of the tags.
func (t *Tags) List() []string {
	t.mu.Lock()
	tags := make([]string, 0, len(t.raw))
	for tag := range t.raw {
		tags = append(tags, tag)
	}
	t.mu.Unlock()

	sort.Strings(tags)
	return tags
}

// Reset removes all tags.
func (t *Tags) Reset() {
	t.mu.Lock()
	t.raw = make(map[string]struct{})
	t.mu.Unlock()
}

// Clone returns an independent copy of the set.
func (t *Tags) Clone() *Tags {
	t.mu.Lock()
	defer t.mu.Unlock()

	clone := &Tags{raw: make(map[string]struct{}, len(t.raw))}
	for tag := range t.raw {
		clone.raw[tag] = struct{}{}
	}
	return clone
}

// tagString converts a single tag input to its stored string form.
// Blank results (empty or whitespace-only) collapse to "".
func tagString(tag any, opts NormalizeOptions) string {
	return scalarTag(normalize(tag, opts, 0))
}

func scalarTag(norm any) string {
	var s string
	switch val := norm.(type) {
	case nil:
		return ""
	case string:
		s = val
	default:
		s = fmt.Sprintf("%v", val)
	}
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}
