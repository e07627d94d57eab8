package stash

import (
	"reflect"
	"sync"
)

// FilterChain is an ordered, concurrently mutable list of filters.
//
// Call iterates over a snapshot taken atomically at call start, so
// structural mutation from another goroutine never corrupts or affects
// an in-flight run. Filters are addressed by locator:
//
//   - int: positional index, 0 being the first (oldest) entry
//   - string: the registered name of a Named filter, or the concrete
//     type name of an unnamed one
//   - reflect.Type: the filter's underlying concrete type
//   - Filter: reference identity; function-backed filters compare by
//     code pointer, so closures built from the same literal need a
//     Named wrapper to be addressed individually
//
// The first match wins. Lookup operations return a not-found sentinel
// (-1 or nil); mutating operations fail with ErrFilterNotFound since a
// silent no-op there would be more surprising.
type FilterChain struct {
	mu      sync.Mutex
	filters []Filter
}

// NewFilterChain creates a chain with the given filters. Nil entries are
// dropped.
func NewFilterChain(filters ...Filter) *FilterChain {
	c := &FilterChain{}
	c.Append(filters...)
	return c
}

// Call runs the event through each filter in order. It returns false
// with a nil error when a filter aborted the chain (the event must be
// dropped without a write), and propagates the first filter error
// unmodified. The event may be left partially mutated in both cases;
// filters are expected to be side-effecting on the passed structure.
func (c *FilterChain) Call(event Event) (bool, error) {
	for _, f := range c.snapshot() {
		ok, err := f.Apply(event)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Append adds filters to the end of the chain. Nil filters are ignored.
func (c *FilterChain) Append(filters ...Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range filters {
		if f != nil {
			c.filters = append(c.filters, f)
		}
	}
}

// Index returns the position of the first filter matching loc, or -1.
func (c *FilterChain) Index(loc any) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexLocked(loc)
}

// Get returns the first filter matching loc, or nil.
func (c *FilterChain) Get(loc any) Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(loc); i >= 0 {
		return c.filters[i]
	}
	return nil
}

// Set replaces the filter matching loc. An unresolvable locator fails
// with ErrFilterNotFound; a nil filter with ErrNilFilter.
func (c *FilterChain) Set(loc any, filter Filter) error {
	if filter == nil {
		return newError(ErrCodeNilFilter, "cannot store nil filter", nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(loc)
	if i < 0 {
		return notFoundError(loc)
	}
	c.mutate(func(filters []Filter) []Filter {
		filters[i] = filter
		return filters
	})
	return nil
}

// InsertBefore inserts filter immediately before the entry matching loc.
func (c *FilterChain) InsertBefore(loc any, filter Filter) error {
	return c.insert(loc, filter, 0)
}

// InsertAfter inserts filter immediately after the entry matching loc.
func (c *FilterChain) InsertAfter(loc any, filter Filter) error {
	return c.insert(loc, filter, 1)
}

func (c *FilterChain) insert(loc any, filter Filter, offset int) error {
	if filter == nil {
		return newError(ErrCodeNilFilter, "cannot store nil filter", nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(loc)
	if i < 0 {
		return notFoundError(loc)
	}
	at := i + offset
	c.mutate(func(filters []Filter) []Filter {
		filters = append(filters, nil)
		copy(filters[at+1:], filters[at:])
		filters[at] = filter
		return filters
	})
	return nil
}

// Delete removes and returns the first filter matching loc, or nil when
// no entry matches.
func (c *FilterChain) Delete(loc any) Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(loc)
	if i < 0 {
		return nil
	}
	removed := c.filters[i]
	c.mutate(func(filters []Filter) []Filter {
		return append(filters[:i], filters[i+1:]...)
	})
	return removed
}

// Len returns the number of filters in the chain.
func (c *FilterChain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.filters)
}

// Copy returns a new chain with an independent filter list. The filter
// instances themselves are shared.
func (c *FilterChain) Copy() *FilterChain {
	return &FilterChain{filters: c.snapshot()}
}

// Range calls fn for each filter over a snapshot until fn returns false.
func (c *FilterChain) Range(fn func(i int, f Filter) bool) {
	for i, f := range c.snapshot() {
		if !fn(i, f) {
			return
		}
	}
}

// snapshot copies the filter list under the lock. Mutations made after
// the snapshot never affect iteration over it.
func (c *FilterChain) snapshot() []Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	filters := make([]Filter, len(c.filters))
	copy(filters, c.filters)
	return filters
}

// mutate applies a structural change on a fresh copy of the filter
// slice, so snapshots handed out earlier keep iterating the old list.
func (c *FilterChain) mutate(change func([]Filter) []Filter) {
	filters := make([]Filter, len(c.filters))
	copy(filters, c.filters)
	c.filters = change(filters)
}

func (c *FilterChain) indexLocked(loc any) int {
	switch l := loc.(type) {
	case int:
		if l >= 0 && l < len(c.filters) {
			return l
		}
		return -1
	case string:
		for i, f := range c.filters {
			if filterName(f) == l {
				return i
			}
		}
	case reflect.Type:
		for i, f := range c.filters {
			if filterType(f) == l {
				return i
			}
		}
	case Filter:
		for i, f := range c.filters {
			if sameFilter(f, l) || sameFilter(unwrapNamed(f), l) {
				return i
			}
		}
	}
	return -1
}

func unwrapNamed(f Filter) Filter {
	if n, ok := f.(*namedFilter); ok {
		return n.filter
	}
	return f
}

func notFoundError(loc any) error {
	return newError(ErrCodeFilterNotFound, "no filter matches locator", map[string]any{"locator": loc})
}
