package stash

import "reflect"

// Filter is a single transform-or-abort step in a FilterChain. Apply may
// mutate the event in place. Returning (false, nil) aborts the chain:
// the event is dropped silently and no later filter runs. A non-nil
// error also stops the chain and propagates unmodified to the flush
// caller.
type Filter interface {
	Apply(event Event) (bool, error)
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(event Event) (bool, error)

func (f FilterFunc) Apply(event Event) (bool, error) { return f(event) }

// Named wraps a filter with a symbolic name so FilterChain string
// locators resolve to it. Registry-built filters are wrapped with their
// registered name automatically.
func Named(name string, filter Filter) Filter {
	if filter == nil {
		return nil
	}
	return &namedFilter{name: name, filter: filter}
}

type namedFilter struct {
	name   string
	filter Filter
}

func (n *namedFilter) Apply(event Event) (bool, error) { return n.filter.Apply(event) }

// filterName returns the symbolic or concrete type name used by string
// locators.
func filterName(f Filter) string {
	if n, ok := f.(*namedFilter); ok {
		return n.name
	}
	t := reflect.TypeOf(f)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// filterType returns the concrete type used by reflect.Type locators,
// unwrapping symbolic names.
func filterType(f Filter) reflect.Type {
	if n, ok := f.(*namedFilter); ok {
		return reflect.TypeOf(n.filter)
	}
	return reflect.TypeOf(f)
}

// sameFilter tests reference identity. Function-backed filters compare
// by code pointer since Go func values are not comparable. Two closures
// created from the same function literal share a code pointer and are
// therefore indistinguishable here; chains that need to address such
// filters individually must wrap them with Named.
func sameFilter(a, b Filter) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Kind() == reflect.Func || bv.Kind() == reflect.Func {
		return av.Kind() == bv.Kind() && av.Pointer() == bv.Pointer()
	}
	if av.Type() != bv.Type() || !av.Type().Comparable() {
		return false
	}
	return a == b
}
