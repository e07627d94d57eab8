package stash

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// errOutput receives failure reports when no error handler is installed.
// Swapped in tests.
var errOutput io.Writer = os.Stderr

// ErrorHandler observes flow failures. The event is the one that failed;
// it must not be retained beyond the call.
type ErrorHandler func(flowName string, event Event, err error)

// Flow is one complete output pipeline: a filter chain, an encoder and
// an adapter. It implements Sink so a Buffer can flush directly into a
// single flow, although most setups go through Flows.
type Flow struct {
	name    string
	chain   *FilterChain
	encoder Encoder
	adapter Adapter
	metrics *Metrics
	onError ErrorHandler
}

// FlowOption configures a Flow at construction.
type FlowOption func(*Flow)

// WithFilters seeds the flow's filter chain.
func WithFilters(filters ...Filter) FlowOption {
	return func(f *Flow) { f.chain.Append(filters...) }
}

// WithMetrics attaches a counter set to the flow.
func WithMetrics(m *Metrics) FlowOption {
	return func(f *Flow) { f.metrics = m }
}

// WithErrorHandler installs a callback observing encode and write
// failures. Without one, failures are reported on stderr. The error
// still propagates to the flush caller either way.
func WithErrorHandler(h ErrorHandler) FlowOption {
	return func(f *Flow) { f.onError = h }
}

// NewFlow builds a flow writing through encoder to adapter. A nil
// encoder fails with ErrNilEncoder, a nil adapter with ErrNilAdapter.
func NewFlow(name string, encoder Encoder, adapter Adapter, opts ...FlowOption) (*Flow, error) {
	if encoder == nil {
		return nil, newError(ErrCodeNilEncoder, "flow requires an encoder", map[string]any{"flow": name})
	}
	if adapter == nil {
		return nil, newError(ErrCodeNilAdapter, "flow requires an adapter", map[string]any{"flow": name})
	}
	f := &Flow{
		name:    name,
		chain:   NewFilterChain(),
		encoder: encoder,
		adapter: adapter,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Name returns the flow's configured name.
func (f *Flow) Name() string { return f.name }

// Filters returns the flow's live filter chain. Mutations apply to
// subsequent events only.
func (f *Flow) Filters() *FilterChain { return f.chain }

// Write runs event through the filter chain, encodes it and writes it to
// the adapter. A chain abort drops the event silently and returns nil.
// Filter, encode and adapter errors are reported to the error handler
// and propagate to the caller.
func (f *Flow) Write(event Event) error {
	ok, err := f.chain.Call(event)
	if err != nil {
		f.fail(event, err)
		return err
	}
	if !ok {
		f.metrics.observeFiltered(f.name)
		return nil
	}

	encoded, err := f.encoder.Encode(event)
	if err != nil {
		f.fail(event, err)
		return err
	}
	if err := f.adapter.Write(encoded); err != nil {
		f.fail(event, err)
		return err
	}

	f.metrics.observeWritten(f.name, len(encoded))
	return nil
}

// Reopen forwards to the adapter, for log rotation handlers.
func (f *Flow) Reopen() error { return f.adapter.Reopen() }

// Close closes the adapter.
func (f *Flow) Close() error { return f.adapter.Close() }

func (f *Flow) fail(event Event, err error) {
	f.metrics.observeError(f.name)
	if f.onError != nil {
		f.onError(f.name, event, err)
		return
	}
	fmt.Fprintf(errOutput, "stash: flow %q failed: %v\n", f.name, err)
}

// Flows fans one event out to several flows. The flow list is held in an
// atomic pointer: Write iterates a stable snapshot while Add and Remove
// swap in a new list, so mutation never blocks or tears an in-flight
// fan-out.
type Flows struct {
	mu    sync.Mutex // serializes mutations, not reads
	flows atomic.Pointer[[]*Flow]
}

// NewFlows creates a fan-out over the given flows. Nil entries are
// dropped.
func NewFlows(flows ...*Flow) *Flows {
	fs := &Flows{}
	initial := make([]*Flow, 0, len(flows))
	for _, f := range flows {
		if f != nil {
			initial = append(initial, f)
		}
	}
	fs.flows.Store(&initial)
	return fs
}

// Write delivers event to every flow. Each flow receives its own deep
// copy, so one flow's filters cannot leak mutations into another's. All
// flows are attempted; their errors are joined.
func (fs *Flows) Write(event Event) error {
	flows := *fs.flows.Load()
	if len(flows) == 0 {
		return nil
	}
	if len(flows) == 1 {
		return flows[0].Write(event)
	}

	var errs []error
	for _, f := range flows {
		if err := f.Write(event.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Add appends flows to the fan-out. Nil entries are ignored.
func (fs *Flows) Add(flows ...*Flow) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	current := *fs.flows.Load()
	next := make([]*Flow, len(current), len(current)+len(flows))
	copy(next, current)
	for _, f := range flows {
		if f != nil {
			next = append(next, f)
		}
	}
	fs.flows.Store(&next)
}

// Remove detaches the given flow, reporting whether it was present. The
// flow is not closed; the caller owns its lifecycle.
func (fs *Flows) Remove(flow *Flow) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	current := *fs.flows.Load()
	next := make([]*Flow, 0, len(current))
	found := false
	for _, f := range current {
		if f == flow && !found {
			found = true
			continue
		}
		next = append(next, f)
	}
	if found {
		fs.flows.Store(&next)
	}
	return found
}

// List returns a snapshot of the attached flows.
func (fs *Flows) List() []*Flow {
	current := *fs.flows.Load()
	out := make([]*Flow, len(current))
	copy(out, current)
	return out
}

// Len returns the number of attached flows.
func (fs *Flows) Len() int {
	return len(*fs.flows.Load())
}

// Reopen forwards to every flow's adapter, joining errors.
func (fs *Flows) Reopen() error {
	var errs []error
	for _, f := range *fs.flows.Load() {
		if err := f.Reopen(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every flow's adapter, joining errors.
func (fs *Flows) Close() error {
	var errs []error
	for _, f := range *fs.flows.Load() {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
