package stash

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks per-flow event counters. A nil *Metrics is valid and
// records nothing, so flows can run without an observability backend.
type Metrics struct {
	written      *prometheus.CounterVec
	filtered     *prometheus.CounterVec
	errors       *prometheus.CounterVec
	encodedBytes *prometheus.CounterVec
}

// NewMetrics creates the counter set and registers it with reg.
// Registering the same set twice on one registry fails; share a single
// Metrics instance across all flows instead.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		written: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stash",
			Name:      "events_written_total",
			Help:      "Events successfully written to the flow's adapter.",
		}, []string{"flow"}),
		filtered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stash",
			Name:      "events_filtered_total",
			Help:      "Events dropped by the flow's filter chain.",
		}, []string{"flow"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stash",
			Name:      "write_errors_total",
			Help:      "Encode or adapter write failures.",
		}, []string{"flow"}),
		encodedBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stash",
			Name:      "encoded_bytes_total",
			Help:      "Bytes produced by the flow's encoder.",
		}, []string{"flow"}),
	}

	for _, c := range []*prometheus.CounterVec{m.written, m.filtered, m.errors, m.encodedBytes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeWritten(flow string, bytes int) {
	if m == nil {
		return
	}
	m.written.WithLabelValues(flow).Inc()
	m.encodedBytes.WithLabelValues(flow).Add(float64(bytes))
}

func (m *Metrics) observeFiltered(flow string) {
	if m == nil {
		return
	}
	m.filtered.WithLabelValues(flow).Inc()
}

func (m *Metrics) observeError(flow string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(flow).Inc()
}
