// Package prom exports thread lifecycle metrics through Prometheus collectors.
package prom

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NetPo4ki/go-realworld/fault"
	"github.com/NetPo4ki/go-realworld/thread"
)

// Outcome label values of the finished-threads counter.
const (
	OutcomeOK     = "ok"
	OutcomeFault  = "fault"
	OutcomeKilled = "killed"
	OutcomeError  = "error"
)

// Metrics implements thread.Observer.
type Metrics struct {
	active   prometheus.Gauge
	started  prometheus.Counter
	finished *prometheus.CounterVec
	refused  prometheus.Counter
	pinned   prometheus.Counter
	duration prometheus.Histogram
}

var _ thread.Observer = (*Metrics)(nil)

// New returns Metrics whose metric names are prefixed with namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "thread", Name: "active",
			Help: "Forked OS threads currently running.",
		}),
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "thread", Name: "started_total",
			Help: "Forked OS threads started.",
		}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "thread", Name: "finished_total",
			Help: "Forked OS threads finished, by outcome.",
		}, []string{"outcome"}),
		refused: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "thread", Name: "fork_refused_total",
			Help: "Forks refused by a spawner.",
		}),
		pinned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "thread", Name: "pinned_total",
			Help: "Threads started with a CPU affinity hint.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "thread", Name: "duration_seconds",
			Help:    "Lifetime of forked OS threads.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}

// Collectors returns every collector, for custom registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.active, m.started, m.finished, m.refused, m.pinned, m.duration}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ThreadStarted(_ context.Context, t *thread.Thread) {
	m.active.Inc()
	m.started.Inc()
	if t.CPU() >= 0 {
		m.pinned.Inc()
	}
}

func (m *Metrics) ThreadFinished(_ context.Context, _ *thread.Thread, dur time.Duration, err error) {
	m.active.Dec()
	m.finished.WithLabelValues(outcome(err)).Inc()
	m.duration.Observe(dur.Seconds())
}

func (m *Metrics) ForkRefused(_ context.Context, _ error) {
	m.refused.Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, fault.ErrFault):
		return OutcomeFault
	case errors.Is(err, thread.ErrKilled):
		return OutcomeKilled
	default:
		return OutcomeError
	}
}
