// Package metrics exposes prometheus collectors for the buffer pool and the lock manager. A nil *Metrics is valid
// and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "heapdb"

type Metrics struct {
	bufferHits      prometheus.Counter
	bufferMisses    prometheus.Counter
	bufferEvictions prometheus.Counter
	bufferFlushes   prometheus.Counter
	residentPages   prometheus.Gauge

	lockTimeouts prometheus.Counter
	lockGrants   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. reg may be nil to get unregistered collectors.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		bufferHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "buffer", Name: "hits_total",
			Help: "Number of page requests served from the buffer pool.",
		}),
		bufferMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "buffer", Name: "misses_total",
			Help: "Number of page requests that read the page from disk.",
		}),
		bufferEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "buffer", Name: "evictions_total",
			Help: "Number of pages evicted from the buffer pool.",
		}),
		bufferFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "buffer", Name: "flushes_total",
			Help: "Number of pages written to disk by the buffer pool.",
		}),
		residentPages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "buffer", Name: "resident_pages",
			Help: "Number of pages currently cached.",
		}),
		lockTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "lock", Name: "timeouts_total",
			Help: "Number of lock requests that timed out and aborted their transaction.",
		}),
		lockGrants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "lock", Name: "grants_total",
			Help: "Number of granted lock requests by mode.",
		}, []string{"mode"}),
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.bufferHits, m.bufferMisses, m.bufferEvictions, m.bufferFlushes, m.residentPages,
		m.lockTimeouts, m.lockGrants,
	}
}

func (m *Metrics) BufferHit() {
	if m != nil {
		m.bufferHits.Inc()
	}
}

func (m *Metrics) BufferMiss() {
	if m != nil {
		m.bufferMisses.Inc()
	}
}

func (m *Metrics) BufferEviction() {
	if m != nil {
		m.bufferEvictions.Inc()
	}
}

func (m *Metrics) BufferFlush() {
	if m != nil {
		m.bufferFlushes.Inc()
	}
}

func (m *Metrics) SetResidentPages(n int) {
	if m != nil {
		m.residentPages.Set(float64(n))
	}
}

func (m *Metrics) LockTimeout() {
	if m != nil {
		m.lockTimeouts.Inc()
	}
}

func (m *Metrics) LockGranted(mode string) {
	if m != nil {
		m.lockGrants.WithLabelValues(mode).Inc()
	}
}
