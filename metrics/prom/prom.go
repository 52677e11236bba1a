// Package prom exports priority.Metrics to Prometheus.
package prom

import (
	"github.com/IvanBrykalov/prioritymap/priority"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements priority.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	lookups *prometheus.CounterVec
	prunes  prometheus.Counter
	keys    prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "lookups_total",
				Help:        "Get calls by result cache outcome",
				ConstLabels: constLabels,
			},
			[]string{"result"},
		),
		prunes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "prunes_total",
			Help:        "Keys dropped after their last context was deleted",
			ConstLabels: constLabels,
		}),
		keys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "keys",
			Help:        "Number of keys with at least one context",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.lookups, a.prunes, a.keys)
	return a
}

// Hit counts a Get served from the result cache.
func (a *Adapter) Hit() { a.lookups.WithLabelValues("hit").Inc() }

// Miss counts a Get that had to resolve (or found no key).
func (a *Adapter) Miss() { a.lookups.WithLabelValues("miss").Inc() }

// Prune counts a key removal.
func (a *Adapter) Prune() { a.prunes.Inc() }

// Size updates the key gauge.
func (a *Adapter) Size(keys int) { a.keys.Set(float64(keys)) }

var _ priority.Metrics = (*Adapter)(nil)
