package pack

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Hits      *prometheus.CounterVec
	Misses    *prometheus.CounterVec
	Fallbacks *prometheus.CounterVec
	Archives  prometheus.Gauge
}

// NewMetrics creates the resolver collectors and registers them on reg
// when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockmesh",
			Subsystem: "pack",
			Name:      "cache_hits_total",
			Help:      "Resolver cache hits by cache.",
		}, []string{"cache"}),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockmesh",
			Subsystem: "pack",
			Name:      "cache_misses_total",
			Help:      "Resolver cache misses by cache.",
		}, []string{"cache"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockmesh",
			Subsystem: "pack",
			Name:      "fallbacks_total",
			Help:      "Degraded resolutions by kind.",
		}, []string{"kind"}),
		Archives: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockmesh",
			Subsystem: "pack",
			Name:      "archives",
			Help:      "Loaded archives.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Fallbacks, m.Archives)
	}
	return m
}

func (m *Metrics) hit(cache string) { m.Hits.WithLabelValues(cache).Inc() }
func (m *Metrics) miss(cache string) { m.Misses.WithLabelValues(cache).Inc() }
func (m *Metrics) Fallback(kind string) { m.Fallbacks.WithLabelValues(kind).Inc() }
