package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus reports cache events as prometheus series.
// It satisfies types.Metrics.
type Prometheus struct {
	requests    *prometheus.CounterVec
	evictions   prometheus.Counter
	expirations prometheus.Counter
	entries     prometheus.Gauge
}

// NewPrometheus registers the cache series with reg. name becomes a
// constant "cache" label so several caches can share a registry.
func NewPrometheus(reg prometheus.Registerer, namespace, name string) *Prometheus {
	f := promauto.With(reg)
	labels := prometheus.Labels{"cache": name}

	return &Prometheus{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cache_requests_total",
			Help:        "Total number of cache lookups by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cache_evictions_total",
			Help:        "Total number of entries evicted to stay within capacity.",
			ConstLabels: labels,
		}),
		expirations: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cache_expirations_total",
			Help:        "Total number of entries removed after their TTL elapsed.",
			ConstLabels: labels,
		}),
		entries: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "cache_entries",
			Help:        "Number of entries currently held in the cache.",
			ConstLabels: labels,
		}),
	}
}

func (p *Prometheus) Hit()       { p.requests.WithLabelValues("hit").Inc() }
func (p *Prometheus) Miss()      { p.requests.WithLabelValues("miss").Inc() }
func (p *Prometheus) Eviction()  { p.evictions.Inc() }
func (p *Prometheus) Expire()    { p.expirations.Inc() }
func (p *Prometheus) Size(n int) { p.entries.Set(float64(n)) }

func (p *Prometheus) Hits() prometheus.Counter        { return p.requests.WithLabelValues("hit") }
func (p *Prometheus) Misses() prometheus.Counter      { return p.requests.WithLabelValues("miss") }
func (p *Prometheus) Evictions() prometheus.Counter   { return p.evictions }
func (p *Prometheus) Expirations() prometheus.Counter { return p.expirations }
func (p *Prometheus) Entries() prometheus.Gauge       { return p.entries }
