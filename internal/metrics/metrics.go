// Package metrics holds the Prometheus collectors exported by usersync.
//
// A nil *Metrics is valid and turns every method into a no-op, so components
// can be built without a registry (tests, one-shot CLI commands).
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "usersync"

type Metrics struct {
	apiCalls              *prometheus.CounterVec
	apiCallDuration       *prometheus.HistogramVec
	connectivityAvailable prometheus.Gauge
	cacheEntities         prometheus.Gauge
	cacheMutations        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. If reg is nil the
// default registerer is used.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		apiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_calls_total",
			Help:      "Remote API calls by operation and classified result",
		}, []string{"operation", "result"}), // result: success|no_connectivity|http_error|transport_error|cancelled

		apiCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_call_duration_seconds",
			Help:      "Latency of remote API calls that reached the network",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		connectivityAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connectivity_available",
			Help:      "1 when the network is considered available, 0 otherwise",
		}),

		cacheEntities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entities",
			Help:      "Number of users held by the local cache",
		}),

		cacheMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_mutations_total",
			Help:      "Committed cache mutations by kind",
		}, []string{"kind"}), // kind: replace_all|upsert_all
	}

	for _, c := range []prometheus.Collector{
		m.apiCalls, m.apiCallDuration, m.connectivityAvailable, m.cacheEntities, m.cacheMutations,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	return m, nil
}

// ObserveAPICall counts one classified call. A zero duration means the call
// never reached the network and is not added to the latency histogram.
func (m *Metrics) ObserveAPICall(operation, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.apiCalls.WithLabelValues(operation, result).Inc()
	if d > 0 {
		m.apiCallDuration.WithLabelValues(operation).Observe(d.Seconds())
	}
}

func (m *Metrics) SetConnectivity(available bool) {
	if m == nil {
		return
	}
	if available {
		m.connectivityAvailable.Set(1)
	} else {
		m.connectivityAvailable.Set(0)
	}
}

func (m *Metrics) SetCacheEntities(n int) {
	if m == nil {
		return
	}
	m.cacheEntities.Set(float64(n))
}

func (m *Metrics) IncCacheMutation(kind string) {
	if m == nil {
		return
	}
	m.cacheMutations.WithLabelValues(kind).Inc()
}
