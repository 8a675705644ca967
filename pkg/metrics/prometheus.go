package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stmtcache"

// PrometheusRecorder records statement cache activity as Prometheus series labelled by connection id.
type PrometheusRecorder struct {
	hits            *prom.CounterVec
	misses          *prom.CounterVec
	evictions       *prom.CounterVec
	releaseFailures *prom.CounterVec
	size            *prom.GaugeVec
	gatherer        prom.Gatherer
}

// NewPrometheusRecorder creates the collectors and registers them on a fresh registry.
func NewPrometheusRecorder() (*PrometheusRecorder, error) {
	registry := prom.NewRegistry()
	p := &PrometheusRecorder{
		hits: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "hits_total",
			Help:      "Total number of prepared statement cache hits",
		}, []string{"conn"}),
		misses: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "misses_total",
			Help:      "Total number of prepared statement cache misses",
		}, []string{"conn"}),
		evictions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Total number of prepared statements evicted by the LRU policy",
		}, []string{"conn"}),
		releaseFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "release_failures_total",
			Help:      "Total number of prepared statement releases that failed",
		}, []string{"conn"}),
		size: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "size",
			Help:      "Number of prepared statements currently cached",
		}, []string{"conn"}),
		gatherer: registry,
	}

	for _, c := range []prom.Collector{p.hits, p.misses, p.evictions, p.releaseFailures, p.size} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *PrometheusRecorder) IncStmtCacheHit(conn string) {
	p.hits.WithLabelValues(conn).Inc()
}

func (p *PrometheusRecorder) IncStmtCacheMiss(conn string) {
	p.misses.WithLabelValues(conn).Inc()
}

func (p *PrometheusRecorder) IncStmtCacheEviction(conn string) {
	p.evictions.WithLabelValues(conn).Inc()
}

func (p *PrometheusRecorder) IncStmtReleaseFailure(conn string) {
	p.releaseFailures.WithLabelValues(conn).Inc()
}

func (p *PrometheusRecorder) SetStmtCacheSize(conn string, size int) {
	p.size.WithLabelValues(conn).Set(float64(size))
}

// Handler returns the /metrics handler for the recorder's registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry, mainly for tests.
func (p *PrometheusRecorder) Gatherer() prom.Gatherer {
	return p.gatherer
}
