package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pagekeep"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry       *prom.Registry
	resolutions    *prom.CounterVec
	locatorsMerged prom.Counter
	waits          *prom.CounterVec
	waitDuration   *prom.HistogramVec
	upserts        *prom.CounterVec
}

// NewPrometheusRecorder constructs metrics and registers them on reg.
// A fresh registry is created when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		resolutions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "identifier_resolutions_total",
			Help:      "Content identifier resolutions by path taken",
		}, []string{"path"}),
		locatorsMerged: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "locators_merged_total",
			Help:      "Locators appended to cached content info",
		}),
		waits: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "identifier_waits_total",
			Help:      "Waits for a tab's content identifier by outcome",
		}, []string{"outcome"}),
		waitDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "identifier_wait_seconds",
			Help:      "Time spent waiting for a tab's content identifier",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"outcome"}),
		upserts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "page_upserts_total",
			Help:      "Page records created or updated",
		}, []string{"op"}),
	}
	reg.MustRegister(pr.resolutions, pr.locatorsMerged, pr.waits, pr.waitDuration, pr.upserts)
	return pr
}

// Registry returns the registry metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// ObserveResolution implements Recorder.
func (p *PrometheusRecorder) ObserveResolution(path string) {
	p.resolutions.WithLabelValues(path).Inc()
}

// ObserveLocatorsMerged implements Recorder.
func (p *PrometheusRecorder) ObserveLocatorsMerged(n int) {
	if n > 0 {
		p.locatorsMerged.Add(float64(n))
	}
}

// ObserveWait implements Recorder.
func (p *PrometheusRecorder) ObserveWait(outcome string, d time.Duration) {
	p.waits.WithLabelValues(outcome).Inc()
	p.waitDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObservePageUpsert implements Recorder.
func (p *PrometheusRecorder) ObservePageUpsert(op string) {
	p.upserts.WithLabelValues(op).Inc()
}
