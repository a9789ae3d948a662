// Package metrics instruments the pipeline. A nil *Recorder is valid and
// records nothing, so hosts opt in per binary.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Recorder struct {
	registry          *prometheus.Registry
	decodeDuration    *prometheus.HistogramVec
	encodeDuration    *prometheus.HistogramVec
	failuresTotal     *prometheus.CounterVec
	savesTotal        *prometheus.CounterVec
	pagesScannedTotal prometheus.Counter
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		registry: registry,
		decodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imgplex_decode_duration_seconds",
			Help:    "Source decode duration by detected input type.",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
		encodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imgplex_encode_duration_seconds",
			Help:    "Target encode duration by output format.",
			Buckets: prometheus.DefBuckets,
		}, []string{"format"}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imgplex_failures_total",
			Help: "Terminal pipeline failures by status code.",
		}, []string{"code"}),
		savesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imgplex_saves_total",
			Help: "Successful saves by output format.",
		}, []string{"format"}),
		pagesScannedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgplex_pages_scanned_total",
			Help: "Pages decoded by largest/smallest page scans.",
		}),
	}

	registry.MustRegister(
		r.decodeDuration,
		r.encodeDuration,
		r.failuresTotal,
		r.savesTotal,
		r.pagesScannedTotal,
	)
	return r
}

// Handler exposes the registry for hosts that scrape.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) ObserveDecode(typ string, d time.Duration) {
	if r == nil {
		return
	}
	r.decodeDuration.WithLabelValues(typ).Observe(d.Seconds())
}

func (r *Recorder) ObserveEncode(format string, d time.Duration) {
	if r == nil {
		return
	}
	r.encodeDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (r *Recorder) Failure(code string) {
	if r == nil {
		return
	}
	r.failuresTotal.WithLabelValues(code).Inc()
}

func (r *Recorder) Saved(format string) {
	if r == nil {
		return
	}
	r.savesTotal.WithLabelValues(format).Inc()
}

func (r *Recorder) PageScanned() {
	if r == nil {
		return
	}
	r.pagesScannedTotal.Inc()
}
