package internal

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	gatherer prometheus.Gatherer
	builds   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wasmpack_pages_builds_total",
			Help: "Package builds by outcome.",
		}, []string{"package", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wasmpack_pages_build_duration_seconds",
			Help:    "Wall time of a package build.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"package"}),
	}
	reg.MustRegister(m.builds, m.duration)
	return m
}

func (m *Metrics) Observe(pkg string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.builds.WithLabelValues(pkg, outcome).Inc()
	m.duration.WithLabelValues(pkg).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
