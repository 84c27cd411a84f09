// Package metrics records fetch timings and build outcomes for the
// node-exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pable/dcwbuild/internal/model"
)

type Metrics struct {
	registry       *prometheus.Registry
	sourceDuration *prometheus.HistogramVec
	sourceFailures *prometheus.CounterVec
	entities       *prometheus.GaugeVec
	buildDuration  prometheus.Gauge
	buildSuccess   prometheus.Gauge
	lastBuild      prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		sourceDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dcwbuild_source_duration_seconds",
			Help:    "Duration of each upstream fetch",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		sourceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dcwbuild_source_failures_total",
			Help: "Upstream fetches that failed",
		}, []string{"source"}),
		entities: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dcwbuild_entities",
			Help: "Entities in the last successful snapshot",
		}, []string{"kind"}),
		buildDuration: f.NewGauge(prometheus.GaugeOpts{
			Name: "dcwbuild_build_duration_seconds",
			Help: "Wall time of the last build",
		}),
		buildSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "dcwbuild_build_success",
			Help: "1 if the last build succeeded, 0 otherwise",
		}),
		lastBuild: f.NewGauge(prometheus.GaugeOpts{
			Name: "dcwbuild_last_build_timestamp_seconds",
			Help: "Unix time the last build finished",
		}),
	}
}

// ObserveSource records one fetcher run.
func (m *Metrics) ObserveSource(name string, d time.Duration, err error) {
	m.sourceDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		m.sourceFailures.WithLabelValues(name).Inc()
	}
}

// ObserveSnapshot records entity counts.
func (m *Metrics) ObserveSnapshot(snap *model.Snapshot) {
	m.entities.WithLabelValues("clans").Set(float64(len(snap.Clans)))
	m.entities.WithLabelValues("members").Set(float64(len(snap.Members)))
	m.entities.WithLabelValues("events").Set(float64(len(snap.Events)))
	m.entities.WithLabelValues("modifiers").Set(float64(len(snap.Modifiers)))
	m.entities.WithLabelValues("medals").Set(float64(len(snap.Medals)))
}

// ObserveBuild records the outcome of a whole build.
func (m *Metrics) ObserveBuild(d time.Duration, err error, finished time.Time) {
	m.buildDuration.Set(d.Seconds())
	if err != nil {
		m.buildSuccess.Set(0)
	} else {
		m.buildSuccess.Set(1)
	}
	m.lastBuild.Set(float64(finished.Unix()))
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes every metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
