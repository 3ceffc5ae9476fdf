// Package metrics counts what an import run did and exports the counts as a
// node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record outcomes.
const (
	OutcomeLoaded   = "loaded"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Batch outcomes.
const (
	BatchCommitted = "committed"
	BatchFailed    = "failed"
)

// Collector holds the metrics of one run. A nil *Collector is valid and
// records nothing.
type Collector struct {
	registry *prometheus.Registry

	records  *prometheus.CounterVec
	batches  *prometheus.CounterVec
	duration prometheus.Gauge
	lastRun  prometheus.Gauge
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mtgsqlive_records_total",
			Help: "The total number of input records by kind and outcome",
		}, []string{"kind", "outcome"}),
		batches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mtgsqlive_batches_total",
			Help: "The total number of write batches by outcome",
		}, []string{"outcome"}),
		duration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mtgsqlive_run_duration_seconds",
			Help: "Wall time of the last import run",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mtgsqlive_last_run_timestamp_seconds",
			Help: "Unix time the last import run finished",
		}),
	}
}

// Registry exposes the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) Record(kind, outcome string) {
	if c == nil {
		return
	}
	c.records.WithLabelValues(kind, outcome).Inc()
}

func (c *Collector) Batch(outcome string) {
	if c == nil {
		return
	}
	c.batches.WithLabelValues(outcome).Inc()
}

// Finish records the run's duration and completion time.
func (c *Collector) Finish(start time.Time) {
	if c == nil {
		return
	}
	now := time.Now()
	c.duration.Set(now.Sub(start).Seconds())
	c.lastRun.Set(float64(now.Unix()))
}

// WriteTextfile writes the run metrics and the default registry's metrics
// (GORM connection pool, Go runtime) to path in the text exposition format.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	gatherers := prometheus.Gatherers{c.registry, prometheus.DefaultGatherer}
	if err := prometheus.WriteToTextfile(path, gatherers); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
