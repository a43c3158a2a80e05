// ABOUTME: Prometheus collectors for experiment setup activity
// ABOUTME: Implements the campaign recorder on a private registry served by the HTTP API
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harperreed/outbound/models"
)

const namespace = "outbound"

// Collector records engine outcomes. Each Collector owns its registry so
// tests and multiple servers never collide on registration.
type Collector struct {
	registry *prometheus.Registry

	setups             *prometheus.CounterVec
	setupDuration      *prometheus.HistogramVec
	roundsCommitted    *prometheus.CounterVec
	customersAssigned  *prometheus.CounterVec
	customersSkipped   *prometheus.CounterVec
	generatorResolves  *prometheus.CounterVec
	experimentResolves *prometheus.CounterVec
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		// Labels: outcome (success, partial, failed)
		setups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "setup",
			Name:      "total",
			Help:      "Experimental setups by outcome",
		}, []string{"outcome"}),

		setupDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "setup",
			Name:      "duration_seconds",
			Help:      "Wall time of experimental setups",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),

		roundsCommitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "setup",
			Name:      "rounds_committed_total",
			Help:      "Assignment rounds committed",
		}, []string{"platform"}),

		customersAssigned: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assignment",
			Name:      "customers_total",
			Help:      "Customers assigned to experiments",
		}, []string{"platform"}),

		customersSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assignment",
			Name:      "customers_skipped_total",
			Help:      "Pooled customers whose document could not be found",
		}, []string{"platform"}),

		// Labels: result (reused, created)
		generatorResolves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "experiment_generators_total",
			Help:      "Experiment generator resolutions",
		}, []string{"result"}),

		experimentResolves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "experiments_total",
			Help:      "Experiment resolutions",
		}, []string{"result"}),
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) SetupFinished(outcome string, elapsed time.Duration) {
	c.setups.WithLabelValues(outcome).Inc()
	c.setupDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (c *Collector) RoundCommitted(platform models.Platform, assigned int) {
	c.roundsCommitted.WithLabelValues(string(platform)).Inc()
	c.customersAssigned.WithLabelValues(string(platform)).Add(float64(assigned))
}

func (c *Collector) CustomerSkipped(platform models.Platform) {
	c.customersSkipped.WithLabelValues(string(platform)).Inc()
}

func (c *Collector) GeneratorResolved(created bool) {
	c.generatorResolves.WithLabelValues(resolution(created)).Inc()
}

func (c *Collector) ExperimentResolved(created bool) {
	c.experimentResolves.WithLabelValues(resolution(created)).Inc()
}

func resolution(created bool) string {
	if created {
		return "created"
	}
	return "reused"
}
