package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/orbitsim/internal/sim"
)

// Collector exports simulation progress to Prometheus. It is a
// sim.Observer; step failures are reported through StepFailed because
// observers only see successful ticks.
type Collector struct {
	registry *prometheus.Registry

	Ticks        prometheus.Counter
	StepFailures prometheus.Counter
	StepDuration prometheus.Histogram
	SimTime      prometheus.Gauge
	Energy       prometheus.Gauge
	Bodies       prometheus.Gauge

	h sim.Hamiltonian
}

// NewCollector registers its metrics on a private registry. h may be nil,
// in which case the energy gauge is left at zero.
func NewCollector(namespace string, h sim.Hamiltonian) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		h:        h,
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of successful integration steps",
		}),
		StepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Total number of integration steps that failed",
		}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall-clock time spent in one tick",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		SimTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulated_seconds",
			Help:      "Simulated time elapsed since the last reset",
		}),
		Energy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_energy_joules",
			Help:      "Total kinetic plus potential energy of the system",
		}),
		Bodies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bodies",
			Help:      "Number of bodies being integrated",
		}),
	}

	registry.MustRegister(c.Ticks, c.StepFailures, c.StepDuration, c.SimTime, c.Energy, c.Bodies)
	return c
}

func (c *Collector) OnStep(s sim.State) {
	c.Ticks.Inc()
	c.StepDuration.Observe(s.Elapsed.Seconds())
	c.SimTime.Set(s.Time)
	c.Bodies.Set(float64(len(s.Bodies)))
	if c.h != nil {
		c.Energy.Set(c.h.Energy(s.Bodies))
	}
}

func (c *Collector) StepFailed() { c.StepFailures.Inc() }

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
