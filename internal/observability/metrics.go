package observability

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/rfsim/rfnet"
)

// ResolverCollector bundles Prometheus metrics for the signal-graph
// resolution engine and provides a ready-made /metrics handler.
type ResolverCollector struct {
	gatherer prometheus.Gatherer

	Resolves      *prometheus.CounterVec
	ResolvePasses prometheus.Histogram

	TopologyComponents prometheus.Gauge
	TopologyNets       prometheus.Gauge
}

// NewResolverCollector registers resolver Prometheus metrics against
// the provided registerer, defaulting to the global Prometheus registry
// when nil.
func NewResolverCollector(reg prometheus.Registerer) (*ResolverCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	resolves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rfsim_resolves_total",
		Help: "Total number of topology resolution runs, labeled by outcome.",
	}, []string{"outcome"})
	resolves, err := registerCounterVec(reg, resolves, "rfsim_resolves_total")
	if err != nil {
		return nil, err
	}

	passes, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rfsim_resolve_passes",
		Help:    "Propagation passes needed per resolution run.",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
	}), "rfsim_resolve_passes")
	if err != nil {
		return nil, err
	}

	components, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rfsim_topology_components",
		Help: "Component instances in the current topology.",
	}), "rfsim_topology_components")
	if err != nil {
		return nil, err
	}
	nets, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rfsim_topology_nets",
		Help: "Nets in the current topology.",
	}), "rfsim_topology_nets")
	if err != nil {
		return nil, err
	}

	return &ResolverCollector{
		gatherer:           gatherer,
		Resolves:           resolves,
		ResolvePasses:      passes,
		TopologyComponents: components,
		TopologyNets:       nets,
	}, nil
}

// ObserveResolve records one resolution run's outcome and pass count.
func (c *ResolverCollector) ObserveResolve(res rfnet.Result, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	switch {
	case errors.Is(err, rfnet.ErrNoConvergence):
		outcome = "no_convergence"
	case err != nil:
		outcome = "error"
	}
	if c.Resolves != nil {
		c.Resolves.WithLabelValues(outcome).Inc()
	}
	if c.ResolvePasses != nil && res.Passes > 0 {
		c.ResolvePasses.Observe(float64(res.Passes))
	}
}

// SetTopologySize publishes the component and net counts of the
// topology being resolved.
func (c *ResolverCollector) SetTopologySize(components, nets int) {
	if c == nil {
		return
	}
	if c.TopologyComponents != nil {
		c.TopologyComponents.Set(float64(components))
	}
	if c.TopologyNets != nil {
		c.TopologyNets.Set(float64(nets))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *ResolverCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
