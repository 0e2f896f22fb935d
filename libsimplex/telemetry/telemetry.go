package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fine-structures/simplex.SDK/gosimplex"
)

// Collector exports the latest run sample as prometheus gauges.
type Collector struct {
	Nodes        prometheus.Gauge
	Edges        prometheus.Gauge
	Triangles    prometheus.Gauge
	MaxDegree    prometheus.Gauge
	MaxDistance  prometheus.Gauge
	Entropy      prometheus.Gauge
	Samples      prometheus.Counter
	GrowthFailed prometheus.Counter
}

// NewCollector registers a Collector's metrics with reg, each carrying the given constant labels (e.g. regime, seed).
// A nil reg registers nothing, leaving the metrics usable but unexported.
func NewCollector(reg prometheus.Registerer, labels prometheus.Labels) *Collector {
	factory := promauto.With(reg)

	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	return &Collector{
		Nodes:       gauge("simplex_nodes", "Nodes in the network"),
		Edges:       gauge("simplex_edges", "Edges in the network"),
		Triangles:   gauge("simplex_triangles", "Triangles in the network"),
		MaxDegree:   gauge("simplex_max_degree", "Largest node degree"),
		MaxDistance: gauge("simplex_max_distance", "Greatest hop distance from the seed triangle"),
		Entropy:     gauge("simplex_entropy_nats", "Shannon entropy of the next attachment draw, in nats"),
		Samples: factory.NewCounter(prometheus.CounterOpts{
			Name:        "simplex_samples_total",
			Help:        "Samples taken",
			ConstLabels: labels,
		}),
		GrowthFailed: factory.NewCounter(prometheus.CounterOpts{
			Name:        "simplex_growth_failures_total",
			Help:        "Runs that stopped for lack of an eligible edge",
			ConstLabels: labels,
		}),
	}
}

// Observe sets the gauges from s.
func (c *Collector) Observe(s gosimplex.Sample) {
	c.Nodes.Set(float64(s.NumNodes))
	c.Edges.Set(float64(s.NumEdges))
	c.Triangles.Set(float64(s.NumTriangles))
	c.MaxDegree.Set(float64(s.MaxDegree))
	c.MaxDistance.Set(float64(s.MaxDistance))
	c.Entropy.Set(s.Entropy)
	c.Samples.Inc()
}

func (c *Collector) ObserveFailure() {
	c.GrowthFailed.Inc()
}
