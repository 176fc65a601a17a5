package route

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics 路由引擎的 prometheus 指标
type Metrics struct {
	RoutesTotal            *prometheus.CounterVec
	RouteHops              prometheus.Histogram
	NeighborRecomputeTotal prometheus.Counter
	NeighborDegree         prometheus.Histogram
	RouteCacheHitsTotal    prometheus.Counter
}

// NewMetrics 创建指标并注册到 reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RoutesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "georoute_routes_total",
			Help: "Route computations by outcome",
		}, []string{"outcome"}),
		RouteHops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "georoute_route_hops",
			Help:    "Hops emitted per route computation",
			Buckets: prometheus.LinearBuckets(0, 1, 16),
		}),
		NeighborRecomputeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "georoute_neighbor_recompute_total",
			Help: "Neighbor set recomputations",
		}),
		NeighborDegree: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "georoute_neighbor_degree",
			Help:    "Neighbor count per node after recomputation",
			Buckets: prometheus.LinearBuckets(0, 2, 16),
		}),
		RouteCacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "georoute_route_cache_hits_total",
			Help: "Route results served from cache",
		}),
	}
	reg.MustRegister(m.RoutesTotal, m.RouteHops, m.NeighborRecomputeTotal, m.NeighborDegree, m.RouteCacheHitsTotal)
	return m
}

// InitMetrics 创建独立的 registry，包含运行时指标
func InitMetrics(logger zerolog.Logger) (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := NewMetrics(reg)
	logger.Info().Msg("prometheus metrics initialized")
	return reg, m
}

// MetricsHandler /metrics 处理器
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRoute(result RouteResult) {
	if m == nil {
		return
	}
	m.RoutesTotal.WithLabelValues(result.Status()).Inc()
	m.RouteHops.Observe(float64(result.HopCount()))
}

func (m *Metrics) observeRecompute(topology *Topology) {
	if m == nil {
		return
	}
	m.NeighborRecomputeTotal.Inc()
	for _, degree := range topology.Degrees() {
		m.NeighborDegree.Observe(float64(degree))
	}
}

func (m *Metrics) observeCacheHit() {
	if m == nil {
		return
	}
	m.RouteCacheHitsTotal.Inc()
}
