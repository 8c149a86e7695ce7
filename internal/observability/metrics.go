package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/signalsfoundry/pcb-trace-analyzer/core"
)

var _ core.MetricsRecorder = (*TraceCollector)(nil)

// TraceCollector bundles Prometheus metrics for the trace engine: query
// outcomes and latency, route cache efficiency, which graph strategy
// produced each path, and the size of the loaded board.
type TraceCollector struct {
	gatherer prometheus.Gatherer

	Queries        *prometheus.CounterVec
	QueryDurations *prometheus.HistogramVec
	CacheLookups   *prometheus.CounterVec
	StrategyWins   *prometheus.CounterVec

	BoardObjects *prometheus.GaugeVec
	BoardSkipped *prometheus.GaugeVec
	BoardNets    prometheus.Gauge
}

// NewTraceCollector registers engine metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewTraceCollector(reg prometheus.Registerer) (*TraceCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	queries, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pcbtrace_queries_total",
		Help: "Total number of engine queries, labeled by operation and outcome.",
	}, []string{"operation", "outcome"}), "pcbtrace_queries_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pcbtrace_query_duration_seconds",
		Help:    "Engine query latency in seconds.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"operation"}), "pcbtrace_query_duration_seconds")
	if err != nil {
		return nil, err
	}

	cache, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pcbtrace_route_cache_lookups_total",
		Help: "Route cache lookups, labeled by result (hit or miss).",
	}, []string{"result"}), "pcbtrace_route_cache_lookups_total")
	if err != nil {
		return nil, err
	}

	wins, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pcbtrace_strategy_wins_total",
		Help: "Paths found, labeled by the graph strategy that found them.",
	}, []string{"strategy"}), "pcbtrace_strategy_wins_total")
	if err != nil {
		return nil, err
	}

	objects, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pcbtrace_board_objects",
		Help: "Objects in the loaded board, labeled by kind.",
	}, []string{"kind"}), "pcbtrace_board_objects")
	if err != nil {
		return nil, err
	}

	skipped, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pcbtrace_board_skipped_objects",
		Help: "Objects dropped while loading the board, labeled by reason.",
	}, []string{"reason"}), "pcbtrace_board_skipped_objects")
	if err != nil {
		return nil, err
	}

	nets, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pcbtrace_board_nets",
		Help: "Nets in the loaded board.",
	}), "pcbtrace_board_nets")
	if err != nil {
		return nil, err
	}

	return &TraceCollector{
		gatherer:       gatherer,
		Queries:        queries,
		QueryDurations: durations,
		CacheLookups:   cache,
		StrategyWins:   wins,
		BoardObjects:   objects,
		BoardSkipped:   skipped,
		BoardNets:      nets,
	}, nil
}

// ObserveQuery records one engine query.
func (c *TraceCollector) ObserveQuery(operation, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.Queries.WithLabelValues(operation, outcome).Inc()
	c.QueryDurations.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveCache records a route cache lookup.
func (c *TraceCollector) ObserveCache(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveStrategy records the strategy that produced a path.
func (c *TraceCollector) ObserveStrategy(strategy string) {
	if c == nil {
		return
	}
	c.StrategyWins.WithLabelValues(strategy).Inc()
}

// SetBoardCounts satisfies core.MetricsRecorder so board loads drive the
// gauges directly.
func (c *TraceCollector) SetBoardCounts(s core.LoadSummary) {
	if c == nil {
		return
	}
	c.BoardObjects.WithLabelValues("pad").Set(float64(s.Pads))
	c.BoardObjects.WithLabelValues("track").Set(float64(s.Tracks))
	c.BoardObjects.WithLabelValues("arc").Set(float64(s.Arcs))
	c.BoardObjects.WithLabelValues("via").Set(float64(s.Vias))
	c.BoardSkipped.WithLabelValues("no_net").Set(float64(s.SkippedNoNet))
	c.BoardSkipped.WithLabelValues("degenerate").Set(float64(s.SkippedDegenerate))
	c.BoardSkipped.WithLabelValues("duplicate").Set(float64(s.SkippedDuplicate))
	c.BoardNets.Set(float64(s.Nets))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *TraceCollector) Handler() http.Handler {
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

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
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
