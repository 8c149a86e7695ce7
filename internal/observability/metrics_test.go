package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/signalsfoundry/pcb-trace-analyzer/core"
	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

func TestTraceCollectorRecordsQueries(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewTraceCollector(reg)
	if err != nil {
		t.Fatalf("NewTraceCollector: %v", err)
	}

	collector.ObserveQuery("trace_length", core.OutcomeOK, 3*time.Millisecond)
	collector.ObserveQuery("trace_length", core.OutcomeNoPath, time.Millisecond)

	if got := testutil.ToFloat64(collector.Queries.WithLabelValues("trace_length", "ok")); got != 1 {
		t.Fatalf("pcbtrace_queries_total{ok} = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "pcbtrace_query_duration_seconds", map[string]string{
		"operation": "trace_length",
	}); count != 2 {
		t.Fatalf("pcbtrace_query_duration_seconds sample_count = %d, want 2", count)
	}
}

func TestTraceCollectorWiredIntoService(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewTraceCollector(reg)
	if err != nil {
		t.Fatalf("NewTraceCollector: %v", err)
	}

	svc := core.NewTraceService(core.DefaultEngineConfig(), core.WithMetricsRecorder(collector))
	board := core.NewBoard(core.BoardData{
		Components: []core.Component{{
			Designator: "U1",
			Pads: []*model.Pad{
				{Designator: "U1", Number: "1", Net: "N", Location: model.Point{X: 0, Y: 0}, Layer: 1},
				{Designator: "U1", Number: "2", Net: "N", Location: model.Point{X: 100, Y: 0}, Layer: 1},
				{Designator: "U1", Number: "3", Net: "", Location: model.Point{X: 200, Y: 0}, Layer: 1},
			},
		}},
		Tracks: []*model.Track{{Start: model.Point{X: 0, Y: 0}, End: model.Point{X: 100, Y: 0}, Net: "N", Layer: 1, LengthMils: 100}},
	}, svc.Config())
	ctx := context.Background()
	svc.LoadBoard(ctx, board)

	a := model.PadRef{Designator: "U1", Number: "1"}
	b := model.PadRef{Designator: "U1", Number: "2"}
	svc.TraceLength(ctx, a, b)
	svc.TraceLength(ctx, b, a)

	if got := testutil.ToFloat64(collector.CacheLookups.WithLabelValues("hit")); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.CacheLookups.WithLabelValues("miss")); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.StrategyWins.WithLabelValues(core.StrategyExactEndpoint)); got != 1 {
		t.Errorf("exact endpoint wins = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.BoardObjects.WithLabelValues("pad")); got != 2 {
		t.Errorf("board pads = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.BoardSkipped.WithLabelValues("no_net")); got != 1 {
		t.Errorf("skipped no_net = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.BoardNets); got != 1 {
		t.Errorf("board nets = %v, want 1", got)
	}
}

func TestNewTraceCollectorReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewTraceCollector(reg)
	if err != nil {
		t.Fatalf("first NewTraceCollector: %v", err)
	}
	second, err := NewTraceCollector(reg)
	if err != nil {
		t.Fatalf("second NewTraceCollector: %v", err)
	}
	second.ObserveStrategy(core.StrategyTolerance)
	if got := testutil.ToFloat64(first.StrategyWins.WithLabelValues(core.StrategyTolerance)); got != 1 {
		t.Fatalf("collectors should share registered vectors, got %v", got)
	}
}

func TestMetricsHandlerExposesBoardGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewTraceCollector(reg)
	if err != nil {
		t.Fatalf("NewTraceCollector: %v", err)
	}
	collector.SetBoardCounts(core.LoadSummary{Pads: 3, Tracks: 4, Arcs: 5, Vias: 6, Nets: 7})
	collector.ObserveQuery("trace_path", "ok", time.Millisecond)
	collector.ObserveCache(false)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"pcbtrace_queries_total",
		"pcbtrace_query_duration_seconds",
		"pcbtrace_route_cache_lookups_total",
		"pcbtrace_board_objects",
		"pcbtrace_board_nets 7",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	if len(pairs) != len(want) {
		return false
	}
	for _, p := range pairs {
		if want[p.GetName()] != p.GetValue() {
			return false
		}
	}
	return true
}
