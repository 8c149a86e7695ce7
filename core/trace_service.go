package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/signalsfoundry/pcb-trace-analyzer/internal/logging"
	"github.com/signalsfoundry/pcb-trace-analyzer/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const tracerName = "github.com/signalsfoundry/pcb-trace-analyzer/core"

// Query outcomes reported to the metrics recorder.
const (
	OutcomeOK            = "ok"
	OutcomeNoBoard       = "no_board"
	OutcomePadNotFound   = "pad_not_found"
	OutcomeDifferentNets = "different_nets"
	OutcomeNoPath        = "no_path"
	OutcomeNoTracks      = "no_track_segments"
	OutcomeError         = "error"
)

// MetricsRecorder receives engine telemetry. Implementations must be safe
// for concurrent use.
type MetricsRecorder interface {
	ObserveQuery(operation, outcome string, d time.Duration)
	ObserveCache(hit bool)
	ObserveStrategy(strategy string)
	SetBoardCounts(s LoadSummary)
}

// TraceService answers path, length and impedance queries over the currently
// loaded board. Queries run concurrently; Load swaps the board and all of its
// caches atomically, so a query only ever sees one board revision.
type TraceService struct {
	cfg     EngineConfig
	det     *ConnectivityDetector
	stackup *model.Stackup
	log     logging.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer

	snap atomic.Pointer[snapshot]
}

// snapshot is one loaded board plus the caches derived from it.
type snapshot struct {
	board *Board

	mu     sync.RWMutex
	routes map[string]*route
	graphs map[string]*netGraph // strategy + net
	flight singleflight.Group

	padGraphOnce sync.Once
	padGraph     *padGraph
}

// route is a cached pair result in canonical (from < to) orientation. A
// non-nil err is a cached negative.
type route struct {
	from, to   model.PadRef
	net        string
	nodes      []int
	strategy   string
	lengthMils float64
	err        error
}

// TraceServiceOption customises TraceService construction.
type TraceServiceOption func(*TraceService)

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) TraceServiceOption {
	return func(s *TraceService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) TraceServiceOption {
	return func(s *TraceService) {
		s.metrics = m
	}
}

// WithStackup sets the layer stackup used for impedance. Defaults to
// model.DefaultStackup.
func WithStackup(st *model.Stackup) TraceServiceOption {
	return func(s *TraceService) {
		if st != nil {
			s.stackup = st
		}
	}
}

// NewTraceService creates a service with no board loaded.
func NewTraceService(cfg EngineConfig, opts ...TraceServiceOption) *TraceService {
	s := &TraceService{
		cfg:     cfg.normalized(),
		stackup: model.DefaultStackup(),
		log:     logging.Noop(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.det = NewConnectivityDetector(s.cfg, s.log)
	return s
}

// Config returns the normalized engine configuration.
func (s *TraceService) Config() EngineConfig { return s.cfg }

// Stackup returns the stackup used for impedance.
func (s *TraceService) Stackup() *model.Stackup { return s.stackup }

// Load decodes a board document and replaces the current board. On error the
// previously loaded board stays in place.
func (s *TraceService) Load(ctx context.Context, r io.Reader) (*LoadSummary, error) {
	ctx, span := s.tracer.Start(ctx, "TraceService.Load")
	defer span.End()

	data, err := DecodeBoard(r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.Warn(ctx, "board load failed", logging.Err(err))
		return nil, err
	}
	summary := s.LoadBoard(ctx, NewBoard(data, s.cfg))
	span.SetAttributes(
		attribute.Int("board.objects", summary.Objects()),
		attribute.Int("board.nets", summary.Nets),
	)
	return &summary, nil
}

// LoadBoard installs an already built board, dropping every cache.
func (s *TraceService) LoadBoard(ctx context.Context, b *Board) LoadSummary {
	if b == nil {
		b = NewBoard(BoardData{}, s.cfg)
	}
	s.snap.Store(&snapshot{
		board:  b,
		routes: make(map[string]*route),
		graphs: make(map[string]*netGraph),
	})
	summary := b.Summary()
	if s.metrics != nil {
		s.metrics.SetBoardCounts(summary)
	}
	s.log.Info(ctx, "board loaded",
		logging.Int("components", summary.Components),
		logging.Int("pads", summary.Pads),
		logging.Int("tracks", summary.Tracks),
		logging.Int("arcs", summary.Arcs),
		logging.Int("vias", summary.Vias),
		logging.Int("nets", summary.Nets),
		logging.Int("skipped_no_net", summary.SkippedNoNet),
		logging.Int("skipped_degenerate", summary.SkippedDegenerate),
		logging.Int("skipped_duplicate", summary.SkippedDuplicate),
	)
	return summary
}

// Board returns the loaded board, or nil.
func (s *TraceService) Board() *Board {
	snap := s.snap.Load()
	if snap == nil {
		return nil
	}
	return snap.board
}

func (s *TraceService) current() (*snapshot, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, ErrNoBoard
	}
	return snap, nil
}

// TraceLength returns the conductive length in mm between two terminals, or
// false when there is no path.
func (s *TraceService) TraceLength(ctx context.Context, a, b model.PadRef) (float64, bool) {
	r, err := s.query(ctx, "trace_length", a, b)
	if err != nil {
		return 0, false
	}
	return r.lengthMils * model.MilsToMM, true
}

// Trace resolves the path between two terminals and reports why it failed
// when it does. Errors wrap ErrNoBoard, ErrPadNotFound, ErrDifferentNets or
// ErrNoPathFound.
func (s *TraceService) Trace(ctx context.Context, a, b model.PadRef) (*PathResult, error) {
	snap, err := s.current()
	if err != nil {
		s.observe("trace_path", err, 0)
		return nil, err
	}
	r, err := s.queryOn(ctx, snap, "trace_path", a, b)
	if err != nil {
		return nil, err
	}
	return newPathResult(snap.board, r, a, b), nil
}

// TracePath is Trace for callers that only need the outcome; it never
// returns nil.
func (s *TraceService) TracePath(ctx context.Context, a, b model.PadRef) *PathResult {
	res, err := s.Trace(ctx, a, b)
	if err != nil {
		return &PathResult{From: a, To: b, Reason: err.Error()}
	}
	return res
}

func (s *TraceService) query(ctx context.Context, op string, a, b model.PadRef) (*route, error) {
	snap, err := s.current()
	if err != nil {
		s.observe(op, err, 0)
		return nil, err
	}
	return s.queryOn(ctx, snap, op, a, b)
}

// queryOn wraps a pair lookup with a span, a query ID and metrics.
func (s *TraceService) queryOn(ctx context.Context, snap *snapshot, op string, a, b model.PadRef) (*route, error) {
	start := time.Now()
	ctx, qid := logging.EnsureQueryID(ctx)
	ctx, span := s.tracer.Start(ctx, "TraceService."+op, trace.WithAttributes(
		attribute.String("pad.from", a.String()),
		attribute.String("pad.to", b.String()),
		attribute.String("query_id", qid),
	))
	defer span.End()

	r := s.resolve(ctx, snap, a, b)
	s.observe(op, r.err, time.Since(start))
	if r.err != nil {
		span.SetAttributes(attribute.String("outcome", outcomeOf(r.err)))
		return nil, r.err
	}
	span.SetAttributes(
		attribute.String("strategy", r.strategy),
		attribute.Float64("length_mm", r.lengthMils*model.MilsToMM),
	)
	return r, nil
}

func (s *TraceService) observe(op string, err error, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveQuery(op, outcomeOf(err), d)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNoBoard):
		return OutcomeNoBoard
	case errors.Is(err, ErrPadNotFound):
		return OutcomePadNotFound
	case errors.Is(err, ErrDifferentNets):
		return OutcomeDifferentNets
	case errors.Is(err, ErrNoPathFound):
		return OutcomeNoPath
	case errors.Is(err, ErrNoTrackSegments):
		return OutcomeNoTracks
	default:
		return OutcomeError
	}
}

// resolve returns the cached route for an unordered terminal pair, computing
// it at most once per board even under concurrent callers.
func (s *TraceService) resolve(ctx context.Context, snap *snapshot, a, b model.PadRef) *route {
	key, lo, hi := pairKey(a, b)

	snap.mu.RLock()
	r, ok := snap.routes[key]
	snap.mu.RUnlock()
	if s.metrics != nil {
		s.metrics.ObserveCache(ok)
	}
	if ok {
		s.log.Debug(ctx, "route cache hit", logging.String("pair", key))
		return r
	}

	v, _, _ := snap.flight.Do(key, func() (any, error) {
		snap.mu.RLock()
		r, ok := snap.routes[key]
		snap.mu.RUnlock()
		if ok {
			return r, nil
		}
		r = s.computeRoute(ctx, snap, lo, hi)
		snap.mu.Lock()
		snap.routes[key] = r
		snap.mu.Unlock()
		return r, nil
	})
	return v.(*route)
}

func (s *TraceService) computeRoute(ctx context.Context, snap *snapshot, from, to model.PadRef) *route {
	b := snap.board
	r := &route{from: from, to: to}
	padA, ia, okA := b.Pad(from)
	padB, ib, okB := b.Pad(to)
	switch {
	case !okA:
		r.err = fmt.Errorf("%w: %s", ErrPadNotFound, from)
		return r
	case !okB:
		r.err = fmt.Errorf("%w: %s", ErrPadNotFound, to)
		return r
	case padA.Net != padB.Net:
		r.err = fmt.Errorf("%w: %s is on %q, %s is on %q", ErrDifferentNets, from, padA.Net, to, padB.Net)
		return r
	}
	r.net = padA.Net

	for _, strat := range graphStrategies {
		g := s.netGraphFor(ctx, snap, strat, r.net)
		src, okSrc := g.index[ia]
		dst, okDst := g.index[ib]
		if !okSrc || !okDst {
			continue
		}
		path, _, found := shortestPath(g.adj, src, dst)
		if !found {
			s.log.Debug(ctx, "strategy found no path",
				logging.String("strategy", strat.name),
				logging.String("net", r.net),
			)
			continue
		}

		r.strategy = strat.name
		r.nodes = make([]int, len(path))
		for i, n := range path {
			r.nodes[i] = g.nodes[n]
			r.lengthMils += b.objects[g.nodes[n]].Length()
		}
		if s.metrics != nil {
			s.metrics.ObserveStrategy(strat.name)
		}
		s.log.Debug(ctx, "path found",
			logging.String("strategy", strat.name),
			logging.String("net", r.net),
			logging.Int("elements", len(path)),
			logging.Float("length_mm", r.lengthMils*model.MilsToMM),
		)
		return r
	}

	r.err = fmt.Errorf("%w: %s to %s on %q", ErrNoPathFound, from, to, r.net)
	return r
}

// netGraphFor returns the strategy's graph of net, building it at most once
// per board. Builders depend only on the net, so every pair on the net
// shares the result.
func (s *TraceService) netGraphFor(ctx context.Context, snap *snapshot, strat graphStrategy, net string) *netGraph {
	key := "graph\x01" + strat.name + "\x01" + net

	snap.mu.RLock()
	g, ok := snap.graphs[key]
	snap.mu.RUnlock()
	if ok {
		return g
	}

	v, _, _ := snap.flight.Do(key, func() (any, error) {
		snap.mu.RLock()
		g, ok := snap.graphs[key]
		snap.mu.RUnlock()
		if ok {
			return g, nil
		}
		start := time.Now()
		g = strat.build(ctx, snap.board, s.det, snap.board.NetObjects(net))
		s.log.Debug(ctx, "net graph built",
			logging.String("strategy", strat.name),
			logging.String("net", net),
			logging.Int("nodes", len(g.nodes)),
			logging.Any("elapsed", time.Since(start).String()),
		)
		snap.mu.Lock()
		snap.graphs[key] = g
		snap.mu.Unlock()
		return g, nil
	})
	return v.(*netGraph)
}

// pairKey orders two refs canonically and returns the unordered key.
func pairKey(a, b model.PadRef) (string, model.PadRef, model.PadRef) {
	if b.Designator < a.Designator || (b.Designator == a.Designator && b.Number < a.Number) {
		a, b = b, a
	}
	return a.String() + "\x00" + b.String(), a, b
}

// orientedNodes returns the route's nodes starting at from.
func (r *route) orientedNodes(from model.PadRef) []int {
	out := make([]int, len(r.nodes))
	copy(out, r.nodes)
	if from == r.from {
		return out
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
