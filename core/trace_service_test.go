package core

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

func TestTraceLength_SingleTrack(t *testing.T) {
	svc := newServiceWith(t, straightBoard())
	got, ok := svc.TraceLength(context.Background(), ref("U1.1"), ref("R1.1"))
	if !ok {
		t.Fatalf("expected a path")
	}
	if math.Abs(got-3.81) > 1e-9 {
		t.Fatalf("length = %v mm, want 3.81", got)
	}
}

func TestTraceLength_SameNetRequired(t *testing.T) {
	svc := newServiceWith(t, straightBoard())
	ctx := context.Background()
	if _, ok := svc.TraceLength(ctx, ref("U1.1"), ref("R1.2")); ok {
		t.Fatalf("pads on different nets must have no length")
	}
	_, err := svc.Trace(ctx, ref("U1.1"), ref("R1.2"))
	if !errors.Is(err, ErrDifferentNets) {
		t.Fatalf("expected ErrDifferentNets, got %v", err)
	}
}

func TestTrace_Errors(t *testing.T) {
	ctx := context.Background()

	empty := NewTraceService(DefaultEngineConfig())
	if _, err := empty.Trace(ctx, ref("U1.1"), ref("R1.1")); !errors.Is(err, ErrNoBoard) {
		t.Fatalf("expected ErrNoBoard before load, got %v", err)
	}

	svc := newServiceWith(t, BoardData{
		Components: comps(
			pad("U1", "1", "N", 0, 0),
			pad("U1", "2", "N", 1000, 0),
		),
	})
	if _, err := svc.Trace(ctx, ref("U1.1"), ref("X9.9")); !errors.Is(err, ErrPadNotFound) {
		t.Fatalf("expected ErrPadNotFound, got %v", err)
	}
	if _, err := svc.Trace(ctx, ref("U1.1"), ref("U1.2")); !errors.Is(err, ErrNoPathFound) {
		t.Fatalf("expected ErrNoPathFound, got %v", err)
	}

	res := svc.TracePath(ctx, ref("U1.1"), ref("U1.2"))
	if res == nil || res.Exists || res.Reason == "" {
		t.Fatalf("TracePath should report a reasoned absence, got %+v", res)
	}
}

func TestTraceLength_Deterministic(t *testing.T) {
	ctx := context.Background()
	for _, data := range []BoardData{straightBoard(), detourBoard(), jumperBoard()} {
		svc := newServiceWith(t, data)
		b := svc.Board()
		for _, net := range b.Nets() {
			pads := b.NetPads(net)
			for i := range pads {
				for j := range pads {
					first, ok1 := svc.TraceLength(ctx, pads[i].Ref(), pads[j].Ref())
					for k := 0; k < 3; k++ {
						again, ok2 := svc.TraceLength(ctx, pads[i].Ref(), pads[j].Ref())
						if ok1 != ok2 || first != again {
							t.Fatalf("%s-%s not deterministic: %v/%v vs %v/%v",
								pads[i].Ref(), pads[j].Ref(), first, ok1, again, ok2)
						}
					}
					back, _ := svc.TraceLength(ctx, pads[j].Ref(), pads[i].Ref())
					if back != first {
						t.Fatalf("%s-%s length not symmetric: %v vs %v", pads[i].Ref(), pads[j].Ref(), first, back)
					}
				}
			}
		}
	}
}

func TestTracePath_RoundTripLength(t *testing.T) {
	arcBoard := BoardData{
		Components: comps(pad("U1", "1", "N", 0, 0), pad("R1", "1", "N", 100, 100)),
		Arcs: []*model.Arc{{
			Center: pt(0, 50), Radius: 50, StartAngle: 270, EndAngle: 90,
			Start: pt(0, 0), End: pt(0, 100), Net: "N", Layer: 1, LengthMils: math.Pi * 50,
		}},
		Tracks: []*model.Track{track("N", 0, 100, 100, 100, 100)},
	}

	ctx := context.Background()
	svc := newServiceWith(t, arcBoard)
	res, err := svc.Trace(ctx, ref("U1.1"), ref("R1.1"))
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	length, _ := svc.TraceLength(ctx, ref("U1.1"), ref("R1.1"))

	sum := 0.0
	for _, el := range res.Elements {
		if el.Type == "Track" || el.Type == "Arc" {
			sum += el.LengthMM
		}
	}
	if math.Abs(sum-length) > 1e-6 || math.Abs(res.LengthMM-length) > 1e-6 {
		t.Fatalf("element sum %v, result %v, TraceLength %v disagree", sum, res.LengthMM, length)
	}
	want := (math.Pi*50 + 100) * model.MilsToMM
	if math.Abs(length-want) > 1e-9 {
		t.Fatalf("length = %v, want %v", length, want)
	}
}

func TestTracePath_OrientationAndDescription(t *testing.T) {
	svc := newServiceWith(t, straightBoard())
	ctx := context.Background()

	fwd := svc.TracePath(ctx, ref("U1.1"), ref("R1.1"))
	rev := svc.TracePath(ctx, ref("R1.1"), ref("U1.1"))
	if !fwd.Exists || !rev.Exists {
		t.Fatalf("expected both directions to exist")
	}
	if fwd.Elements[0].Component != "U1" || rev.Elements[0].Component != "R1" {
		t.Fatalf("paths should start at the first terminal: %q, %q",
			fwd.Elements[0].Component, rev.Elements[0].Component)
	}
	if len(fwd.Elements) != 3 || fwd.Elements[1].Type != "Track" {
		t.Fatalf("expected pad-track-pad, got %+v", fwd.Elements)
	}
	if want := "Path from U1.1 to R1.1 (3 elements, 3.81000 mm)"; fwd.Description != want {
		t.Fatalf("description = %q, want %q", fwd.Description, want)
	}
	if fwd.Strategy != StrategyExactEndpoint {
		t.Fatalf("strategy = %q, want %q", fwd.Strategy, StrategyExactEndpoint)
	}
}

func TestTrace_FirstSuccessfulStrategyWins(t *testing.T) {
	svc := newServiceWith(t, detourBoard())
	res, err := svc.Trace(context.Background(), ref("P1.1"), ref("P2.1"))
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	if res.Strategy != StrategyExactEndpoint {
		t.Fatalf("strategy = %q, want exact endpoint", res.Strategy)
	}
	if want := 300 * model.MilsToMM; math.Abs(res.LengthMM-want) > 1e-9 {
		t.Fatalf("length = %v, want the exact-endpoint detour %v", res.LengthMM, want)
	}
}

func TestTrace_FallsBackToTolerance(t *testing.T) {
	data := BoardData{
		Components: comps(pad("U1", "1", "N", 0, 0), pad("R1", "1", "N", 150, 0)),
		Tracks:     []*model.Track{track("N", 1.5, 0, 150, 0, 148.5)},
	}
	metrics := newRecordingMetrics()
	svc := newServiceWith(t, data, WithMetricsRecorder(metrics))
	res, err := svc.Trace(context.Background(), ref("U1.1"), ref("R1.1"))
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	if res.Strategy != StrategyTolerance {
		t.Fatalf("strategy = %q, want tolerance", res.Strategy)
	}
	if want := 148.5 * model.MilsToMM; math.Abs(res.LengthMM-want) > 1e-9 {
		t.Fatalf("length = %v, want %v", res.LengthMM, want)
	}
	if metrics.strategies[StrategyTolerance] != 1 {
		t.Fatalf("expected one tolerance win recorded, got %v", metrics.strategies)
	}
}

func TestTrace_ViaBetweenLayers(t *testing.T) {
	bottomPad := pad("R1", "1", "N", 100, 100)
	bottomPad.Layer = 7
	data := BoardData{
		Components: comps(pad("U1", "1", "N", 0, 0), bottomPad),
		Tracks: []*model.Track{
			track("N", 0, 0, 100, 0, 100),
			{Start: pt(100, 0), End: pt(100, 100), Net: "N", Layer: 7, LengthMils: 100},
		},
		Vias: []*model.Via{{Location: pt(100, 0), Net: "N", FromLayer: 1, ToLayer: 7, HoleSize: 10}},
	}
	svc := newServiceWith(t, data)
	res := svc.TracePath(context.Background(), ref("U1.1"), ref("R1.1"))
	if !res.Exists {
		t.Fatalf("expected a path through the via: %s", res.Reason)
	}
	if want := 200 * model.MilsToMM; math.Abs(res.LengthMM-want) > 1e-9 {
		t.Fatalf("length = %v, want %v", res.LengthMM, want)
	}
}

func TestTrace_NegativeResultsAreCached(t *testing.T) {
	metrics := newRecordingMetrics()
	svc := newServiceWith(t, straightBoard(), WithMetricsRecorder(metrics))
	ctx := context.Background()

	svc.TraceLength(ctx, ref("U1.1"), ref("NOPE.1"))
	svc.TraceLength(ctx, ref("NOPE.1"), ref("U1.1"))
	svc.TraceLength(ctx, ref("U1.1"), ref("R1.2"))
	svc.TraceLength(ctx, ref("R1.2"), ref("U1.1"))

	if metrics.cacheMiss != 2 || metrics.cacheHits != 2 {
		t.Fatalf("expected 2 misses and 2 hits, got %d/%d", metrics.cacheMiss, metrics.cacheHits)
	}
	if metrics.queries["trace_length/"+OutcomePadNotFound] != 2 {
		t.Fatalf("expected pad_not_found outcomes, got %v", metrics.queries)
	}
}

func TestLoad_ReplacesBoardAndCaches(t *testing.T) {
	ctx := context.Background()
	svc := newServiceWith(t, straightBoard())
	if _, ok := svc.TraceLength(ctx, ref("U1.1"), ref("R1.1")); !ok {
		t.Fatalf("expected path on first board")
	}

	longer := straightBoard()
	longer.Tracks[0].LengthMils = 200
	svc.LoadBoard(ctx, NewBoard(longer, svc.Config()))

	got, ok := svc.TraceLength(ctx, ref("U1.1"), ref("R1.1"))
	if !ok || math.Abs(got-200*model.MilsToMM) > 1e-9 {
		t.Fatalf("stale result after reload: %v %v", got, ok)
	}
}

func TestNetsAndComponents(t *testing.T) {
	data := jumperBoard()
	data.Components = append(data.Components, Component{
		Designator: "C1",
		Pads:       []*model.Pad{pad("C1", "1", "A", 0, 50), pad("C1", "2", "A", 0, 60)},
	})
	svc := newServiceWith(t, data)
	ctx := context.Background()

	nets := svc.Nets(ctx)
	want := []NetInfo{
		{Name: "A", ComponentCount: 3, PadCount: 4},
		{Name: "B", ComponentCount: 2, PadCount: 2},
	}
	if len(nets) != len(want) {
		t.Fatalf("nets = %+v, want %+v", nets, want)
	}
	for i := range want {
		if nets[i] != want[i] {
			t.Errorf("nets[%d] = %+v, want %+v", i, nets[i], want[i])
		}
	}

	comps := svc.ComponentsByNet(ctx, "A")
	var names []string
	for _, c := range comps {
		names = append(names, c.Designator)
	}
	if got := strings.Join(names, ","); got != "U1,J1,C1" {
		t.Fatalf("components on A = %s, want U1,J1,C1", got)
	}
	if len(comps[2].Pads) != 2 {
		t.Fatalf("C1 should list both pads, got %+v", comps[2].Pads)
	}
}

func TestNetReports(t *testing.T) {
	data := BoardData{
		Components: comps(
			pad("U1", "1", "N", 0, 0),
			pad("R1", "1", "N", 100, 0),
			pad("R2", "1", "N", 300, 0),
			pad("R3", "1", "N", 900, 900),
		),
		Tracks: []*model.Track{
			track("N", 0, 0, 100, 0, 100),
			track("N", 100, 0, 300, 0, 200),
		},
		Vias: []*model.Via{{Location: pt(100, 0), Net: "N", FromLayer: 1, ToLayer: 7}},
	}
	svc := newServiceWith(t, data)
	ctx := context.Background()

	pairs := svc.NetTraceLengths(ctx, "N")
	if len(pairs) != 3 {
		t.Fatalf("expected 3 connected pairs (R3 is isolated), got %+v", pairs)
	}

	rep := svc.CriticalPaths(ctx, "N")
	if rep.Longest == nil || rep.Longest.From != ref("U1.1") || rep.Longest.To != ref("R2.1") {
		t.Fatalf("longest path = %+v, want U1.1-R2.1", rep.Longest)
	}
	if want := 600 * model.MilsToMM; math.Abs(rep.TotalLengthMM-want) > 1e-9 {
		t.Fatalf("total = %v, want %v", rep.TotalLengthMM, want)
	}

	d := svc.NetDetails(ctx, "N")
	if len(d.Pads) != 4 || len(d.Segments) != 2 || len(d.Vias) != 1 {
		t.Fatalf("unexpected net detail: %+v", d)
	}
	if d.Connection == nil || math.Abs(d.Connection.LengthMM-100*model.MilsToMM) > 1e-9 {
		t.Fatalf("default connection = %+v", d.Connection)
	}
}
