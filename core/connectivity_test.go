package core

import (
	"context"
	"math"
	"testing"

	"github.com/signalsfoundry/pcb-trace-analyzer/internal/logging"
	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

func newDetector() *ConnectivityDetector {
	return NewConnectivityDetector(DefaultEngineConfig(), logging.Noop())
}

func TestIsConnected_DifferentNets(t *testing.T) {
	det := newDetector()
	a := pad("U1", "1", "A", 0, 0)
	b := track("B", 0, 0, 10, 0, 10)
	if det.IsConnected(context.Background(), a, b) {
		t.Fatalf("objects on different nets must never connect")
	}
}

func TestIsConnected_EndpointTolerance(t *testing.T) {
	det := newDetector()
	ctx := context.Background()
	p := pad("U1", "1", "N", 0, 0)
	p.Width, p.Height = 0, 0

	near := track("N", 1.9, 0, 50, 0, 48.1)
	if !det.IsConnected(ctx, p, near) {
		t.Errorf("endpoint 1.9 mil away should connect at 2.0 tolerance")
	}
	far := track("N", 2.5, 0, 50, 0, 47.5)
	if det.IsConnected(ctx, p, far) {
		t.Errorf("endpoint 2.5 mil away should not connect at 2.0 tolerance")
	}
	if !det.IsConnectedWithin(ctx, p, far, 3) {
		t.Errorf("endpoint 2.5 mil away should connect at 3.0 tolerance")
	}
}

func TestIsConnected_TrackLandingInsidePadBody(t *testing.T) {
	det := newDetector()
	p := &model.Pad{
		Designator: "U1", Number: "1", Net: "N",
		Location: pt(0, 0), Layer: 1, Width: 40, Height: 40,
		Shape: model.PadRectangular,
	}
	tr := track("N", 15, 0, 100, 0, 85)
	if !det.IsConnected(context.Background(), p, tr) {
		t.Fatalf("track ending inside the pad body should connect")
	}
}

func TestIsConnected_RotatedPad(t *testing.T) {
	det := newDetector()
	p := &model.Pad{
		Designator: "U1", Number: "1", Net: "N",
		Location: pt(0, 0), Layer: 1, Width: 60, Height: 4, Rotation: 90,
		Shape: model.PadRectangular,
	}
	along := track("N", 0, 25, 0, 100, 75)
	if !det.IsConnected(context.Background(), p, along) {
		t.Errorf("rotated pad should reach the track along its long axis")
	}
	across := track("N", 25, 0, 100, 0, 75)
	if det.IsConnected(context.Background(), p, across) {
		t.Errorf("rotated pad should not reach the track along its short axis")
	}
}

func TestIsConnected_Layers(t *testing.T) {
	det := newDetector()
	ctx := context.Background()
	top := track("N", 0, 0, 10, 0, 10)
	bottom := &model.Track{Start: pt(10, 0), End: pt(20, 0), Net: "N", Layer: 7, LengthMils: 10}
	if det.IsConnected(ctx, top, bottom) {
		t.Errorf("tracks on different layers should not connect")
	}

	via := &model.Via{Location: pt(10, 0), Net: "N", FromLayer: 1, ToLayer: 7, HoleSize: 8}
	if !det.IsConnected(ctx, top, via) || !det.IsConnected(ctx, via, bottom) {
		t.Errorf("via should bridge every layer")
	}

	th := pad("J1", "1", "N", 20, 0)
	th.Layer = 1
	th.HoleSize = 30
	if !det.IsConnected(ctx, bottom, th) {
		t.Errorf("through-hole pad should connect on any layer")
	}
}

func TestArcShape_EndpointsAreAuthoritative(t *testing.T) {
	a := &model.Arc{
		Center: pt(0, 50), Radius: 50, StartAngle: 270, EndAngle: 90,
		Start: pt(0.001, 0), End: pt(0, 100), Net: "N", Layer: 1, LengthMils: math.Pi * 50,
	}
	s := arcShape(a, 32)
	if len(s.pts) != 33 {
		t.Fatalf("arc polyline has %d points, want 33", len(s.pts))
	}
	if s.pts[0] != a.Start || s.pts[32] != a.End {
		t.Fatalf("arc polyline endpoints = %v, %v; want %v, %v", s.pts[0], s.pts[32], a.Start, a.End)
	}
	// 270 -> 90 wraps to a 180 degree counter-clockwise sweep through x=+50.
	mid := s.pts[16]
	if math.Abs(mid.X-50) > 1e-9 || math.Abs(mid.Y-50) > 1e-9 {
		t.Fatalf("arc midpoint = %+v, want (50,50)", mid)
	}
}

func TestArcShape_DegenerateSweep(t *testing.T) {
	a := &model.Arc{Center: pt(0, 0), Radius: 0, Start: pt(0, 0), End: pt(10, 0), LengthMils: 10}
	s := arcShape(a, 32)
	if s.kind != shapePolyline || len(s.pts) != 2 {
		t.Fatalf("zero radius arc should be a straight polyline, got %+v", s)
	}
}
