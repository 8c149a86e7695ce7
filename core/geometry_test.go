package core

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

func TestShape_DegenerateInputsCollapseToPoint(t *testing.T) {
	cases := map[string]Shape{
		"zero radius circle":     Circle(pt(1, 1), 0),
		"negative radius circle": Circle(pt(1, 1), -3),
		"single point polyline":  Polyline([]model.Point{pt(1, 1)}),
		"repeated point line":    Polyline([]model.Point{pt(1, 1), pt(1, 1)}),
	}
	for name, s := range cases {
		if !s.IsPoint() {
			t.Errorf("%s: expected a bare point shape", name)
		}
	}

	flat := Polygon([]model.Point{pt(0, 0), pt(5, 0), pt(10, 0)})
	if flat.kind != shapePolyline {
		t.Errorf("collinear polygon should fall back to a polyline, got kind %d", flat.kind)
	}
}

func TestShape_PolygonContainsPoint(t *testing.T) {
	square := Polygon([]model.Point{pt(0, 0), pt(10, 0), pt(10, 10), pt(0, 10), pt(0, 0)})
	hit, err := square.Intersects(PointShape(pt(5, 5)))
	if err != nil {
		t.Fatalf("Intersects: %v", err)
	}
	if !hit {
		t.Fatalf("expected point inside square to intersect")
	}

	hit, _ = square.Intersects(PointShape(pt(15, 5)))
	if hit {
		t.Fatalf("expected point outside square not to intersect")
	}
}

func TestShape_BufferClosesGap(t *testing.T) {
	a := Circle(pt(0, 0), 5)
	b := Circle(pt(12, 0), 5)

	if hit, _ := a.Intersects(b); hit {
		t.Fatalf("circles 2 apart should not intersect")
	}
	if hit, _ := a.Buffer(1).Intersects(b.Buffer(1)); !hit {
		t.Fatalf("buffered circles should touch")
	}
}

func TestShape_CrossingPolylines(t *testing.T) {
	a := Polyline([]model.Point{pt(0, 0), pt(10, 10)})
	b := Polyline([]model.Point{pt(0, 10), pt(10, 0)})
	d, err := a.Distance(b)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if d != 0 {
		t.Fatalf("crossing segments distance = %v, want 0", d)
	}

	c := Polyline([]model.Point{pt(0, 3), pt(10, 3)})
	e := Polyline([]model.Point{pt(0, 0), pt(10, 0)})
	d, _ = c.Distance(e)
	if math.Abs(d-3) > 1e-12 {
		t.Fatalf("parallel segments distance = %v, want 3", d)
	}
}

func TestShape_NonFiniteIsError(t *testing.T) {
	bad := PointShape(pt(math.NaN(), 0))
	_, err := bad.Intersects(PointShape(pt(0, 0)))
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("expected ErrInvalidGeometry, got %v", err)
	}
}

func TestRotate_CounterClockwise(t *testing.T) {
	got := rotate(pt(1, 0), pt(0, 0), 90)
	if math.Abs(got.X) > 1e-12 || math.Abs(got.Y-1) > 1e-12 {
		t.Fatalf("rotate 90 = %+v, want (0,1)", got)
	}
}
