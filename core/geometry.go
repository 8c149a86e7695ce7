package core

import (
	"errors"
	"math"

	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

// ErrInvalidGeometry is returned by shape operations on non-finite input.
var ErrInvalidGeometry = errors.New("invalid geometry")

type shapeKind int

const (
	shapePoint shapeKind = iota
	shapePolyline
	shapePolygon
)

// Shape is a 2D copper region: a core (point, polyline or polygon) inflated
// outward by radius. A circle is a point with a radius; buffering any shape
// only grows the radius, so distance tests stay exact.
type Shape struct {
	kind   shapeKind
	pts    []model.Point
	radius float64
}

// PointShape is a single point with no area.
func PointShape(p model.Point) Shape {
	return Shape{kind: shapePoint, pts: []model.Point{p}}
}

// Circle is a disc. A non-positive radius collapses to the centre point.
func Circle(center model.Point, radius float64) Shape {
	if !(radius > 0) {
		return PointShape(center)
	}
	return Shape{kind: shapePoint, pts: []model.Point{center}, radius: radius}
}

// Polyline is an open chain of segments. Fewer than two distinct points
// collapse to a point.
func Polyline(pts []model.Point) Shape {
	if len(pts) == 0 {
		return PointShape(model.Point{})
	}
	if len(pts) == 1 || allSame(pts) {
		return PointShape(pts[0])
	}
	cp := make([]model.Point, len(pts))
	copy(cp, pts)
	return Shape{kind: shapePolyline, pts: cp}
}

// Polygon is a filled ring. The ring is closed implicitly; a repeated
// closing vertex is dropped. Degenerate rings fall back to a polyline.
func Polygon(ring []model.Point) Shape {
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		ring = ring[:n-1]
	}
	if len(ring) < 3 || math.Abs(ringArea(ring)) < 1e-12 {
		return Polyline(ring)
	}
	cp := make([]model.Point, len(ring))
	copy(cp, ring)
	return Shape{kind: shapePolygon, pts: cp}
}

// Buffer grows the shape outward by d.
func (s Shape) Buffer(d float64) Shape {
	out := s
	out.radius = s.radius + d
	if out.radius < 0 {
		out.radius = 0
	}
	return out
}

// IsPoint reports whether the shape is a bare point with no area.
func (s Shape) IsPoint() bool { return s.kind == shapePoint && s.radius == 0 }

// Intersects reports whether two shapes share at least one point.
func (s Shape) Intersects(other Shape) (bool, error) {
	d, err := s.Distance(other)
	if err != nil {
		return false, err
	}
	return d <= 1e-9, nil
}

// Distance is the minimum distance between the two regions, zero when they
// overlap.
func (s Shape) Distance(other Shape) (float64, error) {
	if !s.valid() || !other.valid() {
		return 0, ErrInvalidGeometry
	}
	core := coreDistance(s, other)
	return math.Max(0, core-s.radius-other.radius), nil
}

func (s Shape) valid() bool {
	if len(s.pts) == 0 || math.IsNaN(s.radius) || math.IsInf(s.radius, 0) {
		return false
	}
	for _, p := range s.pts {
		if !finite(p.X) || !finite(p.Y) {
			return false
		}
	}
	return true
}

// segments lists the edges of the shape's core; a point is a zero-length
// segment.
func (s Shape) segments() [][2]model.Point {
	switch s.kind {
	case shapePoint:
		return [][2]model.Point{{s.pts[0], s.pts[0]}}
	case shapePolygon:
		out := make([][2]model.Point, 0, len(s.pts))
		for i := range s.pts {
			out = append(out, [2]model.Point{s.pts[i], s.pts[(i+1)%len(s.pts)]})
		}
		return out
	default:
		out := make([][2]model.Point, 0, len(s.pts)-1)
		for i := 0; i+1 < len(s.pts); i++ {
			out = append(out, [2]model.Point{s.pts[i], s.pts[i+1]})
		}
		return out
	}
}

func coreDistance(a, b Shape) float64 {
	if a.kind == shapePolygon && anyInside(b.pts, a.pts) {
		return 0
	}
	if b.kind == shapePolygon && anyInside(a.pts, b.pts) {
		return 0
	}
	best := math.Inf(1)
	for _, sa := range a.segments() {
		for _, sb := range b.segments() {
			d := segmentDistance(sa[0], sa[1], sb[0], sb[1])
			if d < best {
				best = d
				if best == 0 {
					return 0
				}
			}
		}
	}
	return best
}

func segmentDistance(p1, p2, q1, q2 model.Point) float64 {
	if segmentsCross(p1, p2, q1, q2) {
		return 0
	}
	return math.Min(
		math.Min(pointSegmentDistance(p1, q1, q2), pointSegmentDistance(p2, q1, q2)),
		math.Min(pointSegmentDistance(q1, p1, p2), pointSegmentDistance(q2, p1, p2)),
	)
}

func pointSegmentDistance(p, a, b model.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return p.DistanceTo(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.DistanceTo(model.Point{X: a.X + t*dx, Y: a.Y + t*dy})
}

func cross(o, a, b model.Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// segmentsCross reports a proper crossing. Touching and collinear overlap are
// picked up by the endpoint distances in segmentDistance.
func segmentsCross(p1, p2, q1, q2 model.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func anyInside(pts, ring []model.Point) bool {
	for _, p := range pts {
		if pointInRing(p, ring) {
			return true
		}
	}
	return false
}

// pointInRing is the even-odd ray cast.
func pointInRing(p model.Point, ring []model.Point) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

func ringArea(ring []model.Point) float64 {
	area := 0.0
	for i := range ring {
		j := (i + 1) % len(ring)
		area += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return area / 2
}

// rotate turns p about origin by deg degrees counter-clockwise.
func rotate(p, origin model.Point, deg float64) model.Point {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	dx, dy := p.X-origin.X, p.Y-origin.Y
	return model.Point{
		X: origin.X + dx*cos - dy*sin,
		Y: origin.Y + dx*sin + dy*cos,
	}
}

func allSame(pts []model.Point) bool {
	for _, p := range pts[1:] {
		if p != pts[0] {
			return false
		}
	}
	return true
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
