package core

import (
	"context"
	"math"

	"github.com/signalsfoundry/pcb-trace-analyzer/internal/logging"
	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

// ConnectivityDetector decides whether two same-net primitives touch. It
// first compares connection points, then falls back to intersecting the
// slightly buffered copper shapes, which catches tracks that land inside a
// pad body rather than on its centre.
type ConnectivityDetector struct {
	// Tolerance is the default endpoint distance (mils).
	Tolerance float64
	// BufferFactor scales the tolerance into the shape buffer.
	BufferFactor float64
	// ArcSegments is the polyline resolution for arcs.
	ArcSegments int

	log logging.Logger
}

// NewConnectivityDetector builds a detector from engine configuration.
func NewConnectivityDetector(cfg EngineConfig, log logging.Logger) *ConnectivityDetector {
	cfg = cfg.normalized()
	if log == nil {
		log = logging.Noop()
	}
	return &ConnectivityDetector{
		Tolerance:    cfg.ConnectTolerance,
		BufferFactor: cfg.BufferFactor,
		ArcSegments:  cfg.ArcSegments,
		log:          log,
	}
}

// IsConnected applies the detector's default tolerance.
func (d *ConnectivityDetector) IsConnected(ctx context.Context, a, b model.Object) bool {
	return d.IsConnectedWithin(ctx, a, b, d.Tolerance)
}

// IsConnectedWithin reports whether a and b are electrically touching within
// tolerance mils.
func (d *ConnectivityDetector) IsConnectedWithin(ctx context.Context, a, b model.Object, tolerance float64) bool {
	return d.connected(ctx, a, b, d.Shape(a), d.Shape(b), tolerance)
}

// connected takes precomputed shapes so graph builders do not rebuild arc
// polylines for every pair.
func (d *ConnectivityDetector) connected(ctx context.Context, a, b model.Object, sa, sb Shape, tolerance float64) bool {
	if a.NetName() != b.NetName() {
		return false
	}
	if !a.Layers().Overlaps(b.Layers()) {
		return false
	}

	for _, p := range a.Endpoints() {
		for _, q := range b.Endpoints() {
			if p.DistanceTo(q) <= tolerance {
				return true
			}
		}
	}

	buffer := tolerance * d.BufferFactor
	hit, err := sa.Buffer(buffer).Intersects(sb.Buffer(buffer))
	if err != nil {
		d.log.Debug(ctx, "shape intersection failed; treating as not connected",
			logging.String("a", a.String()),
			logging.String("b", b.String()),
			logging.Err(err),
		)
		return false
	}
	return hit
}

// Shape returns the copper region of obj.
func (d *ConnectivityDetector) Shape(obj model.Object) Shape {
	return shapeOf(obj, d.ArcSegments)
}

func shapeOf(obj model.Object, arcSegments int) Shape {
	switch o := obj.(type) {
	case *model.Pad:
		return padShape(o)
	case *model.Track:
		return Polyline([]model.Point{o.Start, o.End})
	case *model.Arc:
		return arcShape(o, arcSegments)
	case *model.Via:
		return Circle(o.Location, o.HoleSize/2)
	default:
		return Shape{}
	}
}

func padShape(p *model.Pad) Shape {
	w2, h2 := p.Width/2, p.Height/2
	if p.ThroughHole() {
		return Circle(p.Location, math.Max(math.Max(w2, h2), p.HoleSize/2))
	}
	if p.Shape == model.PadRound || p.Shape == model.PadOval {
		return Circle(p.Location, w2)
	}

	c := p.Location
	corners := []model.Point{
		{X: c.X - w2, Y: c.Y - h2},
		{X: c.X + w2, Y: c.Y - h2},
		{X: c.X + w2, Y: c.Y + h2},
		{X: c.X - w2, Y: c.Y + h2},
	}
	if math.Abs(p.Rotation) > 1e-6 {
		// CAD rotation is clockwise in this frame.
		for i := range corners {
			corners[i] = rotate(corners[i], c, -p.Rotation)
		}
	}
	return Polygon(corners)
}

// arcShape approximates the arc with a polyline whose first and last
// vertices are the authoritative endpoints.
func arcShape(a *model.Arc, segments int) Shape {
	sweep := a.SweepRadians()
	if a.Radius <= 0 || sweep <= 1e-6 {
		return Polyline([]model.Point{a.Start, a.End})
	}
	if segments < 1 {
		segments = 1
	}
	start := a.StartAngle * math.Pi / 180
	pts := make([]model.Point, segments+1)
	for i := 0; i <= segments; i++ {
		angle := start + sweep*float64(i)/float64(segments)
		pts[i] = model.Point{
			X: a.Center.X + a.Radius*math.Cos(angle),
			Y: a.Center.Y + a.Radius*math.Sin(angle),
		}
	}
	pts[0] = a.Start
	pts[segments] = a.End
	if pts[0] == pts[segments] && segments == 1 {
		return PointShape(a.Start)
	}
	return Polyline(pts)
}
