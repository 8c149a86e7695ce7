package model

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// MilsToMM converts the internal length unit (mil, 1/1000 inch) to millimetres.
const MilsToMM = 0.0254

// MinSegmentLength is the length (mils) at or below which a track or arc is
// considered degenerate and excluded from the board.
const MinSegmentLength = 1e-6

// Point is a board coordinate in mils.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance between two points.
func (p Point) DistanceTo(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// GridPoint is a point snapped to a fixed decimal precision. Two endpoints
// that snap to the same GridPoint are treated as coincident.
type GridPoint struct {
	X, Y int64
}

// Grid snaps p to the given number of decimal places.
func (p Point) Grid(precision int) GridPoint {
	scale := math.Pow10(precision)
	return GridPoint{
		X: int64(math.Round(p.X * scale)),
		Y: int64(math.Round(p.Y * scale)),
	}
}

func (g GridPoint) less(o GridPoint) bool {
	if g.X != o.X {
		return g.X < o.X
	}
	return g.Y < o.Y
}

func (g GridPoint) String() string {
	return strconv.FormatInt(g.X, 10) + "," + strconv.FormatInt(g.Y, 10)
}

// LayerSet is the set of copper layers an object occupies. All marks
// through-hole pads and vias, which bridge every layer.
type LayerSet struct {
	All    bool
	Layers []int
}

// SingleLayer returns a set containing one layer.
func SingleLayer(layer int) LayerSet { return LayerSet{Layers: []int{layer}} }

// AllLayers returns the sentinel set that overlaps every layer.
func AllLayers() LayerSet { return LayerSet{All: true} }

// Overlaps reports whether two layer sets share a layer. A set marked All
// overlaps anything.
func (s LayerSet) Overlaps(other LayerSet) bool {
	if s.All || other.All {
		return true
	}
	for _, a := range s.Layers {
		for _, b := range other.Layers {
			if a == b {
				return true
			}
		}
	}
	return false
}

// Kind tags the variant of an Object.
type Kind int

const (
	KindPad Kind = iota
	KindTrack
	KindArc
	KindVia
)

func (k Kind) String() string {
	switch k {
	case KindPad:
		return "Pad"
	case KindTrack:
		return "Track"
	case KindArc:
		return "Arc"
	case KindVia:
		return "Via"
	default:
		return "Unknown"
	}
}

// Linear reports whether objects of this kind carry a physical length.
func (k Kind) Linear() bool { return k == KindTrack || k == KindArc }

// Object is a copper primitive on a named net. The set of implementations is
// closed: *Pad, *Track, *Arc and *Via.
type Object interface {
	Kind() Kind
	NetName() string
	// Length is the physical length in mils; zero for pads and vias.
	Length() float64
	// Endpoints are the connection points: the centre for pads and vias,
	// both ends for tracks and arcs.
	Endpoints() []Point
	Layers() LayerSet
	// Key is a value-derived identity. Objects with equal keys are the same
	// board entity.
	Key(precision int) string
	String() string

	object()
}

// PadShape is the outline of a pad.
type PadShape int

const (
	PadRectangular PadShape = iota
	PadRound
	PadOval
)

// ParsePadShape maps a CAD shape name onto a PadShape. Unknown names are
// rectangular.
func ParsePadShape(s string) PadShape {
	name := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(name, "round"), name == "circle":
		return PadRound
	case name == "oval":
		return PadOval
	default:
		return PadRectangular
	}
}

func (s PadShape) String() string {
	switch s {
	case PadRound:
		return "Round"
	case PadOval:
		return "Oval"
	default:
		return "Rectangular"
	}
}

// PadRef names a component terminal.
type PadRef struct {
	Designator string `json:"component"`
	Number     string `json:"pad"`
}

func (r PadRef) String() string { return r.Designator + "." + r.Number }

// ParsePadRef parses "U1.11" into a PadRef. The last dot separates, so
// designators such as "J1.A" keep their dots.
func ParsePadRef(s string) (PadRef, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return PadRef{}, fmt.Errorf("invalid pad reference %q: want DESIGNATOR.PAD", s)
	}
	return PadRef{Designator: s[:i], Number: s[i+1:]}, nil
}

// Pad is a component terminal footprint.
type Pad struct {
	Designator string
	Number     string
	Net        string
	Location   Point
	Layer      int
	Width      float64
	Height     float64
	HoleSize   float64 // > 0 means through-hole
	Rotation   float64 // degrees
	Shape      PadShape
}

func (p *Pad) Kind() Kind         { return KindPad }
func (p *Pad) NetName() string    { return p.Net }
func (p *Pad) Length() float64    { return 0 }
func (p *Pad) Endpoints() []Point { return []Point{p.Location} }
func (p *Pad) Ref() PadRef        { return PadRef{Designator: p.Designator, Number: p.Number} }
func (p *Pad) ThroughHole() bool  { return p.HoleSize > 0 }
func (p *Pad) Key(int) string     { return "pad:" + p.Designator + "\x00" + p.Number }
func (p *Pad) String() string     { return fmt.Sprintf("Pad(%s.%s, net=%s)", p.Designator, p.Number, p.Net) }
func (p *Pad) object()            {}
func (p *Pad) Layers() LayerSet {
	if p.ThroughHole() {
		return AllLayers()
	}
	return SingleLayer(p.Layer)
}

// Track is a straight copper segment.
type Track struct {
	Start      Point
	End        Point
	Net        string
	Layer      int
	LengthMils float64
	Width      float64 // 0 when the source did not specify one
}

func (t *Track) Kind() Kind         { return KindTrack }
func (t *Track) NetName() string    { return t.Net }
func (t *Track) Length() float64    { return t.LengthMils }
func (t *Track) Endpoints() []Point { return []Point{t.Start, t.End} }
func (t *Track) Layers() LayerSet   { return SingleLayer(t.Layer) }
func (t *Track) object()            {}

func (t *Track) Key(precision int) string {
	a, b := orderedGrid(t.Start, t.End, precision)
	return fmt.Sprintf("track:%s|%s|%d|%s", a, b, t.Layer, t.Net)
}

func (t *Track) String() string {
	return fmt.Sprintf("Track((%.2f, %.2f)-(%.2f, %.2f), L=%.2fmils)", t.Start.X, t.Start.Y, t.End.X, t.End.Y, t.LengthMils)
}

// Arc is a curved copper segment. Start and End are authoritative; the
// angles only describe the sweep, which runs counter-clockwise.
type Arc struct {
	Center     Point
	Radius     float64
	StartAngle float64 // degrees
	EndAngle   float64 // degrees
	Start      Point
	End        Point
	Net        string
	Layer      int
	LengthMils float64
	Width      float64
}

func (a *Arc) Kind() Kind         { return KindArc }
func (a *Arc) NetName() string    { return a.Net }
func (a *Arc) Length() float64    { return a.LengthMils }
func (a *Arc) Endpoints() []Point { return []Point{a.Start, a.End} }
func (a *Arc) Layers() LayerSet   { return SingleLayer(a.Layer) }
func (a *Arc) object()            {}

// SweepRadians is the counter-clockwise sweep from StartAngle to EndAngle,
// wrapped into [0, 2π).
func (a *Arc) SweepRadians() float64 {
	delta := (a.EndAngle - a.StartAngle) * math.Pi / 180
	if delta < 0 {
		delta += 2 * math.Pi
	}
	return delta
}

func (a *Arc) Key(precision int) string {
	s, e := orderedGrid(a.Start, a.End, precision)
	c := a.Center.Grid(precision)
	r := int64(math.Round(a.Radius * math.Pow10(precision)))
	return fmt.Sprintf("arc:%s|%s|%s|%d|%d|%s", s, e, c, r, a.Layer, a.Net)
}

func (a *Arc) String() string {
	return fmt.Sprintf("Arc(C=(%.2f, %.2f), R=%.2f, L=%.2fmils)", a.Center.X, a.Center.Y, a.Radius, a.LengthMils)
}

// Via is a plated hole joining copper on several layers.
type Via struct {
	Location  Point
	Net       string
	FromLayer int
	ToLayer   int
	HoleSize  float64
}

func (v *Via) Kind() Kind         { return KindVia }
func (v *Via) NetName() string    { return v.Net }
func (v *Via) Length() float64    { return 0 }
func (v *Via) Endpoints() []Point { return []Point{v.Location} }

// Layers is always All: for connectivity a via bridges every layer, not
// just FromLayer..ToLayer.
func (v *Via) Layers() LayerSet { return AllLayers() }
func (v *Via) object()          {}

func (v *Via) Key(precision int) string {
	return fmt.Sprintf("via:%s|%s", v.Location.Grid(precision), v.Net)
}

func (v *Via) String() string {
	return fmt.Sprintf("Via(loc=(%.2f, %.2f), net=%s)", v.Location.X, v.Location.Y, v.Net)
}

func orderedGrid(a, b Point, precision int) (GridPoint, GridPoint) {
	ga, gb := a.Grid(precision), b.Grid(precision)
	if gb.less(ga) {
		return gb, ga
	}
	return ga, gb
}

// SortPadRefs orders refs by designator then pad number.
func SortPadRefs(refs []PadRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Designator != refs[j].Designator {
			return refs[i].Designator < refs[j].Designator
		}
		return refs[i].Number < refs[j].Number
	})
}
