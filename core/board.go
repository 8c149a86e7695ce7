package core

import (
	"sort"

	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

// Component is a placed part and the pads of it that carry a net.
type Component struct {
	Designator string
	Layer      int
	Pads       []*model.Pad
}

// BoardData is the raw primitive set handed to NewBoard.
type BoardData struct {
	Components []Component
	Tracks     []*model.Track
	Arcs       []*model.Arc
	Vias       []*model.Via
}

// LoadSummary counts what a board load kept and what it dropped.
type LoadSummary struct {
	Components int `json:"components"`
	Pads       int `json:"pads"`
	Tracks     int `json:"tracks"`
	Arcs       int `json:"arcs"`
	Vias       int `json:"vias"`
	Nets       int `json:"nets"`

	SkippedNoNet      int `json:"skipped_no_net"`
	SkippedDegenerate int `json:"skipped_degenerate"`
	SkippedDuplicate  int `json:"skipped_duplicate"`
}

// Objects is the number of primitives in the board arena.
func (s LoadSummary) Objects() int { return s.Pads + s.Tracks + s.Arcs + s.Vias }

// Board is the immutable object arena for one loaded board. Objects are
// addressed by index; graphs reference those indices rather than pointers.
type Board struct {
	objects []model.Object
	shapes  []Shape

	pads       map[model.PadRef]int
	byNet      map[string][]int
	nets       []string
	components []Component

	precision int
	summary   LoadSummary
}

// NewBoard builds the arena. Objects without a net and degenerate tracks or
// arcs are dropped; objects whose identity key repeats an earlier one are
// dropped as duplicates. Input order is preserved for everything kept.
func NewBoard(data BoardData, cfg EngineConfig) *Board {
	cfg = cfg.normalized()
	b := &Board{
		pads:      make(map[model.PadRef]int),
		byNet:     make(map[string][]int),
		precision: cfg.RoundingPrecision,
	}
	seen := make(map[string]struct{})

	add := func(obj model.Object) bool {
		if obj.NetName() == "" {
			b.summary.SkippedNoNet++
			return false
		}
		if obj.Kind().Linear() && obj.Length() <= model.MinSegmentLength {
			b.summary.SkippedDegenerate++
			return false
		}
		key := obj.Key(b.precision)
		if _, dup := seen[key]; dup {
			b.summary.SkippedDuplicate++
			return false
		}
		seen[key] = struct{}{}

		idx := len(b.objects)
		b.objects = append(b.objects, obj)
		b.shapes = append(b.shapes, shapeOf(obj, cfg.ArcSegments))
		b.byNet[obj.NetName()] = append(b.byNet[obj.NetName()], idx)
		return true
	}

	for _, c := range data.Components {
		comp := Component{Designator: c.Designator, Layer: c.Layer}
		for _, p := range c.Pads {
			if p == nil || !add(p) {
				continue
			}
			b.pads[p.Ref()] = len(b.objects) - 1
			comp.Pads = append(comp.Pads, p)
			b.summary.Pads++
		}
		b.components = append(b.components, comp)
	}
	for _, t := range data.Tracks {
		if t != nil && add(t) {
			b.summary.Tracks++
		}
	}
	for _, a := range data.Arcs {
		if a != nil && add(a) {
			b.summary.Arcs++
		}
	}
	for _, v := range data.Vias {
		if v != nil && add(v) {
			b.summary.Vias++
		}
	}

	for net := range b.byNet {
		b.nets = append(b.nets, net)
	}
	sort.Strings(b.nets)
	b.summary.Components = len(b.components)
	b.summary.Nets = len(b.nets)
	return b
}

// Summary reports the load counts.
func (b *Board) Summary() LoadSummary { return b.summary }

// Len is the number of objects in the arena.
func (b *Board) Len() int { return len(b.objects) }

// Object returns the object at arena index i.
func (b *Board) Object(i int) model.Object { return b.objects[i] }

// Pad resolves a terminal to its arena index.
func (b *Board) Pad(ref model.PadRef) (*model.Pad, int, bool) {
	i, ok := b.pads[ref]
	if !ok {
		return nil, -1, false
	}
	return b.objects[i].(*model.Pad), i, true
}

// NetObjects lists the arena indices of every object on net, in load order.
func (b *Board) NetObjects(net string) []int { return b.byNet[net] }

// Nets returns the net names in lexical order.
func (b *Board) Nets() []string {
	out := make([]string, len(b.nets))
	copy(out, b.nets)
	return out
}

// Components returns the components in load order.
func (b *Board) Components() []Component { return b.components }

// NetPads lists the pads on net in load order.
func (b *Board) NetPads(net string) []*model.Pad {
	var out []*model.Pad
	for _, i := range b.byNet[net] {
		if p, ok := b.objects[i].(*model.Pad); ok {
			out = append(out, p)
		}
	}
	return out
}
