package core

import (
	"context"
	"sort"

	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

// NetInfo summarises one net.
type NetInfo struct {
	Name           string `json:"net_name"`
	ComponentCount int    `json:"component_count"`
	PadCount       int    `json:"pad_count"`
}

// ComponentPads is a component and its pads on one net.
type ComponentPads struct {
	Designator string    `json:"designator"`
	Pads       []PadInfo `json:"pads"`
}

// PadInfo is the reportable view of a pad.
type PadInfo struct {
	Component string      `json:"component"`
	Pad       string      `json:"pad"`
	Net       string      `json:"net"`
	Location  model.Point `json:"location"`
	Layer     int         `json:"layer"`
}

// PairLength is the trace length between two terminals.
type PairLength struct {
	From     model.PadRef `json:"from"`
	To       model.PadRef `json:"to"`
	LengthMM float64      `json:"length_mm"`
}

// CriticalPathReport ranks the pad-to-pad paths of a net by length.
type CriticalPathReport struct {
	Net           string       `json:"net_name"`
	Paths         []PairLength `json:"paths"`
	Longest       *PairLength  `json:"longest_path"`
	TotalLengthMM float64      `json:"total_length_mm"`
}

// NetDetail lists the copper of a net and a default connection between its
// first two pads.
type NetDetail struct {
	Net        string      `json:"net_name"`
	Pads       []PadInfo   `json:"pads"`
	Segments   []Segment   `json:"segments"`
	Vias       []ViaInfo   `json:"vias"`
	Connection *PairLength `json:"connection_info"`
}

// Segment is a track or arc of a net.
type Segment struct {
	Type       string       `json:"type"`
	Start      model.Point  `json:"start"`
	End        model.Point  `json:"end"`
	Center     *model.Point `json:"center,omitempty"`
	Radius     float64      `json:"radius,omitempty"`
	StartAngle float64      `json:"start_angle,omitempty"`
	EndAngle   float64      `json:"end_angle,omitempty"`
	Layer      int          `json:"layer"`
	LengthMils float64      `json:"length"`
}

// ViaInfo is the reportable view of a via.
type ViaInfo struct {
	Location  model.Point `json:"location"`
	FromLayer int         `json:"from_layer"`
	ToLayer   int         `json:"to_layer"`
	HoleSize  float64     `json:"hole_size"`
}

func padInfo(p *model.Pad) PadInfo {
	return PadInfo{Component: p.Designator, Pad: p.Number, Net: p.Net, Location: p.Location, Layer: p.Layer}
}

// Nets lists every net in name order with the number of distinct components
// and pads on it.
func (s *TraceService) Nets(ctx context.Context) []NetInfo {
	snap, err := s.current()
	if err != nil {
		return nil
	}
	b := snap.board
	out := make([]NetInfo, 0, len(b.nets))
	for _, net := range b.nets {
		pads := b.NetPads(net)
		comps := make(map[string]struct{}, len(pads))
		for _, p := range pads {
			comps[p.Designator] = struct{}{}
		}
		out = append(out, NetInfo{Name: net, ComponentCount: len(comps), PadCount: len(pads)})
	}
	return out
}

// ComponentsByNet returns, in load order, the components with at least one
// pad on net.
func (s *TraceService) ComponentsByNet(ctx context.Context, net string) []ComponentPads {
	snap, err := s.current()
	if err != nil {
		return nil
	}
	var out []ComponentPads
	pos := make(map[string]int)
	for _, p := range snap.board.NetPads(net) {
		i, ok := pos[p.Designator]
		if !ok {
			i = len(out)
			pos[p.Designator] = i
			out = append(out, ComponentPads{Designator: p.Designator})
		}
		out[i].Pads = append(out[i].Pads, padInfo(p))
	}
	return out
}

// NetTraceLengths computes the trace length of every pad pair on net. Pairs
// without a path are left out.
func (s *TraceService) NetTraceLengths(ctx context.Context, net string) []PairLength {
	snap, err := s.current()
	if err != nil {
		return nil
	}
	pads := snap.board.NetPads(net)
	var out []PairLength
	for i := 0; i < len(pads); i++ {
		for j := i + 1; j < len(pads); j++ {
			a, b := pads[i].Ref(), pads[j].Ref()
			r, err := s.queryOn(ctx, snap, "net_trace_lengths", a, b)
			if err != nil {
				continue
			}
			out = append(out, PairLength{From: a, To: b, LengthMM: r.lengthMils * model.MilsToMM})
		}
	}
	return out
}

// CriticalPaths ranks the pad-to-pad paths of net, longest first.
func (s *TraceService) CriticalPaths(ctx context.Context, net string) *CriticalPathReport {
	paths := s.NetTraceLengths(ctx, net)
	sort.SliceStable(paths, func(i, j int) bool { return paths[i].LengthMM > paths[j].LengthMM })

	rep := &CriticalPathReport{Net: net, Paths: paths}
	if len(paths) > 0 {
		longest := paths[0]
		rep.Longest = &longest
	}
	for _, p := range paths {
		rep.TotalLengthMM += p.LengthMM
	}
	return rep
}

// NetDetails lists the pads, segments and vias of net. Connection is the
// path between the net's first two pads, when one exists.
func (s *TraceService) NetDetails(ctx context.Context, net string) *NetDetail {
	snap, err := s.current()
	if err != nil {
		return nil
	}
	b := snap.board
	d := &NetDetail{Net: net}
	var pads []*model.Pad
	for _, idx := range b.NetObjects(net) {
		switch o := b.objects[idx].(type) {
		case *model.Pad:
			pads = append(pads, o)
			d.Pads = append(d.Pads, padInfo(o))
		case *model.Track:
			d.Segments = append(d.Segments, Segment{
				Type: "track", Start: o.Start, End: o.End, Layer: o.Layer, LengthMils: o.LengthMils,
			})
		case *model.Arc:
			center := o.Center
			d.Segments = append(d.Segments, Segment{
				Type: "arc", Start: o.Start, End: o.End, Center: &center, Radius: o.Radius,
				StartAngle: o.StartAngle, EndAngle: o.EndAngle, Layer: o.Layer, LengthMils: o.LengthMils,
			})
		case *model.Via:
			d.Vias = append(d.Vias, ViaInfo{
				Location: o.Location, FromLayer: o.FromLayer, ToLayer: o.ToLayer, HoleSize: o.HoleSize,
			})
		}
	}

	if len(pads) >= 2 {
		a, c := pads[0].Ref(), pads[1].Ref()
		if r, err := s.queryOn(ctx, snap, "net_details", a, c); err == nil {
			d.Connection = &PairLength{From: a, To: c, LengthMM: r.lengthMils * model.MilsToMM}
		}
	}
	return d
}
