package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/pcb-trace-analyzer/internal/logging"
	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

// Jumper is an explicit zero-length bridge between two terminals, usually
// on different nets.
type Jumper struct {
	A model.PadRef `json:"a"`
	B model.PadRef `json:"b"`
}

// NetSegment is a contiguous same-net stretch of a multi-net path.
type NetSegment struct {
	Net      string         `json:"net_name"`
	Pads     []model.PadRef `json:"path"`
	LengthMM float64        `json:"length_mm"`
}

// MultiNetResult is a path that may change net at jumpers.
type MultiNetResult struct {
	From          model.PadRef   `json:"from"`
	To            model.PadRef   `json:"to"`
	TotalLengthMM float64        `json:"total_length"`
	NetSegments   []NetSegment   `json:"net_segments"`
	Path          []model.PadRef `json:"path"`
	Jumpers       []Jumper       `json:"jumpers_crossed"`
}

// padGraph is the board-wide graph over pads: same-net pairs weighted by
// trace length, jumper pairs at zero.
type padGraph struct {
	*netGraph
	jumpers int
}

// multiNetPadGraph builds the pad graph once per board.
func (s *TraceService) multiNetPadGraph(ctx context.Context, snap *snapshot) *padGraph {
	snap.padGraphOnce.Do(func() {
		start := time.Now()
		snap.padGraph = s.buildPadGraph(ctx, snap)
		s.log.Info(ctx, "multi-net pad graph built",
			logging.Int("pads", len(snap.padGraph.nodes)),
			logging.Int("jumpers", snap.padGraph.jumpers),
			logging.Any("elapsed", time.Since(start).String()),
		)
	})
	return snap.padGraph
}

func (s *TraceService) buildPadGraph(ctx context.Context, snap *snapshot) *padGraph {
	b := snap.board
	var pads []int
	for _, c := range b.components {
		for _, p := range c.Pads {
			_, idx, _ := b.Pad(p.Ref())
			pads = append(pads, idx)
		}
	}
	g := &padGraph{netGraph: newNetGraph(pads)}
	edges := make(map[[2]int]float64)

	for _, net := range b.nets {
		netPads := b.NetPads(net)
		for i := 0; i < len(netPads); i++ {
			for j := i + 1; j < len(netPads); j++ {
				r := s.resolve(ctx, snap, netPads[i].Ref(), netPads[j].Ref())
				if r.err != nil {
					continue
				}
				u, v := g.padNode(b, netPads[i].Ref()), g.padNode(b, netPads[j].Ref())
				edges[orderedPair(u, v)] = r.lengthMils * model.MilsToMM
			}
		}
	}

	for _, c := range b.components {
		if !spansNets(c) {
			continue
		}
		for i := 0; i < len(c.Pads); i++ {
			for j := i + 1; j < len(c.Pads); j++ {
				p, q := c.Pads[i], c.Pads[j]
				if p.Net == q.Net || p.Location.DistanceTo(q.Location) > s.cfg.JumperDistance {
					continue
				}
				edges[orderedPair(g.padNode(b, p.Ref()), g.padNode(b, q.Ref()))] = 0
				g.jumpers++
			}
		}
	}
	g.addEdges(edges)
	return g
}

// spansNets reports whether a component's pads sit on more than one net,
// which marks connectors and jumpers.
func spansNets(c Component) bool {
	if len(c.Pads) < 2 {
		return false
	}
	for _, p := range c.Pads[1:] {
		if p.Net != c.Pads[0].Net {
			return true
		}
	}
	return false
}

func (g *padGraph) padNode(b *Board, ref model.PadRef) int {
	_, idx, ok := b.Pad(ref)
	if !ok {
		return -1
	}
	n, ok := g.index[idx]
	if !ok {
		return -1
	}
	return n
}

func orderedPair(u, v int) [2]int {
	if u > v {
		return [2]int{v, u}
	}
	return [2]int{u, v}
}

// withJumpers overlays explicit jumpers on the shared adjacency without
// mutating it.
func (g *padGraph) withJumpers(b *Board, jumpers []Jumper) ([][]graphEdge, error) {
	if len(jumpers) == 0 {
		return g.adj, nil
	}
	adj := make([][]graphEdge, len(g.adj))
	copy(adj, g.adj)
	for _, j := range jumpers {
		u, v := g.padNode(b, j.A), g.padNode(b, j.B)
		if u < 0 {
			return nil, fmt.Errorf("jumper %s-%s: %w: %s", j.A, j.B, ErrPadNotFound, j.A)
		}
		if v < 0 {
			return nil, fmt.Errorf("jumper %s-%s: %w: %s", j.A, j.B, ErrPadNotFound, j.B)
		}
		adj[u] = append(adj[u][:len(adj[u]):len(adj[u])], graphEdge{to: v})
		adj[v] = append(adj[v][:len(adj[v]):len(adj[v])], graphEdge{to: u})
	}
	return adj, nil
}

// MultiNetPath finds the shortest route between two terminals allowing the
// route to cross nets at jumpers: pads of one component on different nets
// within the configured jumper distance, plus any explicit jumpers given.
func (s *TraceService) MultiNetPath(ctx context.Context, a, b model.PadRef, jumpers ...Jumper) (*MultiNetResult, bool) {
	res, err := s.MultiNet(ctx, a, b, jumpers...)
	if err != nil {
		return nil, false
	}
	return res, true
}

// MultiNet is MultiNetPath with the failure reason.
func (s *TraceService) MultiNet(ctx context.Context, a, b model.PadRef, jumpers ...Jumper) (*MultiNetResult, error) {
	start := time.Now()
	res, err := s.multiNet(ctx, a, b, jumpers)
	s.observe("multi_net_path", err, time.Since(start))
	return res, err
}

func (s *TraceService) multiNet(ctx context.Context, a, b model.PadRef, jumpers []Jumper) (*MultiNetResult, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	ctx, _ = logging.EnsureQueryID(ctx)
	ctx, span := s.tracer.Start(ctx, "TraceService.multi_net_path")
	defer span.End()

	board := snap.board
	g := s.multiNetPadGraph(ctx, snap)
	src, dst := g.padNode(board, a), g.padNode(board, b)
	if src < 0 {
		return nil, fmt.Errorf("%w: %s", ErrPadNotFound, a)
	}
	if dst < 0 {
		return nil, fmt.Errorf("%w: %s", ErrPadNotFound, b)
	}
	adj, err := g.withJumpers(board, jumpers)
	if err != nil {
		return nil, err
	}

	path, total, ok := shortestPath(adj, src, dst)
	if !ok {
		return nil, fmt.Errorf("%w: %s to %s across nets", ErrNoPathFound, a, b)
	}

	res := &MultiNetResult{From: a, To: b, TotalLengthMM: total}
	var cur *NetSegment
	for i, n := range path {
		pad := board.objects[g.nodes[n]].(*model.Pad)
		res.Path = append(res.Path, pad.Ref())
		if i > 0 {
			prev := board.objects[g.nodes[path[i-1]]].(*model.Pad)
			w := edgeBetween(adj, path[i-1], n)
			if prev.Net != pad.Net {
				res.Jumpers = append(res.Jumpers, Jumper{A: prev.Ref(), B: pad.Ref()})
				cur = nil
			} else if cur != nil {
				cur.LengthMM += w
			}
		}
		if cur == nil {
			res.NetSegments = append(res.NetSegments, NetSegment{Net: pad.Net})
			cur = &res.NetSegments[len(res.NetSegments)-1]
		}
		cur.Pads = append(cur.Pads, pad.Ref())
	}
	return res, nil
}

// edgeBetween returns the lightest edge weight from u to v.
func edgeBetween(adj [][]graphEdge, u, v int) float64 {
	w := math.Inf(1)
	for _, e := range adj[u] {
		if e.to == v && e.weight < w {
			w = e.weight
		}
	}
	if math.IsInf(w, 1) {
		return 0
	}
	return w
}
