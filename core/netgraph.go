package core

import (
	"context"
	"math"
	"sort"

	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

// Strategy names reported with a found path.
const (
	StrategyExactEndpoint = "exact_endpoint"
	StrategyTolerance     = "tolerance"
)

// netGraph is a weighted undirected graph over arena indices of one net.
type netGraph struct {
	nodes []int       // arena index per node
	index map[int]int // arena index -> node
	adj   [][]graphEdge
}

type graphEdge struct {
	to     int
	weight float64
}

func newNetGraph(objects []int) *netGraph {
	g := &netGraph{
		nodes: make([]int, len(objects)),
		index: make(map[int]int, len(objects)),
		adj:   make([][]graphEdge, len(objects)),
	}
	copy(g.nodes, objects)
	for n, obj := range objects {
		g.index[obj] = n
	}
	return g
}

// addEdges inserts edges in sorted pair order so adjacency order, and with
// it Dijkstra's tie-breaking, does not depend on map iteration.
func (g *netGraph) addEdges(edges map[[2]int]float64) {
	pairs := make([][2]int, 0, len(edges))
	for p := range edges {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	for _, p := range pairs {
		w := edges[p]
		g.adj[p[0]] = append(g.adj[p[0]], graphEdge{to: p[1], weight: w})
		g.adj[p[1]] = append(g.adj[p[1]], graphEdge{to: p[0], weight: w})
	}
}

// graphStrategy builds the connectivity graph of one net.
type graphStrategy struct {
	name  string
	build func(ctx context.Context, b *Board, det *ConnectivityDetector, objects []int) *netGraph
}

// graphStrategies are tried in order; the first that connects the two
// terminals wins, even if a later one would find a shorter path.
var graphStrategies = []graphStrategy{
	{name: StrategyExactEndpoint, build: buildExactEndpointGraph},
	{name: StrategyTolerance, build: buildToleranceGraph},
}

// buildExactEndpointGraph joins every pair of objects that share a rounded
// endpoint.
func buildExactEndpointGraph(_ context.Context, b *Board, _ *ConnectivityDetector, objects []int) *netGraph {
	g := newNetGraph(objects)

	groups := make(map[model.GridPoint][]int)
	var order []model.GridPoint
	for n, idx := range objects {
		for _, p := range b.objects[idx].Endpoints() {
			gp := p.Grid(b.precision)
			members, ok := groups[gp]
			if !ok {
				order = append(order, gp)
			}
			if len(members) > 0 && members[len(members)-1] == n {
				continue
			}
			groups[gp] = append(members, n)
		}
	}

	edges := make(map[[2]int]float64)
	for _, gp := range order {
		members := groups[gp]
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				u, v := members[i], members[j]
				if u > v {
					u, v = v, u
				}
				if _, ok := edges[[2]int{u, v}]; ok {
					continue
				}
				edges[[2]int{u, v}] = edgeWeight(b.objects[g.nodes[u]], b.objects[g.nodes[v]], false)
			}
		}
	}
	g.addEdges(edges)
	return g
}

// buildToleranceGraph tests every same-net pair with the connectivity
// detector.
func buildToleranceGraph(ctx context.Context, b *Board, det *ConnectivityDetector, objects []int) *netGraph {
	g := newNetGraph(objects)
	edges := make(map[[2]int]float64)
	for u := 0; u < len(objects); u++ {
		a := b.objects[objects[u]]
		for v := u + 1; v < len(objects); v++ {
			o := b.objects[objects[v]]
			if det.connected(ctx, a, o, b.shapes[objects[u]], b.shapes[objects[v]], det.Tolerance) {
				edges[[2]int{u, v}] = edgeWeight(a, o, true)
			}
		}
	}
	g.addEdges(edges)
	return g
}

// edgeWeight is the search weight (mm) of an edge between a and b. Track
// and arc lengths dominate; pad-to-copper edges are near zero so paths enter
// and leave runs through pads rather than mid-track. a is the lower arena
// index; when both sides are linear and average is false its length is
// used.
func edgeWeight(a, b model.Object, average bool) float64 {
	la, lb := a.Kind().Linear(), b.Kind().Linear()
	w := DefaultEdgeWeight
	switch {
	case la && lb && average:
		w = (a.Length() + b.Length()) / 2 * model.MilsToMM
	case la:
		w = a.Length() * model.MilsToMM
	case lb:
		w = b.Length() * model.MilsToMM
	}
	if la || lb {
		w = math.Max(w, PadTrackEdgeWeight)
	}
	if (a.Kind() == model.KindPad && lb) || (b.Kind() == model.KindPad && la) {
		w = PadTrackEdgeWeight
	}
	return w
}
