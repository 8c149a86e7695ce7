package core

import (
	"container/heap"
	"math"
)

// dijkstraItem is a frontier entry; ties on dist go to the lower node.
type dijkstraItem struct {
	node int
	dist float64
}

type dijkstraQueue []dijkstraItem

func (q dijkstraQueue) Len() int { return len(q) }
func (q dijkstraQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].node < q[j].node
}
func (q dijkstraQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *dijkstraQueue) Push(x any)   { *q = append(*q, x.(dijkstraItem)) }
func (q *dijkstraQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// shortestPath runs Dijkstra from src to dst over an adjacency list and
// returns the node sequence and its weight. Distances are only replaced on a
// strictly shorter candidate, so equal-weight alternatives keep the first
// predecessor found.
func shortestPath(adj [][]graphEdge, src, dst int) ([]int, float64, bool) {
	n := len(adj)
	if src < 0 || dst < 0 || src >= n || dst >= n {
		return nil, 0, false
	}
	if src == dst {
		return []int{src}, 0, true
	}

	dist := make([]float64, n)
	prev := make([]int, n)
	done := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[src] = 0

	q := &dijkstraQueue{{node: src}}
	for q.Len() > 0 {
		it := heap.Pop(q).(dijkstraItem)
		if done[it.node] {
			continue
		}
		done[it.node] = true
		if it.node == dst {
			break
		}
		for _, e := range adj[it.node] {
			if done[e.to] {
				continue
			}
			nd := it.dist + e.weight
			if nd < dist[e.to] {
				dist[e.to] = nd
				prev[e.to] = it.node
				heap.Push(q, dijkstraItem{node: e.to, dist: nd})
			}
		}
	}

	if !done[dst] {
		return nil, 0, false
	}
	var path []int
	for v := dst; v != -1; v = prev[v] {
		path = append(path, v)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, dist[dst], true
}
