/*
Package pathfind computes shortest walking routes over an occupancy grid.

Two algorithm variants share one relaxation loop: AStar orders its open set
by path cost plus a Manhattan-distance heuristic, Dijkstra by path cost
alone. Movement is 4-connected with unit edge cost, so both variants return
routes of equal length for the same endpoints; only the exploration order
differs.

Every call allocates a fresh arena of search nodes keyed by coordinate, so no
cost state leaks between invocations. The open set is a binary heap that
breaks priority ties by insertion order, which keeps results deterministic
for a fixed grid and endpoints.
*/
package pathfind

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/robel-ketema/wayfinder-api/grid"
)

var (
	ErrNilGrid         = errors.New("pathfind: grid is nil")
	ErrOutOfBounds     = errors.New("pathfind: endpoint outside the grid")
	ErrInvalidEndpoint = errors.New("pathfind: endpoint is a wall cell")
	ErrNoPathFound     = errors.New("pathfind: no route between endpoints")
	ErrUnknownAlgo     = errors.New("pathfind: unknown algorithm name")
)

// neighborOffsets lists the 4-connected moves in a fixed order so exploration
// is reproducible. The order is north, east, south, west.
var neighborOffsets = [4]struct{ dx, dy int }{
	{0, -1},
	{1, 0},
	{0, 1},
	{-1, 0},
}

// Algorithm selects how the open set is ordered.
type Algorithm int

const (
	// AStar expands nodes by path cost plus the Manhattan heuristic.
	AStar Algorithm = iota
	// Dijkstra expands nodes by path cost alone.
	Dijkstra
)

// String returns the persisted name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case AStar:
		return "astar"
	case Dijkstra:
		return "dijkstra"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

// Toggle returns the other algorithm variant.
func (a Algorithm) Toggle() Algorithm {
	if a == AStar {
		return Dijkstra
	}
	return AStar
}

// ParseAlgorithm maps a persisted name back to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "astar":
		return AStar, nil
	case "dijkstra":
		return Dijkstra, nil
	default:
		return AStar, ErrUnknownAlgo
	}
}

// Path is an ordered route from start to end inclusive. Consecutive cells are
// always 4-adjacent. Callers treat a returned path as immutable.
type Path []grid.Cell

// IndexOf returns the position of the cell on the path, or -1 when the cell
// is not part of it.
func (p Path) IndexOf(c grid.Cell) int {
	for i, cell := range p {
		if cell == c {
			return i
		}
	}
	return -1
}

// End returns the destination cell. It panics on an empty path.
func (p Path) End() grid.Cell {
	return p[len(p)-1]
}

// searchNode is the per-invocation record for one explored coordinate.
// parent back-references live inside the same arena and are only read during
// path reconstruction.
type searchNode struct {
	cell   grid.Cell
	gCost  float64
	hCost  float64
	parent *searchNode
}

func (n *searchNode) fCost() float64 {
	return n.gCost + n.hCost
}

// Find computes the shortest route between start and end on the given grid.
// Wall endpoints are rejected up front with ErrInvalidEndpoint rather than
// reported as an unreachable pair.
func Find(g *grid.Grid, start, end grid.Cell, algo Algorithm) (Path, error) {
	if g == nil {
		return nil, ErrNilGrid
	}
	if !g.InBounds(start) || !g.InBounds(end) {
		return nil, ErrOutOfBounds
	}
	if g.IsWall(start) || g.IsWall(end) {
		return nil, ErrInvalidEndpoint
	}

	s := &search{
		grid:   g,
		end:    end,
		algo:   algo,
		arena:  make(map[grid.Cell]*searchNode),
		closed: make(map[grid.Cell]struct{}),
	}
	return s.run(start)
}

// search carries the state of a single Find invocation.
type search struct {
	grid   *grid.Grid
	end    grid.Cell
	algo   Algorithm
	arena  map[grid.Cell]*searchNode
	closed map[grid.Cell]struct{}
	open   openQueue
	seq    int
}

func (s *search) run(start grid.Cell) (Path, error) {
	heap.Init(&s.open)

	first := s.node(start)
	first.gCost = 0
	first.hCost = s.heuristic(start)
	s.push(first)

	for s.open.Len() > 0 {
		n := heap.Pop(&s.open).(*openItem).node
		if _, done := s.closed[n.cell]; done {
			// A cheaper duplicate was expanded earlier.
			continue
		}
		if n.cell == s.end {
			return reconstruct(n), nil
		}

		s.closed[n.cell] = struct{}{}
		s.relaxNeighbors(n)
	}

	return nil, ErrNoPathFound
}

// node returns the arena record for the cell, creating it with infinite cost
// on first sight.
func (s *search) node(c grid.Cell) *searchNode {
	if n, ok := s.arena[c]; ok {
		return n
	}
	n := &searchNode{cell: c, gCost: math.Inf(1)}
	s.arena[c] = n
	return n
}

// relaxNeighbors offers the expanded node's cost to each walkable neighbor.
// Only strict improvements are recorded, so the earliest parent wins among
// equal-cost predecessors.
func (s *search) relaxNeighbors(n *searchNode) {
	for _, d := range neighborOffsets {
		c := grid.Cell{X: n.cell.X + d.dx, Y: n.cell.Y + d.dy}
		if !s.grid.InBounds(c) || s.grid.IsWall(c) {
			continue
		}
		if _, done := s.closed[c]; done {
			continue
		}

		tentative := n.gCost + 1
		nb := s.node(c)
		if tentative >= nb.gCost {
			continue
		}

		nb.gCost = tentative
		nb.hCost = s.heuristic(c)
		nb.parent = n
		s.push(nb)
	}
}

func (s *search) heuristic(c grid.Cell) float64 {
	if s.algo == Dijkstra {
		return 0
	}
	return manhattan(c, s.end)
}

// push queues the node at its current priority. Improved nodes are re-pushed
// rather than repositioned; stale entries are skipped on pop via the closed
// set.
func (s *search) push(n *searchNode) {
	s.seq++
	heap.Push(&s.open, &openItem{node: n, priority: n.fCost(), seq: s.seq})
}

// reconstruct walks the parent chain from the goal back to the start and
// reverses it into start-to-end order.
func reconstruct(goal *searchNode) Path {
	var path Path
	for n := goal; n != nil; n = n.parent {
		path = append(path, n.cell)
	}
	slices.Reverse(path)
	return path
}

func manhattan(a, b grid.Cell) float64 {
	return math.Abs(float64(a.X-b.X)) + math.Abs(float64(a.Y-b.Y))
}

// openItem pairs a node with the priority and sequence number it was queued
// at. Re-pushing a node leaves the older, staler item behind in the heap.
type openItem struct {
	node     *searchNode
	priority float64
	seq      int
}

// openQueue is a binary min-heap of open items. Equal priorities pop in
// insertion order, so the first-queued node wins ties.
type openQueue []*openItem

func (q openQueue) Len() int { return len(q) }

func (q openQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q openQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *openQueue) Push(x any) {
	*q = append(*q, x.(*openItem))
}

func (q *openQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
