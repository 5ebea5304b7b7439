// Package anneal provides reference implementations of the placement and
// routing searches consumed by optimize.Orchestrator: a simulated-annealing
// placer and a criticality-ordered greedy path router.
package anneal

import (
	"github.com/simmap/simmap/qmap"
)

// neighbours returns the in-bounds 4-neighbours of s in the order up, left,
// right, down.
func neighbours(a qmap.Architecture, s int) []int {
	x, y := a.Coord(s)
	out := make([]int, 0, 4)
	for _, d := range [4][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}} {
		nx, ny := x+d[0], y+d[1]
		if a.InBounds(nx, ny) {
			out = append(out, a.Site(nx, ny))
		}
	}
	return out
}

func manhattan(a qmap.Architecture, s, t int) int {
	sx, sy := a.Coord(s)
	tx, ty := a.Coord(t)
	return abs(sx-tx) + abs(sy-ty)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// shortestPath runs a breadth-first search from start over cells for which
// passable reports true and stops at the first cell for which goal reports
// true. It returns the path from start to goal inclusive, or nil.
func shortestPath(a qmap.Architecture, start int, passable, goal func(int) bool) []int {
	prev := make(map[int]int, a.Size())
	prev[start] = -1
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range neighbours(a, cur) {
			if _, seen := prev[n]; seen {
				continue
			}
			if goal(n) {
				prev[n] = cur
				return walkBack(prev, n)
			}
			if !passable(n) {
				continue
			}
			prev[n] = cur
			queue = append(queue, n)
		}
	}
	return nil
}

func walkBack(prev map[int]int, end int) []int {
	var rev []int
	for s := end; s != -1; s = prev[s] {
		rev = append(rev, s)
	}
	path := make([]int, len(rev))
	for i, s := range rev {
		path[len(rev)-1-i] = s
	}
	return path
}
