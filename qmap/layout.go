package qmap

import (
	"fmt"
	"math"
)

// Layout names an architecture family sized by qubit count.
type Layout string

const (
	// LayoutCompact packs data qubits into two rows around a central routing bus.
	LayoutCompact Layout = "compact_layout"
	// LayoutSquareSparse spreads data qubits over a square grid with a routing
	// lane between every pair of neighbours.
	LayoutSquareSparse Layout = "square_sparse_layout"
)

// validLayouts maps accepted layout names.
var validLayouts = map[Layout]bool{
	LayoutCompact:      true,
	LayoutSquareSparse: true,
}

// ParseLayout returns the Layout named by s.
func ParseLayout(s string) (Layout, error) {
	l := Layout(s)
	if !validLayouts[l] {
		return "", fmt.Errorf("unknown layout %q; valid: %s, %s", s, LayoutCompact, LayoutSquareSparse)
	}
	return l, nil
}

// Build returns the architecture of this layout for n logical qubits.
func (l Layout) Build(n int) (Architecture, error) {
	switch l {
	case LayoutCompact:
		return CompactLayout(n)
	case LayoutSquareSparse:
		return SquareSparseLayout(n)
	default:
		return Architecture{}, fmt.Errorf("unknown layout %q", string(l))
	}
}

// CompactLayout places n data qubits in two rows (rows 1 and 3) at odd
// columns, leaving row 2 as a shared bus. Sites are listed column by column.
// Magic states occupy the odd border positions on all four sides.
func CompactLayout(n int) (Architecture, error) {
	if n <= 0 {
		return Architecture{}, fmt.Errorf("compact layout needs at least one qubit, got %d", n)
	}
	cols := (n + 1) / 2
	a := Architecture{Height: 5, Width: 2*cols + 1}
	for c := 0; c < cols; c++ {
		for _, row := range []int{1, 3} {
			if len(a.AlgQubits) == n {
				break
			}
			a.AlgQubits = append(a.AlgQubits, a.Site(2*c+1, row))
		}
	}
	a.MagicStates = borderMagicStates(a)
	return a, a.Validate()
}

// SquareSparseLayout places n data qubits on a k x k lattice (k = ceil(sqrt(n)))
// with one free lane between neighbours and a two-cell margin. Sites are
// listed row by row.
func SquareSparseLayout(n int) (Architecture, error) {
	if n <= 0 {
		return Architecture{}, fmt.Errorf("square sparse layout needs at least one qubit, got %d", n)
	}
	k := int(math.Ceil(math.Sqrt(float64(n))))
	side := 2*k + 3
	a := Architecture{Height: side, Width: side}
	for j := 0; j < k && len(a.AlgQubits) < n; j++ {
		for i := 0; i < k && len(a.AlgQubits) < n; i++ {
			a.AlgQubits = append(a.AlgQubits, a.Site(2+2*i, 2+2*j))
		}
	}
	a.MagicStates = borderMagicStates(a)
	return a, a.Validate()
}

// borderMagicStates returns the odd positions of every border, corners
// excluded, walking top (left to right), right (top to bottom), bottom
// (right to left) and left (top to bottom).
func borderMagicStates(a Architecture) []int {
	var sites []int
	for x := 1; x < a.Width-1; x += 2 {
		sites = append(sites, a.Site(x, 0))
	}
	for y := 1; y < a.Height-1; y += 2 {
		sites = append(sites, a.Site(a.Width-1, y))
	}
	lastOdd := a.Width - 2
	if lastOdd%2 == 0 {
		lastOdd--
	}
	for x := lastOdd; x >= 1; x -= 2 {
		sites = append(sites, a.Site(x, a.Height-1))
	}
	for y := 1; y < a.Height-1; y += 2 {
		sites = append(sites, a.Site(0, y))
	}
	return sites
}
