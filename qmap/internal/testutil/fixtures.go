// Package testutil provides shared architectures and mappings for tests of
// the qmap sub-packages.
package testutil

import (
	"testing"

	"github.com/simmap/simmap/qmap"
)

// C4 returns CompactLayout(4): 5x5, alg [6, 16, 8, 18].
func C4(t testing.TB) qmap.Architecture {
	t.Helper()
	a, err := qmap.CompactLayout(4)
	if err != nil {
		t.Fatalf("CompactLayout(4): %v", err)
	}
	return a
}

// S9 returns SquareSparseLayout(9): 9x9, alg [20, 22, 24, 38, 40, 42, 56, 58, 60].
func S9(t testing.TB) qmap.Architecture {
	t.Helper()
	a, err := qmap.SquareSparseLayout(9)
	if err != nil {
		t.Fatalf("SquareSparseLayout(9): %v", err)
	}
	return a
}

// Circuit builds a validated circuit or fails the test.
func Circuit(t testing.TB, arch qmap.Architecture, gates [][]int) qmap.Circuit {
	t.Helper()
	c, err := qmap.NewCircuit(arch, gates)
	if err != nil {
		t.Fatalf("NewCircuit: %v", err)
	}
	return c
}

// Mapping builds a validated mapping or fails the test.
func Mapping(t testing.TB, m map[string]int, arch qmap.Architecture, gates [][]int) *qmap.Mapping {
	t.Helper()
	mp, err := qmap.NewMapping(m, arch, gates)
	if err != nil {
		t.Fatalf("NewMapping: %v", err)
	}
	return mp
}

// C4Donor is the four-qubit reference mapping {"0":6,"1":16,"2":8,"3":18}
// over gates [[0,1],[2,3]].
func C4Donor(t testing.TB) *qmap.Mapping {
	t.Helper()
	return Mapping(t, map[string]int{"0": 6, "1": 16, "2": 8, "3": 18}, C4(t), [][]int{{0, 1}, {2, 3}})
}
