package qmap

import (
	"math/rand"
	"testing"
)

// archC4 is CompactLayout(4):
// 5x5, alg [6, 16, 8, 18], magic [1, 3, 9, 19, 23, 21, 5, 15].
func archC4(t *testing.T) Architecture {
	t.Helper()
	a, err := CompactLayout(4)
	if err != nil {
		t.Fatalf("CompactLayout(4): %v", err)
	}
	return a
}

// archS9 is SquareSparseLayout(9):
// 9x9, alg [20, 22, 24, 38, 40, 42, 56, 58, 60],
// magic [1, 3, 5, 7, 17, 35, 53, 71, 79, 77, 75, 73, 9, 27, 45, 63].
func archS9(t *testing.T) Architecture {
	t.Helper()
	a, err := SquareSparseLayout(9)
	if err != nil {
		t.Fatalf("SquareSparseLayout(9): %v", err)
	}
	return a
}

func mustCircuit(t *testing.T, arch Architecture, gates [][]int) Circuit {
	t.Helper()
	c, err := NewCircuit(arch, gates)
	if err != nil {
		t.Fatalf("NewCircuit: %v", err)
	}
	return c
}

func mustMapping(t *testing.T, m map[string]int, arch Architecture, gates [][]int) *Mapping {
	t.Helper()
	mp, err := NewMapping(m, arch, gates)
	if err != nil {
		t.Fatalf("NewMapping: %v", err)
	}
	return mp
}

func mustMapper(t *testing.T, c Circuit, donor *Mapping, seed int64) *SimilarityMapper {
	t.Helper()
	s, err := NewSimilarityMapper(c, donor, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewSimilarityMapper: %v", err)
	}
	return s
}
