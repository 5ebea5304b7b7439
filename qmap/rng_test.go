package qmap

import (
	"math"
	"math/rand"
	"testing"
)

func TestRunKey_Creation(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"positive seed", 42},
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewRunKey(tt.seed)
			if int64(key) != tt.seed {
				t.Errorf("NewRunKey(%d) = %d, want %d", tt.seed, key, tt.seed)
			}
		})
	}
}

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	// GIVEN two RNGs built from the same key
	rng1 := NewPartitionedRNG(NewRunKey(42))
	rng2 := NewPartitionedRNG(NewRunKey(42))

	// THEN the transfer subsystem yields the same sequence in both
	for i := 0; i < 5; i++ {
		a := rng1.ForSubsystem(SubsystemTransfer).Intn(1000)
		b := rng2.ForSubsystem(SubsystemTransfer).Intn(1000)
		if a != b {
			t.Errorf("draw %d: got %d and %d, want identical", i, a, b)
		}
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// GIVEN draws from the placement subsystem
	rngA := NewPartitionedRNG(NewRunKey(7))
	for i := 0; i < 10; i++ {
		rngA.ForSubsystem(SubsystemPlacement).Float64()
	}

	// WHEN the transfer subsystem is used afterwards
	got := rngA.ForSubsystem(SubsystemTransfer).Float64()

	// THEN it starts at its own first value
	want := NewPartitionedRNG(NewRunKey(7)).ForSubsystem(SubsystemTransfer).Float64()
	if got != want {
		t.Errorf("transfer first value = %v, want %v (isolation broken)", got, want)
	}
}

func TestPartitionedRNG_GenerateUsesMasterSeed(t *testing.T) {
	seed := int64(42)
	gen := NewPartitionedRNG(NewRunKey(seed)).ForSubsystem(SubsystemGenerate)
	direct := rand.New(rand.NewSource(seed))

	for i := 0; i < 10; i++ {
		if g, d := gen.Int63(), direct.Int63(); g != d {
			t.Errorf("value %d: generate RNG = %d, direct RNG = %d", i, g, d)
		}
	}
}

func TestPartitionedRNG_CachesInstance(t *testing.T) {
	rng := NewPartitionedRNG(NewRunKey(42))
	if rng.ForSubsystem(SubsystemRouting) != rng.ForSubsystem(SubsystemRouting) {
		t.Error("ForSubsystem returned different instances for the same name")
	}
	if rng.Key() != NewRunKey(42) {
		t.Errorf("Key() = %d, want 42", rng.Key())
	}
}

func TestPartitionedRNG_DifferentSubsystemsDiffer(t *testing.T) {
	rng := NewPartitionedRNG(NewRunKey(42))
	if rng.ForSubsystem(SubsystemPlacement).Int63() == rng.ForSubsystem(SubsystemRouting).Int63() {
		t.Error("placement and routing subsystems produced the same first value")
	}
}
