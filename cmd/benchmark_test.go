package cmd

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simmap/simmap/qmap/bench"
)

func TestApplyBenchFlags_OnlyChangedFlagsOverride(t *testing.T) {
	// GIVEN file values and a flag set where only routings and route-timeout are set
	base := bench.Config{Mappings: 5, Routings: 5, Donors: 5, PlaceTimeout: 10 * time.Second, RouteTimeout: 10 * time.Second}
	flags := pflag.NewFlagSet("benchmark", pflag.ContinueOnError)
	flags.AddFlagSet(benchmarkCmd.Flags())
	require.NoError(t, flags.Parse([]string{"--routings=2", "--route-timeout=250ms"}))
	t.Cleanup(func() {
		benchRoutings = 5
		benchRouteTimeout = 10 * time.Second
		for _, name := range []string{"routings", "route-timeout"} {
			benchmarkCmd.Flags().Lookup(name).Changed = false
		}
	})

	// WHEN applying the flags
	got := applyBenchFlags(flags, base)

	// THEN only the changed values differ from the file
	want := base
	want.Routings = 2
	want.RouteTimeout = 250 * time.Millisecond
	assert.Equal(t, want, got)
}

func TestApplyBenchFlags_NoFlagsKeepsFile(t *testing.T) {
	// GIVEN an untouched flag set
	base := bench.Config{Mappings: 3, Routings: 1, Donors: 2, Refine: true, PlaceTimeout: time.Second, RouteTimeout: time.Second}
	flags := pflag.NewFlagSet("benchmark", pflag.ContinueOnError)
	flags.Int("mappings", 99, "")

	// WHEN applying it
	got := applyBenchFlags(flags, base)

	// THEN the file values survive even where flag defaults differ
	assert.Equal(t, base, got)
}
