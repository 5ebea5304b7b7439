package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/simmap/simmap/qmap"
)

var (
	routeMappingPath string        // Mapping to route
	routeTimeout     time.Duration // Routing deadline; defaults.yaml when unset
	routeOutPath     string        // Where to write the routing JSON
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Search for a step schedule realizing a mapping",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadSettings(cmd)
		if routeMappingPath == "" {
			logrus.Fatalf("--mapping is required")
		}
		mapping, err := loadMapping(routeMappingPath)
		if err != nil {
			logrus.Fatalf("Failed to load mapping: %v", err)
		}
		timeout := cfg.Optimize.Routing.Timeout
		if cmd.Flags().Changed("timeout") {
			timeout = routeTimeout
		}

		ctx, stop := signalContext()
		defer stop()
		orch := newOrchestrator(cfg.Optimize, qmap.NewPartitionedRNG(qmap.NewRunKey(seed)), nil)
		routing, err := orch.Route(ctx, mapping, timeout)
		if err != nil {
			logrus.Fatalf("Routing failed: %v", err)
		}
		if routing == nil {
			logrus.Warnf("Routing timed out after %v; no schedule written", timeout)
			return
		}
		logrus.Infof("Routed %d gates in %d steps", len(routing.Gates), routing.NumSteps())
		if err := writeJSON(routeOutPath, routing); err != nil {
			logrus.Fatalf("Failed to write routing: %v", err)
		}
	},
}

func init() {
	routeCmd.Flags().StringVar(&routeMappingPath, "mapping", "", "Mapping JSON to route")
	routeCmd.Flags().DurationVar(&routeTimeout, "timeout", 10*time.Second, "Routing deadline (overrides defaults)")
	routeCmd.Flags().StringVar(&routeOutPath, "out", "", "Output path for the routing JSON (default stdout)")
	rootCmd.AddCommand(routeCmd)
}
