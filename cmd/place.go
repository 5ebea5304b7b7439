package cmd

import (
	"encoding/json"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/simmap/simmap/qmap"
)

var (
	placeCircuitPath string        // Circuit to place (.json or .qasm)
	placeSeedPath    string        // Optional mapping to start the search from
	placeTimeout     time.Duration // Placement deadline; defaults.yaml when unset
	placeOutPath     string        // Where to write the mapping JSON
)

var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Search for a mapping of a circuit's qubits onto its architecture",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadSettings(cmd)
		if placeCircuitPath == "" {
			logrus.Fatalf("--circuit is required")
		}
		circuit, err := loadCircuit(placeCircuitPath, cfg.Layout)
		if err != nil {
			logrus.Fatalf("Failed to load circuit: %v", err)
		}
		var seedMapping *qmap.Mapping
		if placeSeedPath != "" {
			if seedMapping, err = loadMapping(placeSeedPath); err != nil {
				logrus.Fatalf("Failed to load seed mapping: %v", err)
			}
		}
		timeout := cfg.Optimize.Placement.Timeout
		if cmd.Flags().Changed("timeout") {
			timeout = placeTimeout
		}

		ctx, stop := signalContext()
		defer stop()
		orch := newOrchestrator(cfg.Optimize, qmap.NewPartitionedRNG(qmap.NewRunKey(seed)), nil)
		mapping, err := orch.Place(ctx, circuit, timeout, seedMapping)
		if err != nil {
			logrus.Fatalf("Placement failed: %v", err)
		}
		logrus.Infof("Placed %d qubits (depth %d)", len(mapping.Map), circuit.Depth())
		if err := writeJSON(placeOutPath, mapping); err != nil {
			logrus.Fatalf("Failed to write mapping: %v", err)
		}
	},
}

// writeJSON writes v as indented JSON to path, or to stdout when path is empty.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func init() {
	placeCmd.Flags().StringVar(&placeCircuitPath, "circuit", "", "Circuit file (.json circuit document or .qasm)")
	placeCmd.Flags().StringVar(&placeSeedPath, "seed-mapping", "", "Mapping JSON to start the search from")
	placeCmd.Flags().DurationVar(&placeTimeout, "timeout", 10*time.Second, "Placement deadline (overrides defaults)")
	placeCmd.Flags().StringVar(&placeOutPath, "out", "", "Output path for the mapping JSON (default stdout)")
	rootCmd.AddCommand(placeCmd)
}
