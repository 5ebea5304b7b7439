package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/simmap/simmap/qmap"
	"github.com/simmap/simmap/qmap/embedding"
	"github.com/simmap/simmap/qmap/store"
	"github.com/simmap/simmap/qmap/trace"
)

var (
	transferCircuitPath string // Target circuit (.json or .qasm)
	transferDonorPath   string // Donor mapping JSON; when empty the donor store is queried
	transferDSN         string // Donor database URL (overrides defaults)
	transferK           int    // Donors retrieved from the store; the nearest is transferred
	transferShowTrace   bool   // Print the per-qubit transfer decisions
	transferOutPath     string // Where to write the mapping JSON
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer a donor mapping onto a new circuit",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadSettings(cmd)
		if transferCircuitPath == "" {
			logrus.Fatalf("--circuit is required")
		}
		circuit, err := loadCircuit(transferCircuitPath, cfg.Layout)
		if err != nil {
			logrus.Fatalf("Failed to load circuit: %v", err)
		}
		if cmd.Flags().Changed("db") {
			cfg.Store.DSN = transferDSN
		}

		ctx, stop := signalContext()
		defer stop()

		var donor *qmap.Mapping
		if transferDonorPath != "" {
			if donor, err = loadMapping(transferDonorPath); err != nil {
				logrus.Fatalf("Failed to load donor mapping: %v", err)
			}
		} else {
			if donor, err = retrieveDonor(ctx, cfg, circuit, transferK); err != nil {
				logrus.Fatalf("Failed to retrieve donor: %v", err)
			}
		}

		rng := qmap.NewPartitionedRNG(qmap.NewRunKey(seed))
		mapper, err := qmap.NewSimilarityMapper(circuit, donor, rng.ForSubsystem(qmap.SubsystemTransfer))
		if err != nil {
			logrus.Fatalf("Cannot transfer donor: %v", err)
		}
		var tr *trace.TransferTrace
		if transferShowTrace {
			tr = trace.NewTransferTrace()
			mapper.WithTrace(tr)
		}
		mapping := mapper.BestEffortTransfer()
		if tr != nil {
			printTransferTrace(tr)
		}
		if err := writeJSON(transferOutPath, mapping); err != nil {
			logrus.Fatalf("Failed to write mapping: %v", err)
		}
	},
}

// retrieveDonor embeds circuit and returns the mapping of the nearest stored
// donor.
func retrieveDonor(ctx context.Context, cfg Config, circuit qmap.Circuit, k int) (*qmap.Mapping, error) {
	text, err := embedding.Text(circuit)
	if err != nil {
		return nil, err
	}
	vec, err := newEmbedClientFromConfig(cfg.Embedding).Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding circuit: %w", err)
	}
	pool, err := store.Connect(ctx, cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	defer pool.Close()
	donors, err := store.New(pool, cfg.Store.Table).Nearest(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	if len(donors) == 0 {
		return nil, fmt.Errorf("no donors in table %q", cfg.Store.Table)
	}
	for i, d := range donors {
		logrus.Debugf("donor %d: %d qubits, distance %.4f", i, len(d.Mapping.Map), d.Distance)
	}
	return donors[0].Mapping, nil
}

// printTransferTrace prints the per-qubit decisions and their summary.
func printTransferTrace(tr *trace.TransferTrace) {
	fmt.Println("=== Transfer Trace ===")
	for _, r := range tr.Records {
		if r.Reason == trace.ReasonRandom {
			fmt.Printf("  qubit %s -> site %d (%s)\n", r.Qubit, r.Site, r.Reason)
			continue
		}
		fmt.Printf("  qubit %s -> site %d (%s from donor %s at %d, distance %d)\n",
			r.Qubit, r.Site, r.Reason, r.DonorQubit, r.DonorSite, r.Distance)
	}
	if len(tr.Dropped) > 0 {
		fmt.Printf("  dropped donor qubits: %v\n", tr.Dropped)
	}

	summary := trace.Summarize(tr)
	fmt.Printf("Assigned: %d\n", summary.Assigned)
	reasons := make([]string, 0, len(summary.ByReason))
	for r := range summary.ByReason {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Printf("  %s: %d\n", r, summary.ByReason[trace.Reason(r)])
	}
	fmt.Printf("Mean Distance: %.2f\n", summary.MeanDistance)
	fmt.Printf("Max Distance: %d\n", summary.MaxDistance)
}

func init() {
	transferCmd.Flags().StringVar(&transferCircuitPath, "circuit", "", "Target circuit file (.json circuit document or .qasm)")
	transferCmd.Flags().StringVar(&transferDonorPath, "donor", "", "Donor mapping JSON; when empty the nearest stored donor is used")
	transferCmd.Flags().StringVar(&transferDSN, "db", "", "Donor database URL (overrides defaults)")
	transferCmd.Flags().IntVar(&transferK, "k", 1, "Number of donors to retrieve from the store")
	transferCmd.Flags().BoolVar(&transferShowTrace, "trace", false, "Print the per-qubit transfer decisions")
	transferCmd.Flags().StringVar(&transferOutPath, "out", "", "Output path for the mapping JSON (default stdout)")
	rootCmd.AddCommand(transferCmd)
}
