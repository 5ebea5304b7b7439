package cmd

import (
	"math"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/simmap/simmap/qmap"
	"github.com/simmap/simmap/qmap/bench"
	"github.com/simmap/simmap/qmap/optimize"
	"github.com/simmap/simmap/qmap/store"
)

var (
	benchMode         string        // baseline or similarity
	benchMappings     int           // Placements (baseline) per circuit
	benchRoutings     int           // Routing attempts per mapping
	benchDonors       int           // Donors retrieved per circuit (similarity)
	benchRefine       bool          // Refine transferred mappings with a seeded placement
	benchPlaceTimeout time.Duration // Per-placement deadline
	benchRouteTimeout time.Duration // Per-routing deadline
	benchDSN          string        // Donor database URL (overrides defaults)
	benchHeaderOut    string        // Report header YAML path
	benchDataOut      string        // Report data CSV path
	benchMetricsAddr  string        // Address for the Prometheus endpoint; empty disables it
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark [circuit files...]",
	Short: "Benchmark placement and routing from scratch or from similar donors",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadSettings(cmd)
		mode := bench.Mode(benchMode)
		if mode != bench.ModeBaseline && mode != bench.ModeSimilarity {
			logrus.Fatalf("Unknown mode %q; valid: %s, %s", benchMode, bench.ModeBaseline, bench.ModeSimilarity)
		}
		bcfg := applyBenchFlags(cmd.Flags(), cfg.Bench)
		if err := bcfg.Validate(); err != nil {
			logrus.Fatalf("Invalid benchmark configuration: %v", err)
		}
		if cmd.Flags().Changed("db") {
			cfg.Store.DSN = benchDSN
		}

		ctx, stop := signalContext()
		defer stop()

		var metrics *optimize.Metrics
		if benchMetricsAddr != "" {
			reg := prometheus.NewRegistry()
			metrics = optimize.NewMetrics(reg, "simmap")
			srv, err := startMetricsServer(benchMetricsAddr, reg)
			if err != nil {
				logrus.Fatalf("Failed to start metrics server: %v", err)
			}
			defer func() { _ = srv.Shutdown() }()
		}

		rng := qmap.NewPartitionedRNG(qmap.NewRunKey(seed))
		orch := newOrchestrator(cfg.Optimize, rng, metrics)

		var runner *bench.Runner
		if mode == bench.ModeSimilarity {
			pool, err := store.Connect(ctx, cfg.Store.DSN)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			defer pool.Close()
			runner = bench.NewRunner(orch, newEmbedClientFromConfig(cfg.Embedding), store.New(pool, cfg.Store.Table), rng, bcfg)
		} else {
			runner = bench.NewRunner(orch, nil, nil, rng, bcfg)
		}

		results := make([]bench.Result, 0, len(args))
		for _, path := range args {
			circuit, err := loadCircuit(path, cfg.Layout)
			if err != nil {
				logrus.Fatalf("Failed to load circuit %s: %v", path, err)
			}
			res, err := runner.Run(ctx, mode, filepath.Base(path), circuit)
			if err != nil {
				logrus.Fatalf("Benchmark failed: %v", err)
			}
			logBenchResult(res)
			results = append(results, res)
		}

		header := bench.NewReportHeader(mode, cfg.Layout, seed, bcfg)
		if err := bench.ExportReport(&header, results, benchHeaderOut, benchDataOut); err != nil {
			logrus.Fatalf("Failed to export report: %v", err)
		}
		logrus.Infof("Report %s written to %s and %s", header.RunID, benchHeaderOut, benchDataOut)
	},
}

// applyBenchFlags overrides defaults.yaml bench values with explicitly set flags.
func applyBenchFlags(flags *pflag.FlagSet, cfg bench.Config) bench.Config {
	if flags.Changed("mappings") {
		cfg.Mappings = benchMappings
	}
	if flags.Changed("routings") {
		cfg.Routings = benchRoutings
	}
	if flags.Changed("donors") {
		cfg.Donors = benchDonors
	}
	if flags.Changed("refine") {
		cfg.Refine = benchRefine
	}
	if flags.Changed("place-timeout") {
		cfg.PlaceTimeout = benchPlaceTimeout
	}
	if flags.Changed("route-timeout") {
		cfg.RouteTimeout = benchRouteTimeout
	}
	return cfg
}

func logBenchResult(res bench.Result) {
	if math.IsNaN(res.AvgSteps) {
		logrus.Warnf("%s [%s]: %d mappings, every routing timed out", res.Circuit, res.Mode, res.Mappings)
		return
	}
	logrus.Infof("%s [%s]: %d qubits, %d gates, depth %d: avg %.2f steps (best %.2f), %d/%d routed",
		res.Circuit, res.Mode, res.Qubits, res.Gates, res.Depth, res.AvgSteps, res.BestAvgSteps,
		res.Routed, res.Routed+res.Timeouts)
}

func init() {
	benchmarkCmd.Flags().StringVar(&benchMode, "mode", string(bench.ModeBaseline), "Benchmark mode (baseline, similarity)")
	benchmarkCmd.Flags().IntVar(&benchMappings, "mappings", 5, "Placements per circuit in baseline mode (overrides defaults)")
	benchmarkCmd.Flags().IntVar(&benchRoutings, "routings", 5, "Routing attempts per mapping (overrides defaults)")
	benchmarkCmd.Flags().IntVar(&benchDonors, "donors", 5, "Donors retrieved per circuit in similarity mode (overrides defaults)")
	benchmarkCmd.Flags().BoolVar(&benchRefine, "refine", false, "Refine transferred mappings with a seeded placement (overrides defaults)")
	benchmarkCmd.Flags().DurationVar(&benchPlaceTimeout, "place-timeout", 10*time.Second, "Per-placement deadline (overrides defaults)")
	benchmarkCmd.Flags().DurationVar(&benchRouteTimeout, "route-timeout", 10*time.Second, "Per-routing deadline (overrides defaults)")
	benchmarkCmd.Flags().StringVar(&benchDSN, "db", "", "Donor database URL (overrides defaults)")
	benchmarkCmd.Flags().StringVar(&benchHeaderOut, "header-out", "bench_header.yaml", "Report header output path")
	benchmarkCmd.Flags().StringVar(&benchDataOut, "data-out", "bench_data.csv", "Report data output path")
	benchmarkCmd.Flags().StringVar(&benchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running (e.g. :9090)")
	rootCmd.AddCommand(benchmarkCmd)
}
