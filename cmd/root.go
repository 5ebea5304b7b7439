package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/simmap/simmap/qmap"
	"github.com/simmap/simmap/qmap/anneal"
	"github.com/simmap/simmap/qmap/optimize"
	"github.com/simmap/simmap/qmap/qasm"
)

var (
	logLevel     string // Log verbosity level
	defaultsPath string // Path to defaults.yaml
	seed         int64  // Master seed for every random choice of a run
	layoutName   string // Architecture family for .qasm circuits
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "simmap",
	Short: "Similarity-driven qubit mapping and routing for lattice-surgery architectures",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&defaultsPath, "defaults", "defaults.yaml", "Path to the defaults YAML file")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 42, "Seed for every random choice of the run")
	rootCmd.PersistentFlags().StringVar(&layoutName, "layout", "", "Architecture layout for .qasm circuits (compact_layout, square_sparse_layout); overrides defaults")
}

// loadSettings reads the defaults file and applies root flag overrides.
func loadSettings(cmd *cobra.Command) Config {
	cfg := loadDefaultsConfig(defaultsPath)
	if cmd.Flags().Changed("layout") {
		cfg.Layout = layoutName
	}
	if cfg.Layout == "" {
		cfg.Layout = string(qmap.LayoutCompact)
	}
	if _, err := qmap.ParseLayout(cfg.Layout); err != nil {
		logrus.Fatalf("%v", err)
	}
	return cfg
}

// newOrchestrator wires the annealing searches to an orchestrator. Each search
// draws from its own subsystem of rng. metrics may be nil.
func newOrchestrator(cfg optimize.Config, rng *qmap.PartitionedRNG, metrics *optimize.Metrics) *optimize.Orchestrator {
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid optimize configuration: %v", err)
	}
	var opts []optimize.Option
	if metrics != nil {
		opts = append(opts, optimize.WithMetrics(metrics))
	}
	return optimize.New(
		anneal.NewPlacer(rng.ForSubsystem(qmap.SubsystemPlacement)),
		anneal.NewRouter(rng.ForSubsystem(qmap.SubsystemRouting)),
		cfg,
		opts...,
	)
}

// loadCircuit reads a circuit from an OpenQASM file (built onto layout) or a
// JSON circuit document.
func loadCircuit(path string, layout string) (qmap.Circuit, error) {
	if strings.EqualFold(filepath.Ext(path), ".qasm") {
		return qasm.LoadCircuit(path, qmap.Layout(layout))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return qmap.Circuit{}, err
	}
	return qmap.ParseCircuit(data)
}

// loadMapping reads a JSON mapping document.
func loadMapping(path string) (*qmap.Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return qmap.ParseMapping(data)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
