package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/routing-sim/routing-sim/sim"
	"github.com/routing-sim/routing-sim/sim/config"
	"github.com/routing-sim/routing-sim/sim/observe"
	"github.com/routing-sim/routing-sim/sim/trace"
)

var (
	// CLI flags for the run command
	scenarioPath     string   // YAML scenario file (optional)
	seed             int64    // Seed for the deterministic RNG
	algorithms       []string // Routing algorithms to run, in order
	ticks            int64    // Fixed-ticks termination override
	maxActivePackets int      // Backpressure cap on packets in flight
	loadLevel        float64  // Constant load-level schedule override
	logLevel         string   // Log verbosity level
	traceOut         string   // JSON-lines event trace output path
	metricsFile      string   // Prometheus text-format output path
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "routing-sim",
	Short: "Tick-driven simulator for adaptive packet routing policies",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// loadScenario reads the scenario file (if any) and applies flags the user set explicitly.
func loadScenario(cmd *cobra.Command) config.Scenario {
	sc := config.Default()
	if scenarioPath != "" {
		var err error
		sc, err = config.Load(scenarioPath)
		if err != nil {
			logrus.Fatalf("Failed to load scenario: %v", err)
		}
	}
	applyOverrides(cmd, &sc)
	return sc
}

// applyOverrides copies explicitly set flags onto sc. Unset flags leave the
// scenario file's values alone.
func applyOverrides(cmd *cobra.Command, sc *config.Scenario) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		sc.Seed = seed
	}
	if flags.Changed("algorithms") {
		sc.Algorithms = algorithms
	}
	if flags.Changed("ticks") {
		sc.Termination = config.TerminationSpec{Kind: "fixed-ticks", Ticks: ticks}
	}
	if flags.Changed("max-active-packets") {
		sc.MaxActivePackets = maxActivePackets
	}
	if flags.Changed("load") {
		sc.Traffic.Schedule = config.ScheduleSpec{Kind: "load-level", Level: loadLevel}
	}
}

// runCmd executes the simulation
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every configured routing algorithm over the scenario",
	Run: func(cmd *cobra.Command, args []string) {
		sc := loadScenario(cmd)

		recorder := trace.NewRecorder()
		sinks := sim.MultiSink{recorder}

		var traceFile *os.File
		var stream *trace.StreamWriter
		if traceOut != "" {
			f, err := os.Create(traceOut)
			if err != nil {
				logrus.Fatalf("Failed to create trace file: %v", err)
			}
			traceFile = f
			stream = trace.NewStreamWriter(f)
			sinks = append(sinks, stream)
		}

		registry := prometheus.NewRegistry()
		if metricsFile != "" {
			promSink, err := observe.NewPrometheusSink(registry)
			if err != nil {
				logrus.Fatalf("Failed to register metrics: %v", err)
			}
			sinks = append(sinks, promSink)
		}

		engineCfg, err := sc.Build(sinks)
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
		engine, err := sim.NewEngine(engineCfg)
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}

		logrus.Infof("Starting simulation: seed=%d algorithms=%v nodes=%d max-active-packets=%d",
			sc.Seed, sc.Algorithms, engineCfg.Network.Len(), sc.MaxActivePackets)
		startTime := time.Now()

		summaries, err := engine.Run()
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		if traceFile != nil {
			if err := stream.Err(); err != nil {
				logrus.Fatalf("Failed to write trace: %v", err)
			}
			if err := traceFile.Close(); err != nil {
				logrus.Fatalf("Failed to close trace file: %v", err)
			}
		}
		if metricsFile != "" {
			if err := prometheus.WriteToTextfile(metricsFile, registry); err != nil {
				logrus.Fatalf("Failed to write metrics: %v", err)
			}
		}

		printSummaries(os.Stdout, summaries, trace.Summarize(recorder.Events))
		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// printSummaries writes one line per algorithm run.
func printSummaries(w io.Writer, runs []sim.RunSummary, traced []*trace.AlgorithmSummary) {
	peaks := make(map[sim.Algorithm]int, len(traced))
	for _, t := range traced {
		peaks[t.Algorithm] = t.PeakInFlight
	}
	fmt.Fprintf(w, "%-22s %8s %9s %10s %10s %14s %10s %13s\n",
		"algorithm", "ticks", "injected", "delivered", "in-flight", "mean-delivery", "mean-hops", "peak-in-flight")
	for _, r := range runs {
		fmt.Fprintf(w, "%-22s %8d %9d %10d %10d %14.3f %10.3f %13d\n",
			r.Algorithm, r.Ticks, r.Injected, r.Delivered, r.InFlight, r.MeanDeliveryTime, r.MeanHops, peaks[r.Algorithm])
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&scenarioPath, "scenario", "", "Path to a YAML scenario file (defaults apply when omitted)")

	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the deterministic RNG")
	runCmd.Flags().StringSliceVar(&algorithms, "algorithms", nil,
		"Comma-separated routing algorithms to run in order ("+strings.Join(sim.ValidAlgorithmNames(), ", ")+")")
	runCmd.Flags().Int64Var(&ticks, "ticks", 1000, "Stop each run after this many ticks (replaces the scenario's termination policy)")
	runCmd.Flags().IntVar(&maxActivePackets, "max-active-packets", 1000, "Maximum packets in flight network-wide")
	runCmd.Flags().Float64Var(&loadLevel, "load", 1.0, "Constant load level in packets per tick (replaces the scenario's schedule)")
	runCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write every event as JSON lines to this file")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file after the run")

	rootCmd.AddCommand(runCmd)
}
