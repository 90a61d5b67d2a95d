package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	sim "github.com/netsim-lab/uec-mp/sim"
	"github.com/netsim-lab/uec-mp/sim/multipath"
	"github.com/netsim-lab/uec-mp/sim/telemetry"
	"github.com/netsim-lab/uec-mp/sim/trace"
)

var (
	// CLI flags for the scenario
	configPath  string // YAML or TOML scenario bundle; flags below override it when set
	seed        int64  // Seed for every selector and the fabric
	horizon     int64  // Total simulation time (in ticks)
	logLevel    string // Log verbosity level
	policy      string // Path selection policy of every flow
	paths       int    // Number of equal-cost paths
	flows       int    // Number of flows
	packets     int    // Packets each flow must deliver
	cwnd        int    // Fixed window in packets
	trimming    bool   // Trim instead of drop at full queues
	useMql      bool   // REPS MQL strict-priority selection
	failedPaths []int  // Paths failed from time zero
	traceLevel  string // Decision trace level
	traceOut    string // Write the decision trace here as CBOR
	metricsAddr string // Serve Prometheus metrics on this address
	printStats  bool   // Print REPS MQL statistics for every flow
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "uec-mp",
	Short: "Discrete-event simulator for multipath entropy selection",
}

// runCmd executes the simulation using parameters from the bundle and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a multipath scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)

		bundle, err := buildBundle(cmd.Flags())
		if err != nil {
			return err
		}

		var collector *telemetry.Collector
		if metricsAddr != "" {
			collector = telemetry.NewCollector(telemetry.DefaultNamespace, nil)
			srv := startMetricsServer(metricsAddr, collector)
			defer shutdownMetricsServer(srv)
		}

		if err := runScenario(bundle, collector, cmd.OutOrStdout()); err != nil {
			return err
		}
		if metricsAddr != "" {
			waitForInterrupt(cmd.Context())
		}
		return nil
	},
}

// policiesCmd lists the accepted --policy values
var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List path selection policies",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range multipath.PolicyNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

// buildBundle loads --config (or the default scenario) and applies every flag
// the user set explicitly.
func buildBundle(flags *pflag.FlagSet) (*sim.ScenarioBundle, error) {
	bundle := sim.DefaultScenario()
	if configPath != "" {
		loaded, err := sim.LoadScenarioBundle(configPath)
		if err != nil {
			return nil, err
		}
		bundle = loaded
		logrus.Infof("Loaded scenario from %s", configPath)
	}

	if flags.Changed("seed") {
		bundle.Seed = seed
	}
	if flags.Changed("horizon") {
		bundle.Horizon = horizon
	}
	if flags.Changed("policy") {
		bundle.Multipath.Policy = policy
	}
	if flags.Changed("paths") {
		bundle.Multipath.Paths = paths
	}
	if flags.Changed("trimming") {
		bundle.Multipath.Trimming = &trimming
	}
	if flags.Changed("use-mql") {
		bundle.Multipath.UseMql = &useMql
	}
	if flags.Changed("flows") {
		bundle.Flows.Count = flows
	}
	if flags.Changed("packets") {
		bundle.Flows.Packets = packets
	}
	if flags.Changed("cwnd") {
		bundle.Flows.Cwnd = cwnd
	}
	if flags.Changed("trace") {
		bundle.Trace = traceLevel
	}
	if traceOut != "" {
		bundle.Trace = string(trace.TraceLevelDecisions)
	}
	for _, p := range failedPaths {
		bundle.Fabric.Failures = append(bundle.Fabric.Failures, sim.FailureConfig{Path: p})
	}

	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return bundle, nil
}

// runScenario simulates bundle and writes the report to out.
func runScenario(bundle *sim.ScenarioBundle, collector *telemetry.Collector, out io.Writer) error {
	logrus.Infof("Starting simulation: policy=%s paths=%d flows=%d packets=%d cwnd=%d seed=%d",
		bundle.Multipath.Policy, bundle.Multipath.Paths, bundle.Flows.Count, bundle.Flows.Packets, bundle.Flows.Cwnd, bundle.Seed)

	startTime := time.Now()
	s, err := sim.NewSimulator(bundle, collector)
	if err != nil {
		return err
	}
	s.Run()

	fmt.Fprintf(out, "Run ID               : %s\n", s.RunID)
	fmt.Fprintf(out, "Policy               : %s\n", s.Policy())
	s.Metrics.Print(out)
	if s.Trace != nil {
		printTraceSummary(out, trace.Summarize(s.Trace))
		if traceOut != "" {
			if err := writeTrace(traceOut, s.Trace); err != nil {
				return err
			}
			logrus.Infof("Wrote %d selections to %s", len(s.Trace.Selections), traceOut)
		}
	}
	if printStats {
		for i, r := range s.RepsSelectors() {
			fmt.Fprintf(out, "\n--- %s ---", sim.SubsystemFlow(i))
			r.PrintStats(out)
		}
	}

	logrus.Infof("Simulation complete in %s.", time.Since(startTime))
	return nil
}

func writeTrace(path string, st *trace.SimulationTrace) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing trace file: %w", cerr)
		}
	}()
	return trace.WriteCBOR(f, st)
}

func printTraceSummary(out io.Writer, summary *trace.TraceSummary) {
	fmt.Fprintln(out, "=== Trace Summary ===")
	fmt.Fprintf(out, "Selections traced    : %d\n", summary.TotalSelections)
	fmt.Fprintf(out, "Feedback traced      : %d\n", summary.TotalFeedback)
	fmt.Fprintf(out, "Unique paths         : %d\n", summary.UniquePaths)
	fmt.Fprintf(out, "Mean MQL             : %.2f\n", summary.MeanMql)
	for _, src := range []multipath.SelectionSource{
		multipath.SourceRecycle, multipath.SourceMql, multipath.SourceFrozen, multipath.SourceExplore, multipath.SourceRandom,
	} {
		if n := summary.SourceCounts[string(src)]; n > 0 {
			fmt.Fprintf(out, "  %-8s: %d\n", src, n)
		}
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
	defaults := sim.DefaultScenario()

	runCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML or TOML scenario bundle")
	runCmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "Seed for path selection and fabric jitter")
	runCmd.Flags().Int64Var(&horizon, "horizon", defaults.Horizon, "Total simulation horizon (in ticks)")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Path selection
	runCmd.Flags().StringVar(&policy, "policy", defaults.Multipath.Policy, "Path selection policy (see 'uec-mp policies')")
	runCmd.Flags().IntVar(&paths, "paths", defaults.Multipath.Paths, "Number of equal-cost paths")
	runCmd.Flags().BoolVar(&trimming, "trimming", true, "Trim packets at full queues instead of dropping them")
	runCmd.Flags().BoolVar(&useMql, "use-mql", false, "REPS: prefer entropies on paths with the lowest reported queue level")

	// Workload and fabric
	runCmd.Flags().IntVar(&flows, "flows", defaults.Flows.Count, "Number of flows")
	runCmd.Flags().IntVar(&packets, "packets", defaults.Flows.Packets, "Packets each flow delivers")
	runCmd.Flags().IntVar(&cwnd, "cwnd", defaults.Flows.Cwnd, "Congestion window in packets")
	runCmd.Flags().IntSliceVar(&failedPaths, "failed-paths", nil, "Comma-separated paths that are down from time zero")

	// Output
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")
	runCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write the decision trace to this file as CBOR (implies --trace decisions)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9102) until interrupted")
	runCmd.Flags().BoolVar(&printStats, "stats", false, "Print REPS MQL statistics for every flow")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(policiesCmd)
}
