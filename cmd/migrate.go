package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/marcoimbee/thesis-archive/relocate"
)

var (
	// CLI flags for the relocation policy
	policyName       string  // closest, threshold or bulk
	latencyThreshold float64 // ms; threshold policy trigger
	numRelocations   int     // max instances moved by the threshold policy
	sourceNode       string  // threshold policy source
	destinationNode  string  // threshold policy destination
	relocationMs     int64   // migrate sleep between cycles
	monitorMs        int64   // monitor sleep between cycles

	// CLI flags for bulk-move
	bulkDestination string
	bulkExecutable  string
	bulkArgs        []string
	bulkTimeoutMs   int64
)

// migrateCmd runs the continuous relocation loop
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Continuously relocate instances according to the configured policy",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustConfig(cmd)
		ctx, stop := signalContext()
		defer stop()

		stores := mustOpenStores(ctx, cfg)
		defer stores.Close()

		metrics := mustOpenMetrics(cfg)
		defer metrics.Close()

		ctrl, err := newController(cfg, stores, metrics.Scope, relocate.ModeMigrate, nil)
		if err != nil {
			logrus.Fatalf("Invalid policy configuration: %v", err)
		}
		logrus.Infof("Starting relocation loop with policy=%s, interval=%v", cfg.Policy.Name, cfg.Intervals.Relocation())
		if err := ctrl.RunMigrate(ctx); err != nil {
			logrus.Fatalf("Relocation loop failed: %v", err)
		}
		printTraceSummary(ctrl.Trace)
		metrics.printSummary()
	},
}

// mustConfig loads and validates the configuration, exiting on error.
func mustConfig(cmd *cobra.Command) *relocate.Config {
	cfg, err := loadConfig(cmd)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// applyModeFlags copies mode-specific flags that were set on cmd into cfg.
func applyModeFlags(cmd *cobra.Command, cfg *relocate.Config) {
	flags := cmd.Flags()
	if flags.Changed("policy") {
		cfg.Policy.Name = policyName
	}
	if flags.Changed("latency-threshold") {
		cfg.Policy.LatencyThreshold = latencyThreshold
	}
	if flags.Changed("num-relocations") {
		cfg.Policy.NumRelocations = numRelocations
	}
	if flags.Changed("source-node") {
		cfg.Policy.SourceNode = sourceNode
	}
	if flags.Changed("destination-node") {
		cfg.Policy.DestinationNode = destinationNode
	}
	if flags.Changed("relocation-interval") {
		cfg.Intervals.RelocationMs = relocationMs
	}
	if flags.Changed("monitor-interval") {
		cfg.Intervals.MonitorMs = monitorMs
	}
	if flags.Changed("destination") {
		cfg.Bulk.DestinationNode = bulkDestination
	}
	if flags.Changed("executable") {
		cfg.Bulk.Executable = bulkExecutable
	}
	if flags.Changed("executable-arg") {
		cfg.Bulk.Args = bulkArgs
	}
	if flags.Changed("command-timeout") {
		cfg.Bulk.TimeoutMs = bulkTimeoutMs
	}
}

func addPolicyFlags(fs *pflag.FlagSet) {
	fs.StringVar(&policyName, "policy", relocate.PolicyClosest, "Relocation policy (closest, threshold)")
	fs.Float64Var(&latencyThreshold, "latency-threshold", 100.0, "Source-to-destination latency (ms) below which the threshold policy fires")
	fs.IntVar(&numRelocations, "num-relocations", 1, "Maximum instances moved by the threshold policy")
	fs.StringVar(&sourceNode, "source-node", "", "Threshold policy source node id")
	fs.StringVar(&destinationNode, "destination-node", "", "Threshold policy destination node id")
	fs.Int64Var(&relocationMs, "relocation-interval", 5000, "Sleep between relocation cycles (ms)")
}

func addBulkFlags(fs *pflag.FlagSet) {
	fs.StringVar(&bulkDestination, "destination", "", "Node that receives every instance")
	fs.StringVar(&bulkExecutable, "executable", "proxy_cli", "Per-instance migration executable")
	fs.StringSliceVar(&bulkArgs, "executable-arg", []string{"intent"}, "Arguments placed before 'migrate <instance> <node>'")
	fs.Int64Var(&bulkTimeoutMs, "command-timeout", 0, "Per-command timeout (ms, 0 = none)")
}

func init() {
	addPolicyFlags(migrateCmd.Flags())
}
