package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/marcoimbee/thesis-archive/relocate"
)

var (
	// CLI flags shared by every mode
	configPath     string // YAML config file
	logLevel       string // Log verbosity level
	directoryURL   string // Cluster state directory endpoint
	latencyBackend string // "redis" or "nats"
	latencyURL     string // Latency store endpoint
	latencyBucket  string // NATS KV bucket
	controllerKey  string // Destination token of node→controller samples
	traceLevel     string // Decision trace level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "relocator",
	Short: "Latency-aware relocation controller for edge function instances",
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration: defaults, then the YAML
// file, then any flag set on the command line.
func loadConfig(cmd *cobra.Command) (*relocate.Config, error) {
	cfg := relocate.DefaultConfig()
	if configPath != "" {
		loaded, err := relocate.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("log") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("directory-url") {
		cfg.Directory.URL = directoryURL
	}
	if flags.Changed("latency-backend") {
		cfg.Latency.Backend = latencyBackend
	}
	if flags.Changed("latency-url") {
		cfg.Latency.URL = latencyURL
	}
	if flags.Changed("latency-bucket") {
		cfg.Latency.Bucket = latencyBucket
	}
	if flags.Changed("controller-key") {
		cfg.Latency.ControllerKey = controllerKey
	}
	applyModeFlags(cmd, &cfg)
	return &cfg, nil
}

// setupLogging applies the configured level to the standard logger.
func setupLogging(cfg *relocate.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", cfg.LogLevel)
	}
	logrus.SetLevel(level)
}

// init sets up CLI flags and subcommands
func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to the YAML configuration file")
	pf.StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	pf.StringVar(&directoryURL, "directory-url", "redis://localhost:6379", "Cluster state directory endpoint")
	pf.StringVar(&latencyBackend, "latency-backend", relocate.BackendRedis, "Latency store backend (redis, nats)")
	pf.StringVar(&latencyURL, "latency-url", "redis://localhost:6379", "Latency store endpoint")
	pf.StringVar(&latencyBucket, "latency-bucket", "latency", "NATS KV bucket holding latency samples")
	pf.StringVar(&controllerKey, "controller-key", relocate.ControllerEndpoint, "Destination token of node-to-controller latency keys")
	pf.StringVar(&traceLevel, "trace", "none", "Decision trace level (none, decisions)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(bulkMoveCmd)
	rootCmd.AddCommand(configCmd)
}
