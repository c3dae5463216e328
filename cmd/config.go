package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd prints the effective configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML and validate it",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			logrus.Fatalf("Failed to load configuration: %v", err)
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			logrus.Fatalf("Failed to encode configuration: %v", err)
		}
		_ = enc.Close()
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
	},
}

func init() {
	addPolicyFlags(configCmd.Flags())
	addBulkFlags(configCmd.Flags())
	configCmd.Flags().Int64Var(&monitorMs, "monitor-interval", 2000, "Sleep between monitor cycles (ms)")
}
