package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/marcoimbee/thesis-archive/relocate"
)

// monitorCmd logs relocatable instances without moving anything
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Report relocatable instances every interval without migrating",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustConfig(cmd)
		ctx, stop := signalContext()
		defer stop()

		stores := mustOpenStores(ctx, cfg)
		defer stores.Close()

		metrics := mustOpenMetrics(cfg)
		defer metrics.Close()

		ctrl, err := newController(cfg, stores, metrics.Scope, relocate.ModeMonitor, nil)
		if err != nil {
			logrus.Fatalf("Failed to set up monitor: %v", err)
		}
		logrus.Infof("Monitoring cluster every %v", cfg.Intervals.Monitor())
		if err := ctrl.RunMonitor(ctx); err != nil {
			logrus.Fatalf("Monitor loop failed: %v", err)
		}
		metrics.printSummary()
	},
}

func init() {
	monitorCmd.Flags().Int64Var(&monitorMs, "monitor-interval", 2000, "Sleep between monitor cycles (ms)")
}
