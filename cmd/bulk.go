package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/marcoimbee/thesis-archive/relocate"
	"github.com/marcoimbee/thesis-archive/relocate/executor"
)

// bulkMoveCmd moves every instance to one node and exits
var bulkMoveCmd = &cobra.Command{
	Use:   "bulk-move",
	Short: "Move every instance, relocatable or not, to a single node",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustConfig(cmd)
		if cfg.Bulk.DestinationNode == "" {
			logrus.Fatalf("bulk-move requires --destination or bulk.destination_node")
		}
		if cfg.Bulk.Executable == "" {
			logrus.Fatalf("bulk-move requires --executable or bulk.executable")
		}
		ctx, stop := signalContext()
		defer stop()

		stores := mustOpenStores(ctx, cfg)
		defer stores.Close()

		metrics := mustOpenMetrics(cfg)
		defer metrics.Close()

		ctrl, err := newController(cfg, stores, metrics.Scope, relocate.ModeBulkMove, executor.NewCommand(cfg.Bulk))
		if err != nil {
			logrus.Fatalf("Failed to set up bulk-move: %v", err)
		}
		res, err := ctrl.RunBulk(ctx, relocate.NodeID(cfg.Bulk.DestinationNode))
		if err != nil {
			logrus.Fatalf("Bulk move aborted: %v", err)
		}
		metrics.printSummary()
		if !res.OK {
			logrus.Fatalf("Bulk move stopped after %d successful migrations: %v", res.Succeeded, res.Err)
		}
		logrus.Infof("Successfully moved %d functions to node %s.", res.Succeeded, cfg.Bulk.DestinationNode)
	},
}

func init() {
	addBulkFlags(bulkMoveCmd.Flags())
}
