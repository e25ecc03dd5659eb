package cli

import (
	"fmt"

	"github.com/felixgeelhaar/revu/pkg/application"
	"github.com/spf13/cobra"
)

var (
	approveAll      bool
	approveCritical bool
	approveDone     bool
)

var approveCmd = &cobra.Command{
	Use:   "approve <run-id> [cluster-id...]",
	Short: "Convert report clusters into tracked action items",
	Long: `Convert report clusters into tracked action items.

Approval is idempotent: approving the same cluster twice returns the
existing item. The report itself is never modified.

Examples:
  revu approve run-1a2b3c4d --all
  revu approve run-1a2b3c4d --critical-only
  revu approve run-1a2b3c4d c-8f0e12ab34cd
  revu approve run-1a2b3c4d c-8f0e12ab34cd --done`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		runID := args[0]
		clusterIDs := args[1:]

		if approveDone {
			if len(clusterIDs) != 1 {
				return NewCLIError("--done requires exactly one cluster id", "", nil)
			}
			item, err := services.Approval.MarkDone(runID, clusterIDs[0])
			if err != nil {
				return MapError(err)
			}
			fmt.Printf("Marked done: %s (%s)\n", item.Title, item.ClusterID)
			return nil
		}

		items, err := services.Approval.Approve(runID, application.Selection{
			All:          approveAll,
			CriticalOnly: approveCritical,
			ClusterIDs:   clusterIDs,
		})
		if err != nil {
			return MapError(err)
		}

		fmt.Printf("Approved %d cluster(s):\n", len(items))
		for _, item := range items {
			fmt.Printf("  [%s] %-8s %s (%s)\n", item.Status, item.Severity, item.Title, item.ClusterID)
		}
		return nil
	},
}

func init() {
	approveCmd.Flags().BoolVar(&approveAll, "all", false, "approve every cluster in the report")
	approveCmd.Flags().BoolVar(&approveCritical, "critical-only", false, "approve only clusters that resolved critical")
	approveCmd.Flags().BoolVar(&approveDone, "done", false, "mark an approved cluster's action item done")
	RootCmd.AddCommand(approveCmd)
}
