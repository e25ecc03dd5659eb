package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <run-id>",
	Short: "Rebuild a run's report from its persisted task records",
	Long: `Rebuild a run's report from its persisted task records.

No lens is re-executed. Normalization, clustering, and synthesis run
again over the stored raw outputs with the run's original policy, so the
replayed report is identical to the original.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		report, err := services.Run.Resynthesize(args[0])
		if err != nil {
			return MapError(err)
		}

		fmt.Printf("Replayed synthesis for %s.\n", args[0])
		printReport(report)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(replayCmd)
}
