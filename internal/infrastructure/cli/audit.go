package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit and verify workspace history",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the workspace audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		fmt.Println("Verifying audit trail integrity...")
		violations, err := services.Audit.VerifyIntegrity()
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}

		if len(violations) == 0 {
			fmt.Println("Audit trail is intact and verified.")
			return nil
		}

		fmt.Printf("Found %d integrity violations:\n", len(violations))
		for _, v := range violations {
			fmt.Printf("  - %s\n", v)
		}
		os.Exit(1)
		return nil
	},
}

var auditTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Print the workspace event timeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		events, err := services.Audit.GetTimeline()
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No events recorded yet.")
			return nil
		}
		for _, e := range events {
			fmt.Printf("%s  %-18s %-8s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.Actor)
			if runID, ok := e.Metadata["run_id"]; ok {
				fmt.Printf("  %v", runID)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTimelineCmd)
	RootCmd.AddCommand(auditCmd)
}
