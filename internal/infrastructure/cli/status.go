package cli

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/revu/internal/infrastructure/wiring"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "List runs, or show one run's tasks and quarantine",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		if len(args) == 0 {
			return listRuns(services)
		}
		return showRun(services, args[0])
	},
}

func listRuns(services *wiring.AppServices) error {
	runs, err := services.Run.ListRuns()
	if err != nil {
		return MapError(err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs yet. Start one with 'revu run <artifact>'.")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%-14s %-12s %s  %s\n", r.ID, r.State, r.CreatedAt.Format("2006-01-02 15:04"), r.Artifact.Ref)
	}
	return nil
}

func showRun(services *wiring.AppServices, runID string) error {
	run, err := services.Run.GetRun(runID)
	if err != nil {
		return MapError(err)
	}

	fmt.Printf("Run %s (%s)\n", run.ID, run.State)
	fmt.Printf("Artifact: %s (%s)\n", run.Artifact.Ref, shortHash(run.Artifact.ContentHash))
	fmt.Printf("Created:  %s\n", run.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if run.Error != "" {
		fmt.Printf("Error:    %s\n", run.Error)
	}

	tasks, err := services.Run.GetTasks(runID)
	if err != nil {
		return MapError(err)
	}
	if len(tasks) > 0 {
		fmt.Println("\nTasks:")
		for _, t := range tasks {
			line := fmt.Sprintf("  %-16s %-10s", t.LensID, t.Status)
			if !t.FinishedAt.IsZero() && !t.StartedAt.IsZero() {
				line += fmt.Sprintf(" %s", t.FinishedAt.Sub(t.StartedAt).Round(time.Millisecond))
			}
			if t.Error != "" {
				line += "  " + t.Error
			}
			fmt.Println(line)
		}
	}

	quarantined, err := services.Workspace.Repo.LoadQuarantine(runID)
	if err != nil {
		return MapError(err)
	}
	if len(quarantined) > 0 {
		fmt.Println("\nQuarantined entries:")
		for _, q := range quarantined {
			fmt.Printf("  %s: %s\n    raw: %s\n", q.LensID, q.Reason, q.Raw)
		}
	}

	items, err := services.Approval.ListActionItems(runID)
	if err != nil {
		return MapError(err)
	}
	if len(items) > 0 {
		fmt.Println("\nAction items:")
		for _, item := range items {
			fmt.Printf("  [%s] %-8s %s (%s)\n", item.Status, item.Severity, item.Title, item.ClusterID)
		}
	}
	return nil
}

func init() {
	RootCmd.AddCommand(statusCmd)
}
