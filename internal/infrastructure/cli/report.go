package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/revu/pkg/domain/review"
	"github.com/spf13/cobra"
)

var reportJSON bool

var reportCmd = &cobra.Command{
	Use:   "report <run-id>",
	Short: "Show the synthesized report for a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		report, err := services.Run.GetReport(args[0])
		if err != nil {
			return MapError(err)
		}

		if reportJSON {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		printReport(report)
		return nil
	},
}

func printReport(report *review.SynthesisReport) {
	fmt.Printf("\nRun %s — %s (%s)\n", report.RunID, report.Artifact.Ref, shortHash(report.Artifact.ContentHash))
	fmt.Printf("Generated %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	if report.Summary.RequiresImmediateAttention {
		fmt.Printf("!! %d critical cluster(s) require immediate attention\n\n", report.Summary.CriticalCount)
	}

	if len(report.Clusters) == 0 {
		fmt.Println("No findings.")
	}
	for i, c := range report.Clusters {
		fmt.Printf("%d. [%s/%s] %s  (%s)\n", i+1, strings.ToUpper(c.ResolvedSeverity.String()), c.ConfidenceTier, clusterTitle(report, c), c.ID)
		for _, id := range c.MemberIDs {
			f, ok := report.FindingByID(id)
			if !ok {
				continue
			}
			fmt.Printf("     - %s reports %s at %s\n", f.TaskID, f.Severity, formatLocator(f.Locator))
		}
		for _, d := range c.DissentNotes {
			fmt.Printf("     dissent: %s rated it %s: %s\n", d.TaskID, d.Severity, d.Note)
		}
	}

	if len(report.FailedTasks) > 0 {
		fmt.Printf("\nLenses that did not contribute:\n")
		for _, ft := range report.FailedTasks {
			fmt.Printf("  - %s (%s): %s\n", ft.LensID, ft.Status, ft.Error)
		}
	}
	if len(report.UnparseableOutputs) > 0 {
		fmt.Printf("\nQuarantined entries: %d (see 'revu status %s' for details)\n", len(report.UnparseableOutputs), report.RunID)
	}

	fmt.Printf("\n%d clusters from %d succeeded lenses (%d failed)\n",
		report.Summary.TotalClusters, report.Summary.SucceededTasks, report.Summary.FailedTasks)
}

func clusterTitle(report *review.SynthesisReport, c review.FindingCluster) string {
	if f, ok := report.FindingByID(c.MemberIDs[0]); ok {
		return f.Description
	}
	return "(no description)"
}

func formatLocator(loc review.Locator) string {
	out := loc.Path
	if loc.Section != "" {
		out += "#" + loc.Section
	}
	if loc.StartLine > 0 {
		out += fmt.Sprintf(":%d", loc.StartLine)
		if loc.EndLine > loc.StartLine {
			out += fmt.Sprintf("-%d", loc.EndLine)
		}
	}
	return out
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "output the raw report as JSON")
	RootCmd.AddCommand(reportCmd)
}
