package cli

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/revu/pkg/application"
	"github.com/felixgeelhaar/revu/pkg/domain/review"
	"github.com/spf13/cobra"
)

var (
	runDeadline     time.Duration
	runTimeout      time.Duration
	runConcurrency  int
	runMinSuccesses int
	runLensFilter   []string
)

var runCmd = &cobra.Command{
	Use:   "run <artifact>",
	Short: "Dispatch all configured lenses against an artifact and synthesize a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		if services.Lenses == nil || len(services.Lenses.Lenses) == 0 {
			return NewCLIError("no lenses configured", "Run 'revu init' and edit .revu/lenses.yaml", nil)
		}

		lenses := services.Lenses.Lenses
		if len(runLensFilter) > 0 {
			lenses, err = filterLenses(lenses, runLensFilter)
			if err != nil {
				return err
			}
		}

		opts := services.Lenses.Defaults.Options()
		if cmd.Flags().Changed("deadline") {
			opts.GlobalDeadline = runDeadline
		}
		if cmd.Flags().Changed("timeout") {
			opts.PerTaskTimeout = runTimeout
		}
		if cmd.Flags().Changed("concurrency") {
			opts.MaxConcurrency = runConcurrency
		}
		if cmd.Flags().Changed("min-successes") {
			opts.MinRequiredSuccesses = runMinSuccesses
		}

		fmt.Printf("Dispatching %d lenses against %s...\n", len(lenses), args[0])

		report, err := services.Run.Execute(cmd.Context(), application.ExecuteRequest{
			ArtifactRef: args[0],
			Lenses:      lenses,
			Categories:  services.Lenses.Categories,
			Policy:      services.Lenses.Policy,
			Options:     opts,
		})
		if err != nil {
			return MapError(err)
		}

		printReport(report)
		return nil
	},
}

func filterLenses(lenses []review.LensConfig, ids []string) ([]review.LensConfig, error) {
	byID := make(map[string]review.LensConfig, len(lenses))
	for _, l := range lenses {
		byID[l.ID] = l
	}
	out := make([]review.LensConfig, 0, len(ids))
	for _, id := range ids {
		l, ok := byID[id]
		if !ok {
			return nil, NewCLIError(
				fmt.Sprintf("lens %q is not configured", id),
				"Check the lens ids in .revu/lenses.yaml", nil)
		}
		out = append(out, l)
	}
	return out, nil
}

func init() {
	runCmd.Flags().DurationVar(&runDeadline, "deadline", 10*time.Minute, "global deadline for the whole run")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 2*time.Minute, "per-lens timeout")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 4, "maximum lenses running at once")
	runCmd.Flags().IntVar(&runMinSuccesses, "min-successes", 1, "minimum lenses that must succeed")
	runCmd.Flags().StringSliceVar(&runLensFilter, "lens", nil, "run only the named lenses")
	RootCmd.AddCommand(runCmd)
}
