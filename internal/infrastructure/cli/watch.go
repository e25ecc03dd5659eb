package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/revu/internal/infrastructure/watch"
	"github.com/felixgeelhaar/revu/pkg/application"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <artifact>",
	Short: "Re-run the lens roster whenever the artifact changes",
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

		artifact := args[0]
		execute := func() {
			report, err := services.Run.Execute(cmd.Context(), application.ExecuteRequest{
				ArtifactRef: artifact,
				Lenses:      services.Lenses.Lenses,
				Categories:  services.Lenses.Categories,
				Policy:      services.Lenses.Policy,
				Options:     services.Lenses.Defaults.Options(),
			})
			if err != nil {
				fmt.Printf("Run failed: %v\n", MapError(err))
				return
			}
			printReport(report)
		}

		watcher, err := watch.NewArtifactWatcher(artifact, watchDebounce, func(ev watch.ChangeEvent) {
			fmt.Printf("\nChange detected (%s) at %s\n", ev.Kind, time.Now().Format("15:04:05"))
			execute()
		})
		if err != nil {
			return err
		}

		fmt.Printf("Watching %s for changes...\n", artifact)
		if err := watcher.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet window before a change triggers a run")
	RootCmd.AddCommand(watchCmd)
}
