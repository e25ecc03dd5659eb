package cli

import (
	"fmt"

	"github.com/felixgeelhaar/revu/internal/infrastructure/config"
	"github.com/felixgeelhaar/revu/internal/infrastructure/wiring"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a revu workspace in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getWorkspaceRoot()
		if err != nil {
			return err
		}
		workspace := wiring.NewWorkspace(root)

		if workspace.Repo.IsInitialized() {
			fmt.Println("Workspace already initialized.")
			return nil
		}
		if err := workspace.Repo.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize workspace: %w", err)
		}
		if err := config.SaveLensesConfig(root, config.DefaultLensesConfig()); err != nil {
			return fmt.Errorf("failed to write lens config: %w", err)
		}
		if err := workspace.Audit.Log("workspace.initialized", "human", nil); err != nil {
			return err
		}

		fmt.Println("Initialized revu workspace.")
		fmt.Println("Edit .revu/lenses.yaml to configure your analysis lenses.")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(initCmd)
}
