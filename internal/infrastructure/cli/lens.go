package cli

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/revu/pkg/plugin/contract"
	"github.com/spf13/cobra"
)

var lensCmd = &cobra.Command{
	Use:   "lens",
	Short: "Inspect and verify analysis lenses",
}

var lensListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the lenses configured in this workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		if services.Lenses == nil || len(services.Lenses.Lenses) == 0 {
			fmt.Println("No lenses configured. Run 'revu init' to seed .revu/lenses.yaml.")
			return nil
		}
		for _, l := range services.Lenses.Lenses {
			backend := "plugin " + l.Plugin
			if len(l.Command) > 0 {
				backend = fmt.Sprintf("command %v", l.Command)
			}
			fmt.Printf("%-16s %-14s %s\n", l.ID, l.Category, backend)
		}
		return nil
	},
}

var lensVerifyCmd = &cobra.Command{
	Use:   "verify <plugin-binary>",
	Short: "Run the analyzer contract suite against a lens plugin binary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		suite := contract.NewContractSuite()

		fmt.Printf("Verifying %s against the analyzer contract...\n", args[0])
		result, err := suite.RunBinary(args[0])
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}

		for _, r := range result.Results {
			mark := "PASS"
			if !r.Passed {
				mark = "FAIL"
			}
			fmt.Printf("  [%s] %-24s %s\n", mark, r.Name, r.Message)
		}
		fmt.Printf("%d passed, %d failed\n", result.Passed, result.Failed)

		if result.Failed > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	lensCmd.AddCommand(lensListCmd)
	lensCmd.AddCommand(lensVerifyCmd)
	RootCmd.AddCommand(lensCmd)
}
