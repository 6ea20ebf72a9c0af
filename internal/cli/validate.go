package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"marketdw/internal/dataset"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the period's datasets against the expected columns",
	Long: `Load the period directory and verify each recognized dataset carries
the columns the builders rely on. Exits non-zero when any check fails.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&period, "period", "",
		"period subdirectory of data-dir, e.g. 2025-01")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	bundle, err := dataset.Load(periodDir(), log)
	if err != nil {
		return err
	}

	issues := dataset.Validate(bundle)
	for _, issue := range issues {
		cmd.PrintErrln(issue)
	}
	if len(issues) > 0 {
		return fmt.Errorf("%d validation issue(s)", len(issues))
	}
	cmd.Printf("%d dataset(s) valid\n", len(bundle))
	return nil
}
