package cli

import (
	"github.com/spf13/cobra"

	"marketdw/internal/dataset"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Profile the period's datasets",
	Long: `Load the period directory and print a per-column summary of each
recognized dataset: inferred type, null counts and a sample value. Useful
before a first load of a new export format.`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&period, "period", "",
		"period subdirectory of data-dir, e.g. 2025-01")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	bundle, err := dataset.Load(periodDir(), log)
	if err != nil {
		return err
	}

	for _, dp := range dataset.Profile(bundle) {
		cmd.Printf("%s (%d rows)\n", dp.Name, dp.Rows)
		for _, c := range dp.Columns {
			cmd.Printf("  %-35s %-7s nulls=%-6d sample=%s\n", c.Name, c.Type, c.Nulls, truncate(c.Sample, 40))
		}
		cmd.Println()
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
