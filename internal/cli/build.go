package cli

import (
	"github.com/spf13/cobra"

	"marketdw/internal/dataset"
	"marketdw/internal/starschema"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the star schema without persisting it",
	Long: `Load the period directory and run every dimension and fact builder,
then print per-table row counts. Nothing is written to the warehouse;
useful to preview what a run would load.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&period, "period", "",
		"period subdirectory of data-dir, e.g. 2025-01")
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	bundle, err := dataset.Load(periodDir(), log)
	if err != nil {
		return err
	}
	for _, issue := range dataset.Validate(bundle) {
		log.Warn().Str("issue", issue).Msg("dataset validation")
	}

	tables := starschema.New(log).BuildComplete(bundle)
	for _, name := range starschema.BuildOrder {
		cmd.Printf("%-30s %d rows\n", name, tables[name].Len())
	}
	return nil
}
