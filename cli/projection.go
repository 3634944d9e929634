package cli

import (
	"fmt"

	"github.com/gear6io/oraport/pipeline/source"
	"github.com/spf13/cobra"
)

var projectionCmd = &cobra.Command{
	Use:   "projection <table>",
	Short: "Print the SELECT statement a table would be exported with",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjection,
}

func init() {
	rootCmd.AddCommand(projectionCmd)
}

func runProjection(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	table := tableArg(args)

	exp, connector, err := newExporter(app.cfg, nil, app.logger)
	if err != nil {
		return err
	}
	db, err := connector.Connect(ctx)
	if err != nil {
		return err
	}
	defer source.Release(db, app.logger)

	spec, err := exp.Plan(ctx, db, table)
	if err != nil {
		return err
	}

	rows := make([][]string, len(spec.Columns))
	for i, col := range spec.Columns {
		rows[i] = []string{col.Source, col.Name, col.Rule.String()}
	}
	if err := renderTable(cmd.OutOrStdout(), []string{"Source column", "Output column", "Rule"}, rows); err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), spec.SQL())
	return err
}
