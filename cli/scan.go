package cli

import (
	"fmt"

	"github.com/gear6io/oraport/pipeline/source"
	"github.com/spf13/cobra"
)

var scanNumericCmd = &cobra.Command{
	Use:   "scan-numeric <table>",
	Short: "Count negative and NULL values in the numeric columns of a table",
	Long: `Count negative and NULL values in every numeric column of a table.

Columns with negative values are the ones the numeric-to-text coercion
guards against; use this to decide whether policy.coerce_numeric_to_text
is needed for a schema.`,
	Args: cobra.ExactArgs(1),
	RunE: runScanNumeric,
}

func init() {
	rootCmd.AddCommand(scanNumericCmd)
}

func runScanNumeric(cmd *cobra.Command, args []string) error {
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

	findings, err := exp.ScanNumeric(ctx, db, table)
	if err != nil {
		return err
	}

	rows := make([][]string, len(findings))
	for i, f := range findings {
		verdict := "ok"
		switch {
		case f.Err != nil:
			verdict = "error: " + f.Err.Error()
		case f.Suspicious():
			verdict = "check"
		}
		rows[i] = []string{f.Column, f.DataType, fmt.Sprintf("%d", f.Negative), fmt.Sprintf("%d", f.Null), verdict}
	}
	return renderTable(cmd.OutOrStdout(), []string{"Column", "Data type", "Negative", "Null", "Verdict"}, rows)
}
