package cli

import (
	"github.com/gear6io/oraport/pipeline/catalog"
	"github.com/gear6io/oraport/pipeline/source"
	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables of the configured schema owner",
	Args:  cobra.NoArgs,
	RunE:  runTables,
}

type tablesOptions struct {
	columns bool
}

var tablesOpts = &tablesOptions{}

func init() {
	rootCmd.AddCommand(tablesCmd)

	tablesCmd.Flags().BoolVar(&tablesOpts.columns, "columns", false, "also list columns and their declared types")
}

func runTables(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	owner := app.cfg.Source.Owner

	connector, err := newConnector(app.cfg, app.logger)
	if err != nil {
		return err
	}
	db, err := connector.Connect(ctx)
	if err != nil {
		return err
	}
	defer source.Release(db, app.logger)

	inspector := catalog.NewInspector(db)
	tables, err := inspector.ListTables(ctx, owner)
	if err != nil {
		return err
	}

	if !tablesOpts.columns {
		rows := make([][]string, len(tables))
		for i, table := range tables {
			rows[i] = []string{table}
		}
		return renderTable(cmd.OutOrStdout(), []string{"Table"}, rows)
	}

	var rows [][]string
	for _, table := range tables {
		columns, err := inspector.ListColumns(ctx, owner, table)
		if err != nil {
			return err
		}
		for _, col := range columns {
			rows = append(rows, []string{table, col.Name, col.DataType, col.Type.String()})
		}
	}
	return renderTable(cmd.OutOrStdout(), []string{"Table", "Column", "Data type", "Class"}, rows)
}
