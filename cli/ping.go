package cli

import (
	"github.com/gear6io/oraport/pipeline/source"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the Oracle source is reachable",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	connector, err := newConnector(app.cfg, app.logger)
	if err != nil {
		return err
	}

	db, err := connector.Connect(commandContext(cmd))
	if err != nil {
		pterm.Error.Printfln("Cannot reach %s", connector.Address())
		return err
	}
	source.Release(db, app.logger)

	pterm.Success.Printfln("Connected to %s as %s", connector.Address(), app.cfg.Source.Username)
	return nil
}
