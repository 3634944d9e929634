package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
)

// workerCmd is started by the process dispatcher, once per table. It
// prints exactly one JSON outcome on stdout; logs go to stderr.
var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Export a single table and print its outcome as JSON",
	Hidden:      true,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{workerProcess: "true"},
	RunE:        runWorker,
}

type workerOptions struct {
	table string
	sink  string
}

var workerOpts = &workerOptions{}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().StringVar(&workerOpts.table, "table", "", "table to export")
	workerCmd.Flags().StringVar(&workerOpts.sink, "sink", "", "sink type override")
	_ = workerCmd.MarkFlagRequired("table")
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	cfg := app.cfg
	if workerOpts.sink != "" {
		cfg.Sink.Type = workerOpts.sink
	}
	table := strings.TrimSpace(workerOpts.table)
	logger := app.logger.With().Str("cmd", "worker").Logger()

	sink, err := newSinkRegistry(logger).Open(cfg.Sink)
	if err != nil {
		return err
	}
	defer sink.Close()

	exp, _, err := newExporter(cfg, sink, logger)
	if err != nil {
		return err
	}

	outcome := exp.Export(ctx, table)
	return json.NewEncoder(cmd.OutOrStdout()).Encode(outcome)
}
