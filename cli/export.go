package cli

import (
	"github.com/gear6io/oraport/pipeline/config"
	"github.com/gear6io/oraport/pipeline/exporter"
	"github.com/gear6io/oraport/pipeline/orchestrator"
	"github.com/gear6io/oraport/pipeline/projection"
	"github.com/gear6io/oraport/pipeline/storage"
	"github.com/gear6io/oraport/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every table of the schema owner",
	Long: `Export every table of the configured schema owner, or only those listed in
an allow-list CSV, to the configured sink.

Tables are exported in parallel by isolated workers. A failing table is
reported in the summary and never stops the others.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

type exportOptions struct {
	workers   int
	allowList string
	isolation string
	sink      string
	strict    bool
}

var exportOpts = &exportOptions{}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().IntVarP(&exportOpts.workers, "workers", "w", 0, "number of parallel workers (0 = min(CPUs, worker.max))")
	exportCmd.Flags().StringVar(&exportOpts.allowList, "allow-list", "", "CSV file of table names to export")
	exportCmd.Flags().StringVar(&exportOpts.isolation, "isolation", "", "worker isolation (goroutine|process)")
	exportCmd.Flags().StringVar(&exportOpts.sink, "sink", "", "sink type (parquet|duckdb)")
	exportCmd.Flags().BoolVar(&exportOpts.strict, "strict", false, "exit non-zero when any table fails")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	cfg := app.cfg
	logger := app.logger.With().Str("cmd", "export").Logger()

	if cmd.Flags().Changed("workers") {
		cfg.Worker.Count = exportOpts.workers
	}
	if exportOpts.isolation != "" {
		cfg.Worker.Isolation = exportOpts.isolation
	}
	if exportOpts.sink != "" {
		cfg.Sink.Type = exportOpts.sink
	}
	if exportOpts.allowList != "" {
		cfg.AllowList = exportOpts.allowList
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var allowList []string
	if cfg.AllowList != "" {
		var err error
		if allowList, err = orchestrator.ReadAllowList(cfg.AllowList); err != nil {
			return err
		}
		logger.Info().Str("path", cfg.AllowList).Int("tables", len(allowList)).Msg("Allow-list loaded")
	}

	connector, err := newConnector(cfg, logger)
	if err != nil {
		return err
	}

	dispatcher, sink, err := newDispatcher(cfg, logger)
	if err != nil {
		return err
	}
	if sink != nil {
		defer sink.Close()
	}

	orch := orchestrator.New(connector, dispatcher, cfg.Worker.Max, logger)
	report, err := orch.Run(ctx, orchestrator.RunRequest{
		Owner:     cfg.Source.Owner,
		AllowList: allowList,
		Workers:   cfg.Worker.Count,
	})
	if err != nil {
		return err
	}

	if err := renderReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	return strictResult(report, exportOpts.strict)
}

// strictResult fails the command when strict is set and any table failed
func strictResult(report *orchestrator.Report, strict bool) error {
	failed := len(report.Failed())
	if !strict || failed == 0 {
		return nil
	}
	return errors.Newf(ErrTablesFailed, "%d of %d tables failed", failed, len(report.Outcomes)).
		AddContext("run_id", report.RunID)
}

// newDispatcher builds the dispatcher for the configured isolation. In
// goroutine mode the shared sink is returned so the caller can close it.
func newDispatcher(cfg *config.Config, logger zerolog.Logger) (orchestrator.Dispatcher, storage.Sink, error) {
	if cfg.Worker.Isolation == config.IsolationProcess {
		d, err := orchestrator.NewProcessDispatcher("", workerArgs(cfg), logger)
		return d, nil, err
	}

	sink, err := newSinkRegistry(logger).Open(cfg.Sink)
	if err != nil {
		return nil, nil, err
	}
	connector, err := newConnector(cfg, logger)
	if err != nil {
		sink.Close()
		return nil, nil, err
	}
	exp := exporter.New(connector, sink, cfg.Source.Owner, projection.PolicyFromConfig(cfg.Policy), logger)
	return orchestrator.NewGoroutineDispatcher(exp, logger), sink, nil
}

// workerArgs are the arguments a worker process is started with; the
// table name is appended by the dispatcher
func workerArgs(cfg *config.Config) []string {
	var args []string
	if rootCmd.PersistentFlags().Changed("config") {
		args = append(args, "--config", globalOpts.configPath)
	}
	if globalOpts.envFile != "" {
		args = append(args, "--env-file", globalOpts.envFile)
	}
	if globalOpts.verbose {
		args = append(args, "--verbose")
	}
	return append(args, workerCmd.Name(), "--sink", cfg.Sink.Type, "--table")
}
