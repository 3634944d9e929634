package cli

import (
	"context"
	"io"
	"os"

	"github.com/gear6io/oraport/pipeline/config"
	"github.com/gear6io/oraport/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	// skipConfig marks commands that run without a loaded configuration
	skipConfig = "skip_config"
	// workerProcess marks commands run as a child of the process dispatcher.
	// They log to stderr only and leave the run log file to the parent.
	workerProcess = "worker_process"
)

var rootCmd = &cobra.Command{
	Use:   "oraport",
	Short: "Export an Oracle schema to DuckDB or Parquet",
	Long: `oraport exports every table of one Oracle schema owner into a DuckDB
database or a directory of Parquet files.

Spatial SDO_GEOMETRY columns are exported as WKT text, numeric columns that
fail to decode are coerced to text, and each table is exported by its own
worker so one broken table never stops the run.`,
	Version:            "0.1.0",
	SilenceUsage:       true,
	PersistentPreRunE:  loadApplication,
	PersistentPostRunE: closeApplication,
}

type globalOptions struct {
	configPath string
	envFile    string
	verbose    bool
}

var globalOpts = &globalOptions{}

// application is the per-invocation state shared by subcommands
type application struct {
	cfg    *config.Config
	logger zerolog.Logger
	closer io.Closer
}

var app *application

// Execute runs the root command
func Execute() error {
	return ExecuteWithContext(context.Background())
}

// ExecuteWithContext runs the root command with ctx available to all
// subcommands
func ExecuteWithContext(ctx context.Context) error {
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalOpts.configPath, "config", "c", config.DEFAULT_CONFIG_FILE, "configuration file")
	rootCmd.PersistentFlags().StringVar(&globalOpts.envFile, "env-file", "", "dotenv file with HOST, PORT, SERVICE_NAME, USERNAME, PASSWORD")
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false, "verbose output")
}

func loadApplication(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipConfig] == "true" {
		app = nil
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if globalOpts.verbose {
		cfg.Log.Level = "debug"
	}

	if cmd.Annotations[workerProcess] == "true" {
		app = &application{cfg: cfg, logger: config.NewWorkerLogger(cfg, os.Stderr)}
		return nil
	}

	logger, closer, err := config.SetupLogger(cfg)
	if err != nil {
		return err
	}

	app = &application{cfg: cfg, logger: logger, closer: closer}
	logger.Debug().Str("cmd", cmd.Name()).Str("config", globalOpts.configPath).Msg("Configuration loaded")
	return nil
}

// loadConfig reads the config file, falling back to defaults when the
// default file is absent, then overlays the environment
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(globalOpts.configPath); err == nil {
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return nil, err
		}
	} else if cmd.Flags().Changed("config") {
		return nil, errors.New(config.ErrConfigFileReadFailed, "configuration file not found", err).
			AddContext("path", globalOpts.configPath)
	} else {
		cfg = config.LoadDefaultConfig()
	}

	if err := config.ApplyEnv(cfg, globalOpts.envFile); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func closeApplication(cmd *cobra.Command, args []string) error {
	if app == nil || app.closer == nil {
		return nil
	}
	return app.closer.Close()
}

// commandContext returns the command context or a background context
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
