package cli

import (
	"os"

	"github.com/gear6io/oraport/pipeline/config"
	"github.com/gear6io/oraport/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a default oraport.yml (or the file named by --config).

Credentials are not written; supply them through HOST, PORT, SERVICE_NAME,
USERNAME and PASSWORD in the environment or a --env-file.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipConfig: "true"},
	RunE:        runInit,
}

type initOptions struct {
	force bool
	sink  string
	owner string
}

var initOpts = &initOptions{}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initOpts.force, "force", false, "overwrite an existing configuration file")
	initCmd.Flags().StringVar(&initOpts.sink, "sink", config.SinkParquet, "sink type (parquet|duckdb)")
	initCmd.Flags().StringVar(&initOpts.owner, "owner", "", "schema owner to export")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := globalOpts.configPath

	if _, err := os.Stat(path); err == nil && !initOpts.force {
		return errors.New(ErrConfigExists, "configuration file already exists (use --force to overwrite)", nil).
			AddContext("path", path)
	}

	cfg := config.LoadDefaultConfig()
	cfg.Sink.Type = initOpts.sink
	if initOpts.owner != "" {
		cfg.Source.Owner = initOpts.owner
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.SaveConfig(cfg, path); err != nil {
		return err
	}

	pterm.Success.Printfln("Wrote %s (sink: %s, owner: %s)", path, cfg.Sink.Type, cfg.Source.Owner)
	return nil
}
