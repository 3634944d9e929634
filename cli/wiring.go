package cli

import (
	"strings"

	"github.com/gear6io/oraport/pipeline/config"
	"github.com/gear6io/oraport/pipeline/exporter"
	"github.com/gear6io/oraport/pipeline/projection"
	"github.com/gear6io/oraport/pipeline/source"
	"github.com/gear6io/oraport/pipeline/storage"
	"github.com/gear6io/oraport/pipeline/storage/duckdb"
	"github.com/gear6io/oraport/pipeline/storage/parquet"
	"github.com/rs/zerolog"
)

// newSinkRegistry registers every sink type oraport ships with
func newSinkRegistry(logger zerolog.Logger) *storage.Registry {
	registry := storage.NewRegistry(logger.With().Str("component", "storage").Logger())
	registry.Register(config.SinkDuckDB, duckdb.Factory)
	registry.Register(config.SinkParquet, parquet.Factory)
	return registry
}

func newConnector(cfg *config.Config, logger zerolog.Logger) (*source.OracleConnector, error) {
	return source.NewOracleConnector(cfg.Source, logger)
}

// newExporter wires an exporter to a fresh connector. The sink may be nil
// for commands that never write.
func newExporter(cfg *config.Config, sink storage.Sink, logger zerolog.Logger) (*exporter.Exporter, *source.OracleConnector, error) {
	connector, err := newConnector(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	policy := projection.PolicyFromConfig(cfg.Policy)
	return exporter.New(connector, sink, cfg.Source.Owner, policy, logger), connector, nil
}

// tableArg is the table named on the command line, as the catalog spells
// it. Oracle names created quoted keep their case, so it is not folded.
func tableArg(args []string) string {
	return strings.TrimSpace(args[0])
}
