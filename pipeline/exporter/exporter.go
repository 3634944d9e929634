// Package exporter exports a single table: it opens its own source
// session, projects the table through the projection builder, pulls every
// row into memory and hands the batch to a sink.
package exporter

import (
	"context"
	"database/sql"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gear6io/oraport/pipeline/catalog"
	"github.com/gear6io/oraport/pipeline/projection"
	"github.com/gear6io/oraport/pipeline/source"
	"github.com/gear6io/oraport/pipeline/storage"
	"github.com/gear6io/oraport/pkg/errors"
	"github.com/rs/zerolog"
)

// Exporter is safe for concurrent use as long as its sink is; every Export
// acquires a separate session.
type Exporter struct {
	connector source.Connector
	sink      storage.Sink
	owner     string
	policy    projection.Policy
	logger    zerolog.Logger
}

func New(connector source.Connector, sink storage.Sink, owner string, policy projection.Policy, logger zerolog.Logger) *Exporter {
	return &Exporter{
		connector: connector,
		sink:      sink,
		owner:     strings.ToUpper(owner),
		policy:    policy,
		logger:    logger.With().Str("component", "exporter").Logger(),
	}
}

// Export runs one table end to end. It never returns an error: every
// failure, including a panic, is reported in the Outcome.
func (e *Exporter) Export(ctx context.Context, table string) (outcome Outcome) {
	start := time.Now()
	logger := e.logger.With().Str("table", table).Logger()
	outcome = Outcome{Table: table}

	defer func() {
		if r := recover(); r != nil {
			err := errors.Newf(ErrExportPanicked, "export panicked: %v", r).AddContext("table", table)
			logger.Error().Str("stack", string(debug.Stack())).Msg("Export panicked")
			outcome = e.failed(outcome, err, logger)
		}
		outcome.Duration = time.Since(start)
	}()

	logger.Info().Str("owner", e.owner).Msg("Export started")

	rows, target, err := e.export(ctx, table, logger)
	if err != nil {
		return e.failed(outcome, err, logger)
	}

	outcome.Status = StatusOK
	outcome.Rows = rows
	outcome.Target = target
	logger.Info().
		Int64("rows", rows).
		Str("target", target).
		Dur("duration", time.Since(start)).
		Msg("Export finished")
	return outcome
}

func (e *Exporter) export(ctx context.Context, table string, logger zerolog.Logger) (int64, string, error) {
	db, err := e.connector.Connect(ctx)
	if err != nil {
		return 0, "", err
	}
	defer source.Release(db, logger)

	batch, err := e.Fetch(ctx, db, table)
	if err != nil {
		return 0, "", err
	}

	target, err := e.sink.Write(ctx, storage.Identifier(table), batch)
	if err != nil {
		if !errors.HasCode(err, storage.ErrWriteFailed) {
			err = errors.New(storage.ErrWriteFailed, "sink write failed", err).AddContext("table", table)
		}
		return 0, "", err
	}
	return int64(batch.Len()), target, nil
}

// Plan introspects table and builds its projection
func (e *Exporter) Plan(ctx context.Context, db catalog.Querier, table string) (*projection.Spec, error) {
	columns, err := catalog.NewInspector(db).ListColumns(ctx, e.owner, table)
	if err != nil {
		return nil, err
	}
	return projection.Build(catalog.TableDescriptor{Owner: e.owner, Name: table}, columns, e.policy)
}

// Fetch plans table, runs the projection and materializes the result
func (e *Exporter) Fetch(ctx context.Context, db *sql.DB, table string) (*storage.RowBatch, error) {
	spec, err := e.Plan(ctx, db, table)
	if err != nil {
		return nil, err
	}

	query := spec.SQL()
	e.logger.Debug().Str("table", table).Str("sql", query).Msg("Running projection")

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.New(ErrQueryFailed, "projection query failed", err).AddContext("table", table)
	}
	defer rows.Close()

	return Materialize(rows, spec.Names())
}

func (e *Exporter) failed(outcome Outcome, err error, logger zerolog.Logger) Outcome {
	outcome.Status = StatusError
	outcome.Rows = 0
	outcome.Target = ""
	outcome.Error = err.Error()
	outcome.Code = errors.GetCode(err)
	if outcome.Code == "" {
		outcome.Code = errors.CommonInternal.String()
	}

	logger.Error().
		Err(err).
		Str("code", outcome.Code).
		Msg("Export failed")
	return outcome
}
