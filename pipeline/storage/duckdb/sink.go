// Package duckdb loads exported tables into a single DuckDB database file,
// one table per source table, through the go-duckdb Appender.
package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/gear6io/oraport/pipeline/config"
	"github.com/gear6io/oraport/pipeline/storage"
	"github.com/gear6io/oraport/pkg/errors"
	goduckdb "github.com/marcboeker/go-duckdb/v2"
	"github.com/rs/zerolog"
)

const DefaultSchema = "oracle_giss"

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_$#]*$`)

// Sink owns one DuckDB database. Writes are serialized because concurrent
// DDL against one catalog conflicts.
type Sink struct {
	path      string
	schema    string
	connector *goduckdb.Connector
	db        *sql.DB
	logger    zerolog.Logger
	mu        sync.Mutex
}

// NewSink opens (or creates) the database file and its target schema
func NewSink(cfg config.DuckDBConfig, logger zerolog.Logger) (*Sink, error) {
	schema := strings.ToLower(cfg.Schema)
	if schema == "" {
		schema = DefaultSchema
	}
	if !identifierPattern.MatchString(schema) {
		return nil, errors.New(ErrInvalidIdentifier, "invalid duckdb schema name", nil).AddContext("schema", schema)
	}

	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.New(ErrOpenFailed, "failed to create database directory", err).AddContext("path", cfg.Path)
		}
	}

	connector, err := goduckdb.NewConnector(cfg.Path, nil)
	if err != nil {
		return nil, errors.New(ErrOpenFailed, "failed to open duckdb database", err).AddContext("path", cfg.Path)
	}
	db := sql.OpenDB(connector)

	if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS "+quoteIdentifier(schema)); err != nil {
		db.Close()
		return nil, errors.New(ErrSchemaCreateFailed, "failed to create duckdb schema", err).AddContext("schema", schema)
	}

	logger.Info().Str("path", cfg.Path).Str("schema", schema).Msg("DuckDB sink opened")

	return &Sink{
		path:      cfg.Path,
		schema:    schema,
		connector: connector,
		db:        db,
		logger:    logger,
	}, nil
}

// Factory adapts NewSink to storage.Factory
func Factory(cfg config.SinkConfig, logger zerolog.Logger) (storage.Sink, error) {
	return NewSink(cfg.DuckDB, logger)
}

// Write replaces <schema>.<identifier> with the batch contents
func (s *Sink) Write(ctx context.Context, identifier string, batch *storage.RowBatch) (string, error) {
	if !identifierPattern.MatchString(identifier) {
		return "", errors.New(ErrInvalidIdentifier, "invalid duckdb table name", nil).AddContext("table", identifier)
	}
	if err := batch.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	qualified := s.schema + "." + identifier
	if _, err := s.db.ExecContext(ctx, CreateTableSQL(s.schema, identifier, batch.Columns)); err != nil {
		return "", errors.New(ErrTableCreateFailed, "failed to create duckdb table", err).AddContext("table", qualified)
	}

	if batch.Len() > 0 {
		if err := s.appendRows(ctx, identifier, batch); err != nil {
			return "", errors.New(storage.ErrWriteFailed, "failed to append rows", err).AddContext("table", qualified)
		}
	}

	s.logger.Debug().Str("table", qualified).Int("rows", batch.Len()).Msg("DuckDB table loaded")
	return qualified, nil
}

func (s *Sink) appendRows(ctx context.Context, identifier string, batch *storage.RowBatch) error {
	conn, err := s.connector.Connect(ctx)
	if err != nil {
		return errors.New(ErrAppenderFailed, "failed to get native connection", err)
	}
	defer conn.Close()

	appender, err := goduckdb.NewAppenderFromConn(conn, s.schema, identifier)
	if err != nil {
		return errors.New(ErrAppenderFailed, "failed to create appender", err)
	}

	values := make([]driver.Value, len(batch.Columns))
	for rowIdx, row := range batch.Rows {
		for colIdx, col := range batch.Columns {
			v, err := storage.Normalize(row[colIdx], col.Kind)
			if err != nil {
				appender.Close()
				return errors.New(ErrValueConversionFail, "failed to convert value", err).
					AddContext("column", col.Name).
					AddContext("row_index", fmt.Sprintf("%d", rowIdx))
			}
			values[colIdx] = v
		}
		if err := appender.AppendRow(values...); err != nil {
			appender.Close()
			return errors.New(ErrAppenderFailed, "failed to append row", err).AddContext("row_index", fmt.Sprintf("%d", rowIdx))
		}
	}

	// Close flushes the remaining rows
	if err := appender.Close(); err != nil {
		return errors.New(ErrAppenderFailed, "failed to flush appender", err)
	}
	return nil
}

// Close closes the database. sql.DB closes the connector with it.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return errors.New(ErrCloseFailed, "failed to close duckdb database", err).AddContext("path", s.path)
	}
	return nil
}

// CreateTableSQL renders CREATE OR REPLACE TABLE for the batch columns.
// Every identifier is quoted: Oracle names may contain # or $, collide with
// DuckDB keywords, and column casing must survive.
func CreateTableSQL(schema, table string, columns []storage.BatchColumn) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = quoteIdentifier(col.Name) + " " + columnType(col.Kind)
	}
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s.%s (%s)", quoteIdentifier(schema), quoteIdentifier(table), strings.Join(defs, ", "))
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func columnType(kind storage.ColumnKind) string {
	switch kind {
	case storage.KindInt64:
		return "BIGINT"
	case storage.KindFloat64:
		return "DOUBLE"
	case storage.KindBinary:
		return "BLOB"
	case storage.KindTimestamp:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}
