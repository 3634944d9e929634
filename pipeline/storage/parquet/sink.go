// Package parquet writes each exported table to its own Parquet file
// through arrow-go's pqarrow writer.
package parquet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/gear6io/oraport/pipeline/config"
	"github.com/gear6io/oraport/pipeline/storage"
	"github.com/gear6io/oraport/pkg/errors"
	"github.com/rs/zerolog"
)

const fileExtension = "parquet"

// Sink writes <dir>/<identifier>_<timestamp>.parquet per table
type Sink struct {
	dir        string
	codec      compress.Compression
	memoryPool memory.Allocator
	logger     zerolog.Logger
	now        func() time.Time
}

// NewSink validates the compression codec and creates the output directory
func NewSink(cfg config.ParquetConfig, logger zerolog.Logger) (*Sink, error) {
	codec, err := CompressionCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, errors.New(ErrCreateDirFailed, "failed to create output directory", err).AddContext("path", cfg.Dir)
	}

	return &Sink{
		dir:        cfg.Dir,
		codec:      codec,
		memoryPool: memory.NewGoAllocator(),
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Factory adapts NewSink to storage.Factory
func Factory(cfg config.SinkConfig, logger zerolog.Logger) (storage.Sink, error) {
	return NewSink(cfg.Parquet, logger)
}

// Write converts the batch to one Arrow record and writes it as a single
// Parquet file. A table with no rows still produces a file carrying the schema.
func (s *Sink) Write(ctx context.Context, identifier string, batch *storage.RowBatch) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := batch.Validate(); err != nil {
		return "", err
	}

	schema := Schema(batch.Columns)
	path := filepath.Join(s.dir, storage.FileName(identifier, s.now(), fileExtension))

	var record arrow.Record
	if batch.Len() > 0 {
		arrays, err := s.convertBatchToArrays(batch, schema)
		if err != nil {
			return "", err
		}
		record = array.NewRecord(schema, arrays, int64(batch.Len()))
		for _, arr := range arrays {
			arr.Release()
		}
		defer record.Release()
	}

	file, err := os.Create(path)
	if err != nil {
		return "", errors.New(ErrCreateFileFailed, "failed to create Parquet file", err).AddContext("path", path)
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(s.codec),
		parquet.WithAllocator(s.memoryPool),
	)
	writer, err := pqarrow.NewFileWriter(schema, file, props, pqarrow.DefaultWriterProps())
	if err != nil {
		file.Close()
		os.Remove(path)
		return "", errors.New(ErrCreateWriterFailed, "failed to create Parquet writer", err).AddContext("path", path)
	}

	if record != nil {
		if err := writer.Write(record); err != nil {
			writer.Close()
			os.Remove(path)
			return "", errors.New(storage.ErrWriteFailed, "failed to write record to Parquet file", err).AddContext("path", path)
		}
	}

	// Closing the writer also closes the file
	if err := writer.Close(); err != nil {
		os.Remove(path)
		return "", errors.New(ErrCloseFailed, "failed to close Parquet writer", err).AddContext("path", path)
	}

	s.logger.Debug().
		Str("path", path).
		Int("rows", batch.Len()).
		Msg("Parquet file written")
	return path, nil
}

// Close is a no-op; each Write owns and closes its file
func (s *Sink) Close() error {
	return nil
}

// Schema builds a nullable Arrow schema from batch columns
func Schema(columns []storage.BatchColumn) *arrow.Schema {
	fields := make([]arrow.Field, len(columns))
	for i, col := range columns {
		fields[i] = arrow.Field{Name: col.Name, Type: arrowType(col.Kind), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(kind storage.ColumnKind) arrow.DataType {
	switch kind {
	case storage.KindInt64:
		return arrow.PrimitiveTypes.Int64
	case storage.KindFloat64:
		return arrow.PrimitiveTypes.Float64
	case storage.KindBinary:
		return arrow.BinaryTypes.Binary
	case storage.KindTimestamp:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

func (s *Sink) convertBatchToArrays(batch *storage.RowBatch, schema *arrow.Schema) ([]arrow.Array, error) {
	arrays := make([]arrow.Array, len(batch.Columns))
	for colIdx, col := range batch.Columns {
		arr, err := s.convertColumnToArray(batch.Rows, colIdx, col, schema.Field(colIdx).Type)
		if err != nil {
			for _, built := range arrays[:colIdx] {
				built.Release()
			}
			return nil, err
		}
		arrays[colIdx] = arr
	}
	return arrays, nil
}

func (s *Sink) convertColumnToArray(rows [][]interface{}, colIdx int, col storage.BatchColumn, dataType arrow.DataType) (arrow.Array, error) {
	builder := array.NewBuilder(s.memoryPool, dataType)
	defer builder.Release()

	for rowIdx, row := range rows {
		value, err := storage.Normalize(row[colIdx], col.Kind)
		if err != nil {
			return nil, errors.New(ErrColumnConversionFailed, "failed to convert column value", err).
				AddContext("column", col.Name).
				AddContext("row_index", fmt.Sprintf("%d", rowIdx))
		}
		appendValue(builder, value)
	}

	return builder.NewArray(), nil
}

// appendValue expects a value already normalized for the builder's type
func appendValue(builder array.Builder, value interface{}) {
	if value == nil {
		builder.AppendNull()
		return
	}

	switch b := builder.(type) {
	case *array.Int64Builder:
		b.Append(value.(int64))
	case *array.Float64Builder:
		b.Append(value.(float64))
	case *array.BinaryBuilder:
		b.Append(value.([]byte))
	case *array.TimestampBuilder:
		b.Append(arrow.Timestamp(value.(time.Time).UnixMicro()))
	case *array.StringBuilder:
		b.Append(value.(string))
	default:
		builder.AppendNull()
	}
}
