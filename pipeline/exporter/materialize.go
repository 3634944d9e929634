package exporter

import (
	"database/sql"
	"fmt"
	"io"
	"reflect"

	"github.com/gear6io/oraport/pipeline/storage"
	"github.com/gear6io/oraport/pkg/errors"
	go_ora "github.com/sijms/go-ora/v2"
)

// Materialize reads every row of rows into memory. Large objects are read
// in full, so the batch stays valid after the session is closed. names,
// when given, override the driver's column names.
func Materialize(rows *sql.Rows, names []string) (*storage.RowBatch, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.New(ErrDecodeFailed, "failed to read result column types", err)
	}

	columns := make([]storage.BatchColumn, len(types))
	for i, ct := range types {
		precision, scale, ok := ct.DecimalSize()
		name := ct.Name()
		if len(names) == len(types) {
			name = names[i]
		}
		columns[i] = storage.BatchColumn{
			Name:         name,
			DatabaseType: ct.DatabaseTypeName(),
			Kind:         columnKind(ct, precision, scale, ok),
		}
	}

	batch := &storage.RowBatch{Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.New(ErrDecodeFailed, "failed to decode row", err).
				AddContext("row_index", fmt.Sprintf("%d", len(batch.Rows)))
		}

		for i, v := range values {
			resolved, err := resolveLargeObject(v)
			if err != nil {
				return nil, errors.New(ErrDecodeFailed, "failed to read large object", err).
					AddContext("column", columns[i].Name).
					AddContext("row_index", fmt.Sprintf("%d", len(batch.Rows)))
			}
			values[i] = resolved
		}
		batch.Rows = append(batch.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.New(ErrDecodeFailed, "failed while iterating rows", err).
			AddContext("rows_read", fmt.Sprintf("%d", len(batch.Rows)))
	}
	return batch, nil
}

var bytesType = reflect.TypeOf([]byte(nil))

// columnKind falls back to the scan type for driver type names that
// carry no kind of their own
func columnKind(ct *sql.ColumnType, precision, scale int64, hasDecimal bool) storage.ColumnKind {
	kind := storage.KindForDatabaseType(ct.DatabaseTypeName(), precision, scale, hasDecimal)
	if kind == storage.KindString && ct.ScanType() == bytesType {
		return storage.KindBinary
	}
	return kind
}

// resolveLargeObject turns driver LOB handles into plain values
func resolveLargeObject(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case go_ora.Clob:
		if !v.Valid {
			return nil, nil
		}
		return v.String, nil
	case *go_ora.Clob:
		if v == nil || !v.Valid {
			return nil, nil
		}
		return v.String, nil
	case go_ora.NClob:
		if !v.Valid {
			return nil, nil
		}
		return v.String, nil
	case *go_ora.NClob:
		if v == nil || !v.Valid {
			return nil, nil
		}
		return v.String, nil
	case go_ora.Blob:
		if v.Data == nil {
			return nil, nil
		}
		return v.Data, nil
	case *go_ora.Blob:
		if v == nil || v.Data == nil {
			return nil, nil
		}
		return v.Data, nil
	case io.Reader:
		return io.ReadAll(v)
	default:
		return value, nil
	}
}
