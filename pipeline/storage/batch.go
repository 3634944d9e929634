package storage

import (
	"fmt"
	"strings"

	"github.com/gear6io/oraport/pkg/errors"
)

// ColumnKind is the destination type of a batch column
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindInt64
	KindFloat64
	KindBinary
	KindTimestamp
)

func (k ColumnKind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindBinary:
		return "binary"
	case KindTimestamp:
		return "timestamp"
	default:
		return "string"
	}
}

// BatchColumn describes one column of a RowBatch
type BatchColumn struct {
	Name         string
	DatabaseType string
	Kind         ColumnKind
}

// RowBatch is a fully materialized query result. Values are nil, string,
// []byte, int64, float64 or time.Time once large objects are resolved.
type RowBatch struct {
	Columns []BatchColumn
	Rows    [][]interface{}
}

// Len returns the number of rows
func (b *RowBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Rows)
}

// Validate checks that every row has one value per column
func (b *RowBatch) Validate() error {
	for i, row := range b.Rows {
		if len(row) != len(b.Columns) {
			return newShortRowError(i, len(row), len(b.Columns))
		}
	}
	return nil
}

// KindForDatabaseType maps a column type name to a ColumnKind. It accepts
// both catalog names (BLOB, BINARY_DOUBLE) and the go-ora driver names
// reported by ColumnTypeDatabaseTypeName (OCIBlobLocator, BDouble).
// NUMBER with scale 0 and at most 18 digits fits an int64.
func KindForDatabaseType(typeName string, precision, scale int64, hasDecimal bool) ColumnKind {
	name := strings.ToUpper(strings.TrimSpace(typeName))
	switch {
	case name == "NUMBER" || name == "DECIMAL" || name == "INTEGER":
		if hasDecimal && scale == 0 && precision > 0 && precision <= 18 {
			return KindInt64
		}
		return KindFloat64
	case name == "BINTEGER":
		return KindInt64
	case name == "FLOAT" || strings.HasPrefix(name, "BINARY_") ||
		name == "BFLOAT" || name == "BDOUBLE" || name == "IBFLOAT" || name == "IBDOUBLE":
		return KindFloat64
	case name == "BLOB" || name == "OCIBLOBLOCATOR" || strings.Contains(name, "RAW"):
		return KindBinary
	case name == "DATE" || name == "OCIDATE" || strings.HasPrefix(name, "TIMESTAMP"):
		return KindTimestamp
	default:
		return KindString
	}
}

func newShortRowError(row, got, want int) error {
	return errors.Newf(ErrShortRow, "row has %d values, expected %d", got, want).
		AddContext("row_index", fmt.Sprintf("%d", row))
}
