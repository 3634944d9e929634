package duckdb

import "github.com/gear6io/oraport/pkg/errors"

var (
	ErrOpenFailed          = errors.MustNewCode("duckdb.open_failed")
	ErrSchemaCreateFailed  = errors.MustNewCode("duckdb.schema_create_failed")
	ErrTableCreateFailed   = errors.MustNewCode("duckdb.table_create_failed")
	ErrAppenderFailed      = errors.MustNewCode("duckdb.appender_failed")
	ErrInvalidIdentifier   = errors.MustNewCode("duckdb.invalid_identifier")
	ErrValueConversionFail = errors.MustNewCode("duckdb.value_conversion_failed")
	ErrCloseFailed         = errors.MustNewCode("duckdb.close_failed")
)
