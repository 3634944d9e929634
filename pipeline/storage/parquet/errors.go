package parquet

import "github.com/gear6io/oraport/pkg/errors"

var (
	ErrCompressionUnsupported = errors.MustNewCode("parquet.compression_unsupported")
	ErrCreateDirFailed        = errors.MustNewCode("parquet.create_dir_failed")
	ErrCreateFileFailed       = errors.MustNewCode("parquet.create_file_failed")
	ErrCreateWriterFailed     = errors.MustNewCode("parquet.create_writer_failed")
	ErrColumnConversionFailed = errors.MustNewCode("parquet.column_conversion_failed")
	ErrCloseFailed            = errors.MustNewCode("parquet.close_failed")
)
