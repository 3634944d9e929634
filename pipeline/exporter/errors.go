package exporter

import "github.com/gear6io/oraport/pkg/errors"

var (
	ErrDecodeFailed   = errors.MustNewCode("exporter.decode_failed")
	ErrQueryFailed    = errors.MustNewCode("exporter.query_failed")
	ErrExportPanicked = errors.MustNewCode("exporter.panicked")
)
