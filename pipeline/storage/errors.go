package storage

import "github.com/gear6io/oraport/pkg/errors"

var (
	ErrWriteFailed       = errors.MustNewCode("storage.write_failed")
	ErrSinkNotRegistered = errors.MustNewCode("storage.sink_not_registered")
	ErrSinkOpenFailed    = errors.MustNewCode("storage.sink_open_failed")
	ErrTypeMismatch      = errors.MustNewCode("storage.type_mismatch")
	ErrShortRow          = errors.MustNewCode("storage.short_row")
)
