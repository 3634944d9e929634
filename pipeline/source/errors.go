package source

import "github.com/gear6io/oraport/pkg/errors"

var (
	ErrConnectionFailed    = errors.MustNewCode("source.connection_failed")
	ErrSourceConfigInvalid = errors.MustNewCode("source.config_invalid")
	ErrSessionCloseFailed  = errors.MustNewCode("source.session_close_failed")
)
