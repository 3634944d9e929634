package cli

import "github.com/gear6io/oraport/pkg/errors"

var (
	ErrConfigExists = errors.MustNewCode("cli.config_exists")
	ErrTablesFailed = errors.MustNewCode("cli.tables_failed")
)
