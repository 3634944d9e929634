package projection

import "github.com/gear6io/oraport/pkg/errors"

var (
	ErrInvalidIdentifier = errors.MustNewCode("projection.invalid_identifier")
	ErrEmptyProjection   = errors.MustNewCode("projection.empty")
	ErrInvalidPolicy     = errors.MustNewCode("projection.invalid_policy")
)
