package catalog

import "github.com/gear6io/oraport/pkg/errors"

var (
	ErrCatalogQueryFailed = errors.MustNewCode("catalog.query_failed")
	ErrCatalogScanFailed  = errors.MustNewCode("catalog.scan_failed")
)
