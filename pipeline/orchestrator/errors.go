package orchestrator

import "github.com/gear6io/oraport/pkg/errors"

var (
	ErrWorkerFailed       = errors.MustNewCode("orchestrator.worker_failed")
	ErrWorkerPanicked     = errors.MustNewCode("orchestrator.worker_panicked")
	ErrWorkerOutput       = errors.MustNewCode("orchestrator.worker_output_invalid")
	ErrListTablesFailed   = errors.MustNewCode("orchestrator.list_tables_failed")
	ErrAllowListReadFail  = errors.MustNewCode("orchestrator.allow_list_read_failed")
	ErrAllowListParseFail = errors.MustNewCode("orchestrator.allow_list_parse_failed")
)
