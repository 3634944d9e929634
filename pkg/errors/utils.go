package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// As finds the first *Error in err's chain
func As(err error) (*Error, bool) {
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded, true
	}
	return nil, false
}

// GetCode returns the code of the outermost *Error in the chain, or ""
func GetCode(err error) string {
	if coded, ok := As(err); ok {
		return coded.Code.String()
	}
	return ""
}

// HasCode reports whether any *Error in the chain carries code
func HasCode(err error, code Code) bool {
	for err != nil {
		if coded, ok := err.(*Error); ok && coded.Code.Equals(code) {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// GetContext returns the context of the outermost *Error in the chain
func GetContext(err error) map[string]string {
	if coded, ok := As(err); ok {
		return coded.Context
	}
	return nil
}

// FormatError renders an error for multi-line log output
func FormatError(err error) string {
	coded, ok := err.(*Error)
	if !ok {
		return err.Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("Code: %s", coded.Code))
	parts = append(parts, fmt.Sprintf("Message: %s", coded.Message))

	if len(coded.Context) > 0 {
		keys := make([]string, 0, len(coded.Context))
		for k := range coded.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts = append(parts, "Context:")
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("  %s: %v", k, coded.Context[k]))
		}
	}

	if coded.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause: %v", coded.Cause))
	}

	return strings.Join(parts, "\n")
}

// AsError converts any error to *Error. Errors that are not coded are wrapped
// as common.internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if coded, ok := As(err); ok {
		return coded
	}
	return New(CommonInternal, err.Error(), err)
}
