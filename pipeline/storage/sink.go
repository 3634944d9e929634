// Package storage defines the destination side of an export: the RowBatch
// handed over by the exporter and the Sink that persists it.
package storage

import (
	"context"
	"strings"
	"time"
)

// TimestampLayout is the suffix format used by file sinks
const TimestampLayout = "20060102_150405"

// Sink persists one table at a time. Write returns a description of where
// the batch landed (a file path or a qualified table name). Concurrent
// Writes always use distinct identifiers.
type Sink interface {
	Write(ctx context.Context, identifier string, batch *RowBatch) (string, error)
	Close() error
}

// Identifier is the destination name for a source table
func Identifier(table string) string {
	return strings.ToLower(strings.TrimSpace(table))
}

// FileName returns <identifier>_<YYYYmmdd_HHMMSS>.<ext>
func FileName(identifier string, at time.Time, ext string) string {
	return identifier + "_" + at.Format(TimestampLayout) + "." + strings.TrimPrefix(ext, ".")
}
