package parquet

import (
	"strings"

	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/gear6io/oraport/pkg/errors"
)

// CompressionCodec converts a configured compression name to a codec. An
// empty name means snappy.
func CompressionCodec(name string) (compress.Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	case "gzip", "gz":
		return compress.Codecs.Gzip, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	default:
		return compress.Codecs.Uncompressed, errors.New(ErrCompressionUnsupported, "unsupported compression type", nil).
			AddContext("compression", name)
	}
}
