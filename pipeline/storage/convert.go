package storage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gear6io/oraport/pkg/errors"
)

// Normalize converts a materialized value to the Go type a sink expects for
// kind: string, int64, float64, []byte or time.Time. nil stays nil.
func Normalize(value interface{}, kind ColumnKind) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	var (
		out interface{}
		ok  bool
	)
	switch kind {
	case KindInt64:
		out, ok = ToInt64(value)
	case KindFloat64:
		out, ok = ToFloat64(value)
	case KindBinary:
		out, ok = ToBytes(value)
	case KindTimestamp:
		out, ok = ToTime(value)
	default:
		out, ok = ToString(value), true
	}
	if !ok {
		return nil, errors.Newf(ErrTypeMismatch, "cannot convert %T to %s", value, kind)
	}
	return out, nil
}

func ToInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case float32:
		return ToInt64(float64(v))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func ToFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func ToBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}

func ToTime(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		return t, err == nil
	default:
		return time.Time{}, false
	}
}

func ToString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
