package syncer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// canonical returns the form of a driver value used for equality
// comparison and for indexing rows by key. Arbitrary-precision integers
// compare by their decimal string (never through floating point) and
// timestamps by their instant, so the same logical value scanned
// through different driver representations still matches.
func canonical(v any) string {
	switch val := v.(type) {
	case nil:
		return "\x00null"
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int:
		return strconv.Itoa(val)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// encodeValue prepares a source value for writing into a target column,
// dispatching on the column's declared type. A single guess-from-value
// heuristic silently corrupts edge cases (a large integer that
// resembles a millisecond timestamp, for one), so the declared type
// decides.
func encodeValue(v any, declaredType string) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch strings.ToLower(declaredType) {
	case "timestamp with time zone", "timestamp without time zone", "date":
		switch val := v.(type) {
		case time.Time:
			return val, nil
		case []byte:
			// Pass the database's own textual representation back.
			return string(val), nil
		case string:
			return val, nil
		default:
			return nil, fmt.Errorf("cannot write %T into %s column", v, declaredType)
		}
	case "uuid":
		switch val := v.(type) {
		case uuid.UUID:
			return val, nil
		case string:
			id, err := uuid.Parse(val)
			if err != nil {
				return nil, fmt.Errorf("invalid uuid value %q: %w", val, err)
			}
			return id, nil
		case []byte:
			if len(val) == 16 {
				id, err := uuid.FromBytes(val)
				if err != nil {
					return nil, fmt.Errorf("invalid uuid bytes: %w", err)
				}
				return id, nil
			}
			id, err := uuid.Parse(string(val))
			if err != nil {
				return nil, fmt.Errorf("invalid uuid value %q: %w", val, err)
			}
			return id, nil
		default:
			return nil, fmt.Errorf("cannot write %T into uuid column", v)
		}
	case "bytea":
		switch val := v.(type) {
		case []byte:
			return val, nil
		case string:
			return []byte(val), nil
		default:
			return nil, fmt.Errorf("cannot write %T into bytea column", v)
		}
	case "json", "jsonb":
		switch val := v.(type) {
		case []byte:
			return string(val), nil
		case string:
			return val, nil
		default:
			return nil, fmt.Errorf("cannot write %T into %s column", v, declaredType)
		}
	default:
		return v, nil
	}
}
