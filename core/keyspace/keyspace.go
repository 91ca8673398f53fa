package keyspace

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"pgslice/core/database"

	"gorm.io/gorm"
)

// ErrUnsupported is returned when a primary key value is neither an
// integral type nor a ULID-shaped string.
var ErrUnsupported = errors.New("unsupported primary key type")

// Kind identifies a key domain.
type Kind string

const (
	// Integer keys are non-negative arbitrary-precision integers
	// (serial / bigserial / numeric identity columns).
	Integer Kind = "integer"
	// ULID keys are 26-character Crockford base-32 strings whose
	// lexicographic order is their semantic order.
	ULID Kind = "ulid"
)

// Key is an opaque primary key value bound to the keyspace that
// produced it. Keys from different domains must never meet; the
// concrete keyspaces panic if they do, since that is a programming
// error rather than a data condition.
type Key struct {
	kind Kind
	num  *big.Int
	str  string
}

// Kind returns the key's domain.
func (k Key) Kind() Kind { return k.kind }

// IsZero reports whether the key is the zero value (no key).
func (k Key) IsZero() bool { return k.kind == "" }

// String returns the canonical textual form: decimal digits for
// integer keys, the ULID text for lexicographic keys.
func (k Key) String() string {
	switch k.kind {
	case Integer:
		return k.num.String()
	case ULID:
		return k.str
	default:
		return ""
	}
}

// Arg returns the value to bind as a query parameter.
func (k Key) Arg() any {
	switch k.kind {
	case Integer:
		if k.num.IsInt64() {
			return k.num.Int64()
		}
		return k.num.String()
	case ULID:
		return k.str
	default:
		return nil
	}
}

// Condition is a SQL predicate over the key column. When Limited is
// true the domain cannot bound the range by arithmetic and the caller
// must pair the predicate with ORDER BY key LIMIT batchSize.
type Condition struct {
	SQL     string
	Args    []any
	Limited bool
}

// Source describes the table a stride lookup runs against, including
// any extra row filter the batch scan itself applies.
type Source struct {
	Table  database.Table
	Column string
	Where  string
	Args   []any
}

// Keyspace abstracts the key-domain-specific arithmetic so the batch
// engines can treat "batch of N rows starting after K" uniformly.
type Keyspace interface {
	// Kind returns the domain this keyspace operates on.
	Kind() Kind

	// Min returns the domain minimum: 1 for integer keys (matching
	// sequence start), the all-zero ULID for lexicographic keys.
	Min() Key

	// Parse converts a driver value or textual form into a Key of
	// this domain.
	Parse(v any) (Key, error)

	// Predecessor returns the value immediately below k. Integer keys
	// subtract one; ULID keys saturate to the domain minimum.
	Predecessor(k Key) Key

	// Continue reports whether current still precedes max.
	Continue(current, max Key) bool

	// BatchCount estimates the batches remaining between start
	// (exclusive) and max at the given batch size. ok is false when
	// the domain has no subtraction and the total is unknowable.
	BatchCount(start, max Key, batchSize int64) (total int64, ok bool)

	// Condition builds the key predicate for one batch starting at
	// start, inclusive only when resuming from an explicit key.
	Condition(column string, start Key, batchSize int64, inclusive bool) Condition

	// NextCursor computes the cursor after one batch. Integer keys
	// advance by pure arithmetic; ULID keys need a round trip to find
	// the maximum key among the next batchSize rows.
	NextCursor(ctx context.Context, db *gorm.DB, src Source, current Key, batchSize int64, inclusive bool) (Key, error)
}

// ForSample selects a keyspace from a sampled key value. The variant is
// fixed for the lifetime of a table's primary key, so one sample is
// enough.
func ForSample(v any) (Keyspace, error) {
	switch val := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return integerKeyspace{}, nil
	case []byte:
		return forText(string(val))
	case string:
		return forText(val)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
}

// ForColumnType selects a keyspace from a declared column type when no
// sample row exists. Integral catalog types map to the integer domain;
// character types are assumed to carry ULIDs, the only lexicographic
// shape supported.
func ForColumnType(dataType string) (Keyspace, error) {
	switch strings.ToLower(dataType) {
	case "smallint", "integer", "bigint", "numeric", "decimal":
		return integerKeyspace{}, nil
	case "text", "character", "character varying":
		return ulidKeyspace{}, nil
	default:
		return nil, fmt.Errorf("%w: column type %q", ErrUnsupported, dataType)
	}
}

func forText(s string) (Keyspace, error) {
	if isDecimal(s) {
		return integerKeyspace{}, nil
	}
	if isULID(s) {
		return ulidKeyspace{}, nil
	}
	return nil, fmt.Errorf("%w: %q is neither integral nor a ULID", ErrUnsupported, s)
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
