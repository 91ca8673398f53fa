package keyspace

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pgslice/core/database"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// minULID is the lexicographically smallest legal value of the domain.
var minULID = strings.Repeat("0", ulid.EncodedSize)

// ulidKeyspace handles 26-character Crockford base-32 string keys whose
// natural string ordering is also their semantic ordering.
type ulidKeyspace struct{}

func (ulidKeyspace) Kind() Kind { return ULID }

func (ulidKeyspace) Min() Key {
	return Key{kind: ULID, str: minULID}
}

func (ulidKeyspace) Parse(v any) (Key, error) {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case []byte:
		s = string(val)
	default:
		return Key{}, fmt.Errorf("%w: %T is not a ULID key", ErrUnsupported, v)
	}
	if !isULID(s) {
		return Key{}, fmt.Errorf("%w: %q is not a ULID", ErrUnsupported, s)
	}
	return Key{kind: ULID, str: s}, nil
}

// Predecessor saturates to the domain minimum; there is no meaningful
// "ULID minus one".
func (ulidKeyspace) Predecessor(k Key) Key {
	mustBeULID(k)
	return Key{kind: ULID, str: minULID}
}

func (ulidKeyspace) Continue(current, max Key) bool {
	mustBeULID(current)
	mustBeULID(max)
	return current.str < max.str
}

// BatchCount is unknowable: the domain has no subtraction. Callers must
// not print a total.
func (ulidKeyspace) BatchCount(_, _ Key, _ int64) (int64, bool) {
	return 0, false
}

// Condition is open-ended; string ranges cannot be bounded by
// arithmetic, so the caller must pair it with ORDER BY key LIMIT n.
func (ulidKeyspace) Condition(column string, start Key, _ int64, inclusive bool) Condition {
	mustBeULID(start)

	op := ">"
	if inclusive {
		op = ">="
	}
	return Condition{
		SQL:     fmt.Sprintf("%s %s ?", database.QuoteIdent(column), op),
		Args:    []any{start.str},
		Limited: true,
	}
}

// NextCursor finds the maximum key among the next batchSize rows
// ordered by key. The round trip is unavoidable: the string domain
// cannot predict its own stride. When no rows remain the cursor is
// returned unchanged and the zero-insert rule ends the run.
func (ulidKeyspace) NextCursor(ctx context.Context, db *gorm.DB, src Source, current Key, batchSize int64, inclusive bool) (Key, error) {
	mustBeULID(current)

	cond := ulidKeyspace{}.Condition(src.Column, current, batchSize, inclusive)
	where := cond.SQL
	args := cond.Args
	if src.Where != "" {
		where += " AND " + src.Where
		args = append(args, src.Args...)
	}

	column := database.QuoteIdent(src.Column)
	query := fmt.Sprintf(
		"SELECT MAX(k) FROM (SELECT %s AS k FROM %s WHERE %s ORDER BY %s LIMIT %d) sub",
		column, src.Table.Ident(), where, column, batchSize,
	)

	var next sql.NullString
	row := db.WithContext(ctx).Raw(query, args...).Row()
	if err := row.Scan(&next); err != nil {
		return Key{}, fmt.Errorf("failed to advance cursor on %s: %w", src.Table, err)
	}
	if !next.Valid {
		return current, nil
	}
	return ulidKeyspace{}.Parse(next.String)
}

func isULID(s string) bool {
	if len(s) != ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(s)
	return err == nil
}

func mustBeULID(k Key) {
	if k.kind != ULID {
		panic(fmt.Sprintf("keyspace: ulid operation on %q key", k.kind))
	}
}
