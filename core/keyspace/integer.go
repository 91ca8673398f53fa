package keyspace

import (
	"context"
	"fmt"
	"math/big"

	"pgslice/core/database"

	"gorm.io/gorm"
)

// integerKeyspace handles auto-incrementing integral keys. Values are
// arbitrary precision so numeric identity columns beyond int64 still
// work.
type integerKeyspace struct{}

func (integerKeyspace) Kind() Kind { return Integer }

func (integerKeyspace) Min() Key {
	return Key{kind: Integer, num: big.NewInt(1)}
}

func (integerKeyspace) Parse(v any) (Key, error) {
	switch val := v.(type) {
	case int64:
		return Key{kind: Integer, num: big.NewInt(val)}, nil
	case int:
		return Key{kind: Integer, num: big.NewInt(int64(val))}, nil
	case int32:
		return Key{kind: Integer, num: big.NewInt(int64(val))}, nil
	case uint64:
		return Key{kind: Integer, num: new(big.Int).SetUint64(val)}, nil
	case []byte:
		return parseDecimal(string(val))
	case string:
		return parseDecimal(val)
	default:
		return Key{}, fmt.Errorf("%w: %T is not an integral key", ErrUnsupported, v)
	}
}

func parseDecimal(s string) (Key, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return Key{}, fmt.Errorf("%w: %q is not a non-negative integer", ErrUnsupported, s)
	}
	return Key{kind: Integer, num: n}, nil
}

func (integerKeyspace) Predecessor(k Key) Key {
	mustBeInteger(k)
	return Key{kind: Integer, num: new(big.Int).Sub(k.num, big.NewInt(1))}
}

func (integerKeyspace) Continue(current, max Key) bool {
	mustBeInteger(current)
	mustBeInteger(max)
	return current.num.Cmp(max.num) < 0
}

func (integerKeyspace) BatchCount(start, max Key, batchSize int64) (int64, bool) {
	mustBeInteger(start)
	mustBeInteger(max)

	remaining := new(big.Int).Sub(max.num, start.num)
	if remaining.Sign() <= 0 {
		return 0, true
	}

	// ceil(remaining / batchSize)
	size := big.NewInt(batchSize)
	q, r := new(big.Int).QuoRem(remaining, size, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q.Int64(), true
}

func (integerKeyspace) Condition(column string, start Key, batchSize int64, inclusive bool) Condition {
	mustBeInteger(start)

	op := ">"
	if inclusive {
		op = ">="
	}
	upper := new(big.Int).Add(start.num, big.NewInt(batchSize))
	end := Key{kind: Integer, num: upper}

	return Condition{
		SQL:  fmt.Sprintf("%s %s ? AND %s <= ?", database.QuoteIdent(column), op, database.QuoteIdent(column)),
		Args: []any{start.Arg(), end.Arg()},
	}
}

// NextCursor advances by pure arithmetic; the integer domain can
// predict its own stride without a round trip.
func (integerKeyspace) NextCursor(_ context.Context, _ *gorm.DB, _ Source, current Key, batchSize int64, _ bool) (Key, error) {
	mustBeInteger(current)
	return Key{kind: Integer, num: new(big.Int).Add(current.num, big.NewInt(batchSize))}, nil
}

func mustBeInteger(k Key) {
	if k.kind != Integer {
		panic(fmt.Sprintf("keyspace: integer operation on %q key", k.kind))
	}
}
