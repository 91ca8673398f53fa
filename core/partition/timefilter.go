package partition

import (
	"context"
	"strings"
	"time"

	"pgslice/core/database"
)

// TimeFilter scopes a fill or sync so it never attempts to write rows
// the destination's partitions cannot accept. Start is inclusive, End
// exclusive.
type TimeFilter struct {
	Column string
	Cast   string
	Start  time.Time
	End    time.Time
}

// Condition returns the SQL predicate and its arguments.
func (f *TimeFilter) Condition() (string, []any) {
	col := database.QuoteIdent(f.Column)
	return col + " >= ? AND " + col + " < ?", []any{f.literal(f.Start), f.literal(f.End)}
}

func (f *TimeFilter) literal(t time.Time) string {
	if f.Cast == "date" {
		return t.UTC().Format("2006-01-02")
	}
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}

// DeriveTimeFilter computes the instant span a table's existing
// partitions can accept, from the oldest partition's start to the end
// of the newest. It returns nil when the table has no partitions.
// Partitions whose name does not carry a period suffix (e.g. a default
// partition) are ignored.
func DeriveTimeFilter(ctx context.Context, insp *database.Inspector, t database.Table, s *Settings) (*TimeFilter, error) {
	partitions, err := insp.Partitions(ctx, t)
	if err != nil {
		return nil, err
	}

	prefix := t.Name + "_"
	var oldest, newest time.Time
	found := false
	for _, p := range partitions {
		if !strings.HasPrefix(p.Name, prefix) {
			continue
		}
		start, err := s.Period.ParseSuffix(strings.TrimPrefix(p.Name, prefix))
		if err != nil {
			continue
		}
		if !found || start.Before(oldest) {
			oldest = start
		}
		if !found || start.After(newest) {
			newest = start
		}
		found = true
	}
	if !found {
		return nil, nil
	}

	return &TimeFilter{
		Column: s.Column,
		Cast:   s.Cast,
		Start:  oldest,
		End:    s.Period.Add(newest, 1),
	}, nil
}
