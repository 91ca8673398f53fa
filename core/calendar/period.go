package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Period is the partition granularity.
type Period int

const (
	// Day partitions hold one UTC day each.
	Day Period = iota
	// Month partitions hold one UTC calendar month each.
	Month
	// Year partitions hold one UTC calendar year each.
	Year
)

// ParsePeriod parses a period name (day, month, year).
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(s) {
	case "day":
		return Day, nil
	case "month":
		return Month, nil
	case "year":
		return Year, nil
	default:
		return 0, fmt.Errorf("unknown period: %q (expected day, month, or year)", s)
	}
}

// String returns the period name.
func (p Period) String() string {
	switch p {
	case Day:
		return "day"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return fmt.Sprintf("Period(%d)", int(p))
	}
}

// Floor rounds t down to the start of its period, in UTC.
func (p Period) Floor(t time.Time) time.Time {
	t = t.UTC()
	switch p {
	case Day:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Month:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
}

// Add shifts a period-aligned time by n periods.
func (p Period) Add(t time.Time, n int) time.Time {
	switch p {
	case Day:
		return t.AddDate(0, 0, n)
	case Month:
		return t.AddDate(0, n, 0)
	default:
		return t.AddDate(n, 0, 0)
	}
}

// Suffix encodes the start of a period as a partition name suffix:
// YYYYMMDD for day, YYYYMM for month, YYYY for year.
func (p Period) Suffix(t time.Time) string {
	switch p {
	case Day:
		return t.UTC().Format("20060102")
	case Month:
		return t.UTC().Format("200601")
	default:
		return t.UTC().Format("2006")
	}
}

// ParseSuffix decodes a partition name suffix back into the period start.
func (p Period) ParseSuffix(s string) (time.Time, error) {
	var layout string
	switch p {
	case Day:
		layout = "20060102"
	case Month:
		layout = "200601"
	default:
		layout = "2006"
	}
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s partition suffix %q: %w", p, s, err)
	}
	return t, nil
}
