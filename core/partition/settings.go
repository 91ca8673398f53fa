package partition

import (
	"fmt"
	"strconv"
	"strings"

	"pgslice/core/calendar"
)

// Version is the settings record version written on newly prepared
// tables.
const Version = 3

// Settings is the partitioning configuration recovered from a
// table-level comment in the form
// column:<name>,period:<day|month|year>,cast:<date|timestamptz>,version:<n>.
type Settings struct {
	// Column is the time column partitions range over.
	Column string
	// Period is the partition granularity.
	Period calendar.Period
	// Cast is the boundary literal kind: date or timestamptz.
	Cast string
	// Version is the settings record version.
	Version int
}

// ParseComment parses a settings record from a table comment.
func ParseComment(comment string) (*Settings, error) {
	if comment == "" {
		return nil, fmt.Errorf("no settings comment found")
	}

	fields := make(map[string]string)
	for _, pair := range strings.Split(comment, ",") {
		k, v, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("malformed settings comment %q", comment)
		}
		fields[k] = v
	}

	s := &Settings{Column: fields["column"], Cast: fields["cast"]}
	if s.Column == "" {
		return nil, fmt.Errorf("settings comment %q is missing column", comment)
	}

	period, err := calendar.ParsePeriod(fields["period"])
	if err != nil {
		return nil, fmt.Errorf("settings comment %q: %w", comment, err)
	}
	s.Period = period

	switch s.Cast {
	case "date", "timestamptz":
	default:
		return nil, fmt.Errorf("settings comment %q has unsupported cast %q", comment, s.Cast)
	}

	if v := fields["version"]; v != "" {
		s.Version, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("settings comment %q has invalid version: %w", comment, err)
		}
	}

	return s, nil
}

// Comment renders the settings back into the comment form.
func (s *Settings) Comment() string {
	return fmt.Sprintf("column:%s,period:%s,cast:%s,version:%d", s.Column, s.Period, s.Cast, s.Version)
}
