package partition

import (
	"testing"

	"pgslice/core/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComment(t *testing.T) {
	s, err := ParseComment("column:created_at,period:month,cast:timestamptz,version:3")
	require.NoError(t, err)

	assert.Equal(t, "created_at", s.Column)
	assert.Equal(t, calendar.Month, s.Period)
	assert.Equal(t, "timestamptz", s.Cast)
	assert.Equal(t, 3, s.Version)
}

func TestParseCommentRoundTrip(t *testing.T) {
	s := &Settings{Column: "occurred_on", Period: calendar.Day, Cast: "date", Version: Version}

	parsed, err := ParseComment(s.Comment())
	require.NoError(t, err)
	assert.Equal(t, s, parsed)
}

func TestParseCommentErrors(t *testing.T) {
	tests := []struct {
		name    string
		comment string
	}{
		{"empty", ""},
		{"unrelated comment", "user accounts table"},
		{"missing column", "period:month,cast:date,version:3"},
		{"bad period", "column:created_at,period:fortnight,cast:date,version:3"},
		{"bad cast", "column:created_at,period:month,cast:epoch,version:3"},
		{"bad version", "column:created_at,period:month,cast:date,version:x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseComment(tt.comment)
			assert.Error(t, err)
		})
	}
}
