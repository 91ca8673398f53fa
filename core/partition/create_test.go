package partition

import (
	"context"
	"testing"
	"time"

	"pgslice/core/calendar"
	"pgslice/core/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSkipsExistingPartitions(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT n\.nspname, c\.relname`).
		WithArgs("public", "events_intermediate").
		WillReturnRows(partitionRows("events_intermediate_202601"))

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "public"\."events_intermediate_202602" PARTITION OF "public"\."events_intermediate" FOR VALUES FROM \('2026-02-01 00:00:00 UTC'\) TO \('2026-03-01 00:00:00 UTC'\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	parent := database.Table{Schema: "public", Name: "events_intermediate"}
	s := &Settings{Column: "created_at", Period: calendar.Month, Cast: "timestamptz", Version: Version}
	ranges := []calendar.Range{
		{
			Start:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			End:    time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			Suffix: "202601",
		},
		{
			Start:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			End:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			Suffix: "202602",
		},
	}

	created, err := Create(context.Background(), db, parent, s, ranges)
	require.NoError(t, err)

	require.Len(t, created, 1)
	assert.Equal(t, "events_intermediate_202602", created[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDateBoundaries(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT n\.nspname, c\.relname`).
		WillReturnRows(partitionRows())
	mock.ExpectExec(`FOR VALUES FROM \('2026-01-15'\) TO \('2026-01-16'\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	parent := database.Table{Schema: "public", Name: "events"}
	s := &Settings{Column: "occurred_on", Period: calendar.Day, Cast: "date", Version: Version}
	ranges := []calendar.Range{{
		Start:  time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC),
		Suffix: "20260115",
	}}

	created, err := Create(context.Background(), db, parent, s, ranges)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "events_20260115", created[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
