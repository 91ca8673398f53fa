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
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func partitionRows(names ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"nspname", "relname"})
	for _, n := range names {
		rows.AddRow("public", n)
	}
	return rows
}

func TestDeriveTimeFilterSpansAllPartitions(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT n\.nspname, c\.relname`).
		WithArgs("public", "events").
		WillReturnRows(partitionRows("events_202601", "events_202602", "events_202603"))

	s := &Settings{Column: "created_at", Period: calendar.Month, Cast: "timestamptz"}
	f, err := DeriveTimeFilter(context.Background(), database.NewInspector(db), database.Table{Schema: "public", Name: "events"}, s)
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), f.Start)
	// End is the first instant the newest partition cannot hold.
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), f.End)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeriveTimeFilterIgnoresUnsuffixedChildren(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT n\.nspname, c\.relname`).
		WillReturnRows(partitionRows("events_default", "events_20260115", "other_20260120"))

	s := &Settings{Column: "created_at", Period: calendar.Day, Cast: "date"}
	f, err := DeriveTimeFilter(context.Background(), database.NewInspector(db), database.Table{Schema: "public", Name: "events"}, s)
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), f.Start)
	assert.Equal(t, time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC), f.End)
}

func TestDeriveTimeFilterNoPartitions(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT n\.nspname, c\.relname`).
		WillReturnRows(partitionRows())

	s := &Settings{Column: "created_at", Period: calendar.Month, Cast: "timestamptz"}
	f, err := DeriveTimeFilter(context.Background(), database.NewInspector(db), database.Table{Schema: "public", Name: "events"}, s)
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestTimeFilterCondition(t *testing.T) {
	f := &TimeFilter{
		Column: "created_at",
		Cast:   "timestamptz",
		Start:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}

	cond, args := f.Condition()
	assert.Equal(t, `"created_at" >= ? AND "created_at" < ?`, cond)
	assert.Equal(t, []any{"2026-01-01 00:00:00 UTC", "2026-04-01 00:00:00 UTC"}, args)
}

func TestTimeFilterConditionDateCast(t *testing.T) {
	f := &TimeFilter{
		Column: "occurred_on",
		Cast:   "date",
		Start:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	_, args := f.Condition()
	assert.Equal(t, []any{"2026-01-01", "2026-02-01"}, args)
}
