package database

import (
	"context"
	"testing"

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

var events = Table{Schema: "public", Name: "events"}

func TestExists(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM information_schema\.tables`).
		WithArgs("public", "events").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := NewInspector(db).Exists(context.Background(), events)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM information_schema\.tables`).
		WithArgs("public", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err = NewInspector(db).Exists(context.Background(), Table{Schema: "public", Name: "missing"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumns(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT column_name, data_type FROM information_schema\.columns`).
		WithArgs("public", "events").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("id", "bigint").
			AddRow("created_at", "timestamp with time zone").
			AddRow("payload", "jsonb"))

	cols, err := NewInspector(db).Columns(context.Background(), events)
	require.NoError(t, err)

	assert.Equal(t, []Column{
		{Name: "id", Type: "bigint"},
		{Name: "created_at", Type: "timestamp with time zone"},
		{Name: "payload", Type: "jsonb"},
	}, cols)
}

func TestPrimaryKey(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT a\.attname`).
		WithArgs("public", "events").
		WillReturnRows(sqlmock.NewRows([]string{"attname"}).AddRow("id"))

	key, err := NewInspector(db).PrimaryKey(context.Background(), events)
	require.NoError(t, err)
	assert.Equal(t, "id", key)
}

func TestPrimaryKeyMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT a\.attname`).
		WillReturnRows(sqlmock.NewRows([]string{"attname"}))

	_, err := NewInspector(db).PrimaryKey(context.Background(), events)
	assert.ErrorIs(t, err, ErrNoPrimaryKey)
}

func TestPrimaryKeyComposite(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT a\.attname`).
		WillReturnRows(sqlmock.NewRows([]string{"attname"}).AddRow("tenant_id").AddRow("id"))

	_, err := NewInspector(db).PrimaryKey(context.Background(), events)
	assert.ErrorIs(t, err, ErrCompositePrimaryKey)
}

func TestPartitions(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT n\.nspname, c\.relname`).
		WithArgs("public", "events").
		WillReturnRows(sqlmock.NewRows([]string{"nspname", "relname"}).
			AddRow("public", "events_202601").
			AddRow("public", "events_202602"))

	parts, err := NewInspector(db).Partitions(context.Background(), events)
	require.NoError(t, err)

	assert.Equal(t, []Table{
		{Schema: "public", Name: "events_202601"},
		{Schema: "public", Name: "events_202602"},
	}, parts)
}

func TestComment(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT obj_description`).
		WithArgs("public", "events").
		WillReturnRows(sqlmock.NewRows([]string{"obj_description"}).
			AddRow("column:created_at,period:month,cast:timestamptz,version:3"))

	comment, err := NewInspector(db).Comment(context.Background(), events)
	require.NoError(t, err)
	assert.Equal(t, "column:created_at,period:month,cast:timestamptz,version:3", comment)
}

func TestCommentAbsent(t *testing.T) {
	db, mock := setupMockDB(t)

	// No comment set: obj_description yields NULL.
	mock.ExpectQuery(`SELECT obj_description`).
		WillReturnRows(sqlmock.NewRows([]string{"obj_description"}).AddRow(nil))

	comment, err := NewInspector(db).Comment(context.Background(), events)
	require.NoError(t, err)
	assert.Equal(t, "", comment)

	// Table not visible at all: no row.
	mock.ExpectQuery(`SELECT obj_description`).
		WillReturnRows(sqlmock.NewRows([]string{"obj_description"}))

	comment, err = NewInspector(db).Comment(context.Background(), events)
	require.NoError(t, err)
	assert.Equal(t, "", comment)
}

func TestMaxKey(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT "id" FROM "public"\."events" ORDER BY "id" DESC LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	v, ok, err := NewInspector(db).MaxKey(context.Background(), events, "id", "", nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(42), v)
}

func TestMinKeyWithCondition(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT "id" FROM "public"\."events" WHERE "created_at" >= \$1 AND "created_at" < \$2 ORDER BY "id" ASC LIMIT 1`).
		WithArgs("2026-01-01 00:00:00 UTC", "2026-04-01 00:00:00 UTC").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	v, ok, err := NewInspector(db).MinKey(context.Background(), events, "id",
		`"created_at" >= ? AND "created_at" < ?`,
		[]any{"2026-01-01 00:00:00 UTC", "2026-04-01 00:00:00 UTC"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(7), v)
}

func TestMaxKeyEmptyTable(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT "id" FROM "public"\."events" ORDER BY "id" DESC LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, ok, err := NewInspector(db).MaxKey(context.Background(), events, "id", "", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
