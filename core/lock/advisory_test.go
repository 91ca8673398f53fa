package lock

import (
	"context"
	"testing"

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

var events = database.Table{Schema: "public", Name: "events"}

func TestAcquireAndRelease(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT pg_try_advisory_lock\(hashtext\(\$1\)::bigint\)`).
		WithArgs("fill:public.events").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec(`SELECT pg_advisory_unlock\(hashtext\(\$1\)::bigint\)`).
		WithArgs("fill:public.events").
		WillReturnResult(sqlmock.NewResult(0, 0))

	guard, err := Acquire(context.Background(), db, "fill", events)
	require.NoError(t, err)
	require.NotNil(t, guard)

	assert.NoError(t, guard.Release(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireContended(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT pg_try_advisory_lock\(hashtext\(\$1\)::bigint\)`).
		WithArgs("sync:public.events").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	_, err := Acquire(context.Background(), db, "sync", events)
	assert.ErrorIs(t, err, ErrHeld)
	assert.NoError(t, mock.ExpectationsWereMet())
}
