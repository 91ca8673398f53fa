// Package lock serializes identical operations on the same table using
// PostgreSQL advisory locks.
//
// An advisory lock is session scoped, so the guard pins one pooled
// connection for its lifetime; releasing the lock returns the
// connection to the pool. Distinct operations (say, a fill and a sync)
// key differently and may run concurrently.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pgslice/core/database"

	"gorm.io/gorm"
)

// ErrHeld is returned when another session already holds the lock for
// the same operation and table.
var ErrHeld = errors.New("operation already running")

// Guard holds one advisory lock on a dedicated session.
type Guard struct {
	conn *sql.Conn
	key  string
}

// Acquire takes the advisory lock for an operation on a table, without
// blocking. The key is hashed server side so its length is unbounded.
func Acquire(ctx context.Context, db *gorm.DB, operation string, t database.Table) (*Guard, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, err
	}

	key := operation + ":" + t.String()
	var locked bool
	if err := conn.QueryRowContext(ctx,
		"SELECT pg_try_advisory_lock(hashtext($1)::bigint)", key,
	).Scan(&locked); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to acquire lock for %s: %w", key, err)
	}
	if !locked {
		conn.Close()
		return nil, fmt.Errorf("%w: %s on %s", ErrHeld, operation, t)
	}

	return &Guard{conn: conn, key: key}, nil
}

// Release drops the lock and returns the session to the pool.
func (g *Guard) Release(ctx context.Context) error {
	_, err := g.conn.ExecContext(ctx, "SELECT pg_advisory_unlock(hashtext($1)::bigint)", g.key)
	closeErr := g.conn.Close()
	if err != nil {
		return err
	}
	return closeErr
}
