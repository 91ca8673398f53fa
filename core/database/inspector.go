package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNoPrimaryKey is returned when a table has no primary key and no
// explicit key column was supplied.
var ErrNoPrimaryKey = errors.New("no primary key")

// ErrCompositePrimaryKey is returned for multi-column primary keys,
// which the batch engines do not support.
var ErrCompositePrimaryKey = errors.New("composite primary key")

// Column describes one table column as declared in the catalog.
type Column struct {
	Name string
	// Type is the declared data type, e.g. "bigint", "timestamp with time zone".
	Type string
}

// Inspector reads table metadata from the PostgreSQL system catalogs.
type Inspector struct {
	db *gorm.DB
}

// NewInspector creates an inspector bound to a connection.
func NewInspector(db *gorm.DB) *Inspector {
	return &Inspector{db: db}
}

// Exists reports whether the table exists.
func (i *Inspector) Exists(ctx context.Context, t Table) (bool, error) {
	var count int64
	err := i.db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ? AND table_name = ?",
		t.Schema, t.Name,
	).Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existence of %s: %w", t, err)
	}
	return count > 0, nil
}

// Columns retrieves the ordered non-generated columns of a table with
// their declared types. Generated columns are excluded because they
// cannot be inserted into and are recomputed by the destination.
func (i *Inspector) Columns(ctx context.Context, t Table) ([]Column, error) {
	rows, err := i.db.WithContext(ctx).Raw(
		`SELECT column_name, data_type FROM information_schema.columns
		 WHERE table_schema = ? AND table_name = ? AND is_generated = 'NEVER'
		 ORDER BY ordinal_position`,
		t.Schema, t.Name,
	).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", t, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", t, err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// PrimaryKey retrieves the single primary key column of a table.
// Tables without a primary key, or with a composite one, are rejected.
func (i *Inspector) PrimaryKey(ctx context.Context, t Table) (string, error) {
	rows, err := i.db.WithContext(ctx).Raw(
		`SELECT a.attname
		 FROM pg_index i
		 JOIN pg_class c ON c.oid = i.indrelid
		 JOIN pg_namespace n ON n.oid = c.relnamespace
		 JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = ANY(i.indkey)
		 WHERE i.indisprimary AND n.nspname = ? AND c.relname = ?
		 ORDER BY a.attnum`,
		t.Schema, t.Name,
	).Rows()
	if err != nil {
		return "", fmt.Errorf("failed to get primary key for %s: %w", t, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", fmt.Errorf("failed to scan primary key of %s: %w", t, err)
		}
		keys = append(keys, name)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(keys) {
	case 0:
		return "", fmt.Errorf("%w on %s", ErrNoPrimaryKey, t)
	case 1:
		return keys[0], nil
	default:
		return "", fmt.Errorf("%w on %s: %v", ErrCompositePrimaryKey, t, keys)
	}
}

// Partitions lists the child partitions of a table, ordered by name.
// Suffix-named partitions therefore come back in chronological order.
func (i *Inspector) Partitions(ctx context.Context, t Table) ([]Table, error) {
	rows, err := i.db.WithContext(ctx).Raw(
		`SELECT n.nspname, c.relname
		 FROM pg_inherits i
		 JOIN pg_class c ON c.oid = i.inhrelid
		 JOIN pg_namespace n ON n.oid = c.relnamespace
		 JOIN pg_class p ON p.oid = i.inhparent
		 JOIN pg_namespace pn ON pn.oid = p.relnamespace
		 WHERE pn.nspname = ? AND p.relname = ?
		 ORDER BY c.relname`,
		t.Schema, t.Name,
	).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions of %s: %w", t, err)
	}
	defer rows.Close()

	var partitions []Table
	for rows.Next() {
		var p Table
		if err := rows.Scan(&p.Schema, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan partition of %s: %w", t, err)
		}
		partitions = append(partitions, p)
	}
	return partitions, rows.Err()
}

// Comment retrieves the table-level comment, or "" if none is set.
func (i *Inspector) Comment(ctx context.Context, t Table) (string, error) {
	var comment sql.NullString
	row := i.db.WithContext(ctx).Raw(
		`SELECT obj_description(c.oid, 'pg_class')
		 FROM pg_class c
		 JOIN pg_namespace n ON n.oid = c.relnamespace
		 WHERE n.nspname = ? AND c.relname = ?`,
		t.Schema, t.Name,
	).Row()
	if err := row.Scan(&comment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get comment of %s: %w", t, err)
	}
	return comment.String, nil
}

// MaxKey returns the largest value of a column among rows matching the
// optional condition, or ok=false when no rows match. The raw driver
// value is returned for the caller's keyspace to interpret.
func (i *Inspector) MaxKey(ctx context.Context, t Table, column, where string, args []any) (any, bool, error) {
	return i.extremum(ctx, t, column, "DESC", where, args)
}

// MinKey returns the smallest value of a column among rows matching the
// optional condition, or ok=false when no rows match.
func (i *Inspector) MinKey(ctx context.Context, t Table, column, where string, args []any) (any, bool, error) {
	return i.extremum(ctx, t, column, "ASC", where, args)
}

func (i *Inspector) extremum(ctx context.Context, t Table, column, direction, where string, args []any) (any, bool, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", QuoteIdent(column), t.Ident())
	if where != "" {
		query += " WHERE " + where
	}
	query += fmt.Sprintf(" ORDER BY %s %s LIMIT 1", QuoteIdent(column), direction)

	var value any
	row := i.db.WithContext(ctx).Raw(query, args...).Row()
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s extremum of %s: %w", column, t, err)
	}
	if value == nil {
		return nil, false, nil
	}
	return value, true, nil
}
