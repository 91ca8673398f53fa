package syncer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pgslice/core/database"

	"gorm.io/gorm"
)

// ErrEmptySource is returned when the source table has no rows at all.
// That is almost always a misconfiguration, not "nothing to do".
var ErrEmptySource = errors.New("source table is empty")

// ErrSchemaMismatch is returned when source and target disagree on the
// column set.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Config describes one synchronize invocation.
type Config struct {
	// Source is the table whose contents are authoritative.
	Source database.Table
	// Target is the table being made to match the source.
	Target database.Table
	// KeyColumn is the single primary key column (or an explicit
	// override supplied by the caller).
	KeyColumn string
	// WindowSize is the number of source rows fetched per window.
	WindowSize int64
	// Start is an optional raw key value to begin from; the first
	// window is then inclusive of it.
	Start any
	// DryRun counts what would change without mutating the target.
	DryRun bool
}

// WindowResult reports one processed window.
type WindowResult struct {
	// Batch is the 1-based window number.
	Batch int
	// Duration is the wall time the window took.
	Duration time.Duration
	// StartKey and EndKey bound the window, both inclusive.
	StartKey string
	EndKey   string

	RowsCompared int64
	Matching     int64
	Inserted     int64
	Updated      int64
	Deleted      int64
}

// Synchronizer makes a target table's contents match a source table's,
// via per-row INSERT, UPDATE, and DELETE, processing the source in
// ascending-key windows. Deletions are only computed for target rows
// whose key falls inside the currently fetched window, which bounds
// their cost and never requires a full-table scan of the target.
type Synchronizer struct {
	db  *gorm.DB
	cfg Config

	columns []database.Column

	cursor    any
	inclusive bool
	batch     int
	done      bool
}

// New validates the table pair and constructs a synchronizer. A missing
// or composite primary key, a column set mismatch, and an empty source
// are all fatal here, before any window executes.
func New(ctx context.Context, db *gorm.DB, cfg Config) (*Synchronizer, error) {
	if cfg.WindowSize <= 0 {
		return nil, fmt.Errorf("sync %s: window size must be positive", cfg.Target)
	}

	insp := database.NewInspector(db)

	srcCols, err := insp.Columns(ctx, cfg.Source)
	if err != nil {
		return nil, err
	}
	tgtCols, err := insp.Columns(ctx, cfg.Target)
	if err != nil {
		return nil, err
	}
	if err := matchColumns(cfg.Source, srcCols, cfg.Target, tgtCols); err != nil {
		return nil, err
	}

	hasKey := false
	for _, c := range tgtCols {
		if c.Name == cfg.KeyColumn {
			hasKey = true
			break
		}
	}
	if !hasKey {
		return nil, fmt.Errorf("key column %q not found on %s", cfg.KeyColumn, cfg.Target)
	}

	var one int
	row := db.WithContext(ctx).Raw(
		fmt.Sprintf("SELECT 1 FROM %s LIMIT 1", cfg.Source.Ident()),
	).Row()
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrEmptySource, cfg.Source)
		}
		return nil, fmt.Errorf("failed to probe %s: %w", cfg.Source, err)
	}

	s := &Synchronizer{db: db, cfg: cfg, columns: tgtCols}
	if cfg.Start != nil {
		s.cursor = cfg.Start
		s.inclusive = true
	}
	return s, nil
}

// Next processes one window and returns its result, or (nil, nil) when
// the source is exhausted at or past the cursor.
func (s *Synchronizer) Next(ctx context.Context) (*WindowResult, error) {
	if s.done {
		return nil, nil
	}
	started := time.Now()

	srcRows, err := s.fetchSourceWindow(ctx)
	if err != nil {
		return nil, err
	}
	if len(srcRows) == 0 {
		s.done = true
		return nil, nil
	}

	key := s.cfg.KeyColumn
	firstKey := srcRows[0][key]
	lastKey := srcRows[len(srcRows)-1][key]

	tgtRows, err := s.fetchTargetRange(ctx, firstKey, lastKey)
	if err != nil {
		return nil, err
	}

	tgtByKey := make(map[string]map[string]any, len(tgtRows))
	for _, row := range tgtRows {
		tgtByKey[canonical(row[key])] = row
	}

	srcKeys := make(map[string]struct{}, len(srcRows))
	var inserts, updates []map[string]any
	var matching int64
	for _, row := range srcRows {
		ck := canonical(row[key])
		srcKeys[ck] = struct{}{}

		existing, ok := tgtByKey[ck]
		switch {
		case !ok:
			inserts = append(inserts, row)
		case s.differs(row, existing):
			updates = append(updates, row)
		default:
			matching++
		}
	}

	// Deletions are bounded to [firstKey, lastKey] by construction:
	// only target rows fetched for this window are candidates.
	var deleteKeys []any
	for _, row := range tgtRows {
		if _, ok := srcKeys[canonical(row[key])]; !ok {
			deleteKeys = append(deleteKeys, row[key])
		}
	}

	if !s.cfg.DryRun {
		if err := s.apply(ctx, inserts, updates, deleteKeys); err != nil {
			return nil, fmt.Errorf("sync %s window %d: %w", s.cfg.Target, s.batch+1, err)
		}
	}

	s.batch++
	s.cursor = lastKey
	s.inclusive = false
	if int64(len(srcRows)) < s.cfg.WindowSize {
		s.done = true
	}

	return &WindowResult{
		Batch:        s.batch,
		Duration:     time.Since(started),
		StartKey:     canonical(firstKey),
		EndKey:       canonical(lastKey),
		RowsCompared: int64(len(srcRows)),
		Matching:     matching,
		Inserted:     int64(len(inserts)),
		Updated:      int64(len(updates)),
		Deleted:      int64(len(deleteKeys)),
	}, nil
}

// Run consumes the window sequence, handing each result to emit.
func (s *Synchronizer) Run(ctx context.Context, emit func(*WindowResult) error) error {
	for {
		res, err := s.Next(ctx)
		if err != nil {
			return err
		}
		if res == nil {
			return nil
		}
		if emit != nil {
			if err := emit(res); err != nil {
				return err
			}
		}
	}
}

func (s *Synchronizer) fetchSourceWindow(ctx context.Context) ([]map[string]any, error) {
	keyIdent := database.QuoteIdent(s.cfg.KeyColumn)
	query := fmt.Sprintf("SELECT %s FROM %s", s.columnList(), s.cfg.Source.Ident())

	var args []any
	if s.cursor != nil {
		op := ">"
		if s.inclusive {
			op = ">="
		}
		query += fmt.Sprintf(" WHERE %s %s ?", keyIdent, op)
		args = append(args, s.cursor)
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT %d", keyIdent, s.cfg.WindowSize)

	return s.scan(ctx, query, args)
}

func (s *Synchronizer) fetchTargetRange(ctx context.Context, first, last any) ([]map[string]any, error) {
	keyIdent := database.QuoteIdent(s.cfg.KeyColumn)
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s >= ? AND %s <= ?",
		s.columnList(), s.cfg.Target.Ident(), keyIdent, keyIdent,
	)
	return s.scan(ctx, query, []any{first, last})
}

func (s *Synchronizer) scan(ctx context.Context, query string, args []any) ([]map[string]any, error) {
	rows, err := s.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			row[name] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// differs compares all shared columns of one row pair.
func (s *Synchronizer) differs(src, tgt map[string]any) bool {
	for _, c := range s.columns {
		if canonical(src[c.Name]) != canonical(tgt[c.Name]) {
			return true
		}
	}
	return false
}

// apply executes the window's mutations in one transaction.
func (s *Synchronizer) apply(ctx context.Context, inserts, updates []map[string]any, deleteKeys []any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range inserts {
			query, args, err := s.insertSQL(row)
			if err != nil {
				return err
			}
			if err := tx.Exec(query, args...).Error; err != nil {
				return err
			}
		}

		for _, row := range updates {
			query, args, err := s.updateSQL(row)
			if err != nil {
				return err
			}
			if err := tx.Exec(query, args...).Error; err != nil {
				return err
			}
		}

		if len(deleteKeys) > 0 {
			query := fmt.Sprintf(
				"DELETE FROM %s WHERE %s IN ?",
				s.cfg.Target.Ident(), database.QuoteIdent(s.cfg.KeyColumn),
			)
			if err := tx.Exec(query, deleteKeys).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Synchronizer) insertSQL(row map[string]any) (string, []any, error) {
	names := make([]string, len(s.columns))
	marks := make([]string, len(s.columns))
	args := make([]any, len(s.columns))
	for i, c := range s.columns {
		v, err := encodeValue(row[c.Name], c.Type)
		if err != nil {
			return "", nil, fmt.Errorf("column %s.%s: %w", s.cfg.Target, c.Name, err)
		}
		names[i] = database.QuoteIdent(c.Name)
		marks[i] = "?"
		args[i] = v
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		s.cfg.Target.Ident(), strings.Join(names, ", "), strings.Join(marks, ", "),
	)
	return query, args, nil
}

func (s *Synchronizer) updateSQL(row map[string]any) (string, []any, error) {
	var sets []string
	var args []any
	for _, c := range s.columns {
		if c.Name == s.cfg.KeyColumn {
			continue
		}
		v, err := encodeValue(row[c.Name], c.Type)
		if err != nil {
			return "", nil, fmt.Errorf("column %s.%s: %w", s.cfg.Target, c.Name, err)
		}
		sets = append(sets, database.QuoteIdent(c.Name)+" = ?")
		args = append(args, v)
	}
	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = ?",
		s.cfg.Target.Ident(), strings.Join(sets, ", "), database.QuoteIdent(s.cfg.KeyColumn),
	)
	args = append(args, row[s.cfg.KeyColumn])
	return query, args, nil
}

func (s *Synchronizer) columnList() string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = database.QuoteIdent(c.Name)
	}
	return strings.Join(names, ", ")
}

// matchColumns rejects a column present on one side but not the other.
func matchColumns(src database.Table, srcCols []database.Column, tgt database.Table, tgtCols []database.Column) error {
	srcSet := make(map[string]struct{}, len(srcCols))
	for _, c := range srcCols {
		srcSet[c.Name] = struct{}{}
	}
	tgtSet := make(map[string]struct{}, len(tgtCols))
	for _, c := range tgtCols {
		tgtSet[c.Name] = struct{}{}
	}

	for _, c := range srcCols {
		if _, ok := tgtSet[c.Name]; !ok {
			return fmt.Errorf("%w: column %s.%s missing on %s", ErrSchemaMismatch, src, c.Name, tgt)
		}
	}
	for _, c := range tgtCols {
		if _, ok := srcSet[c.Name]; !ok {
			return fmt.Errorf("%w: column %s.%s missing on %s", ErrSchemaMismatch, tgt, c.Name, src)
		}
	}
	return nil
}
