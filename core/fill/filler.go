package fill

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pgslice/core/database"
	"pgslice/core/keyspace"
	"pgslice/core/partition"

	"gorm.io/gorm"
)

// Config describes one fill invocation, built from a snapshot of table
// metadata.
type Config struct {
	// Source is the table rows are read from.
	Source database.Table
	// Dest is the table rows are written to.
	Dest database.Table
	// Columns is the ordered non-generated column list shared by both
	// tables.
	Columns []string
	// KeyColumn is the single primary key column.
	KeyColumn string
	// Keyspace is the comparator for the key column's domain.
	Keyspace keyspace.Keyspace
	// BatchSize is the number of rows per batch.
	BatchSize int64
	// Start is an explicit resume key. The first batch is then
	// inclusive of it. When nil, resumption is derived from the
	// destination's observed state.
	Start *keyspace.Key
	// TimeFilter restricts the copy to the span the destination's
	// partitions can accept. May be nil.
	TimeFilter *partition.TimeFilter
	// Sleep is an optional cooperative pause between batch commits.
	Sleep time.Duration
}

// BatchResult reports one committed batch.
type BatchResult struct {
	// Batch is the 1-based batch number.
	Batch int
	// TotalBatches is the estimated batch count for the run.
	// TotalKnown is false for key domains without subtraction, and
	// the total must then not be printed.
	TotalBatches int64
	TotalKnown   bool
	// Rows is the number of rows this batch inserted.
	Rows int64
	// StartKey is the batch's scan lower bound.
	StartKey keyspace.Key
	// EndKey is the cursor after the batch; the next batch scans
	// strictly above it.
	EndKey keyspace.Key
}

// Filler copies all rows from a source table to a destination table
// that have not been copied yet, in independently committed batches.
// Progress is observable solely through the destination's maximum key,
// which is also how an interrupted run resumes.
type Filler struct {
	db  *gorm.DB
	cfg Config

	cursor    keyspace.Key
	inclusive bool
	batch     int
	total     int64
	haveTotal bool
	done      bool
}

// New constructs a filler and resolves its starting cursor.
//
// Resumption policy: an explicit start key wins; otherwise the
// destination's current maximum key is treated as already copied; if
// the destination is empty the cursor seeds from the predecessor of the
// source's first key so the first batch includes it. A source with no
// rows in range produces a filler that is already done.
func New(ctx context.Context, db *gorm.DB, cfg Config) (*Filler, error) {
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("fill %s: batch size must be positive", cfg.Dest)
	}
	if len(cfg.Columns) == 0 {
		return nil, fmt.Errorf("fill %s: no columns to copy", cfg.Dest)
	}
	if cfg.Keyspace == nil {
		return nil, fmt.Errorf("fill %s: no keyspace", cfg.Dest)
	}

	f := &Filler{db: db, cfg: cfg}
	insp := database.NewInspector(db)
	ks := cfg.Keyspace

	filterSQL, filterArgs := f.filter()

	switch {
	case cfg.Start != nil:
		f.cursor = *cfg.Start
		f.inclusive = true
	default:
		destMax, ok, err := insp.MaxKey(ctx, cfg.Dest, cfg.KeyColumn, "", nil)
		if err != nil {
			return nil, err
		}
		if ok {
			f.cursor, err = ks.Parse(destMax)
			if err != nil {
				return nil, fmt.Errorf("fill %s: %w", cfg.Dest, err)
			}
			break
		}

		srcMin, ok, err := insp.MinKey(ctx, cfg.Source, cfg.KeyColumn, filterSQL, filterArgs)
		if err != nil {
			return nil, err
		}
		if !ok {
			f.done = true
			return f, nil
		}
		first, err := ks.Parse(srcMin)
		if err != nil {
			return nil, fmt.Errorf("fill %s: %w", cfg.Source, err)
		}
		f.cursor = ks.Predecessor(first)
		// A saturating predecessor can land on the first key itself;
		// the scan must then include it.
		f.inclusive = !ks.Continue(f.cursor, first)
	}

	srcMax, ok, err := insp.MaxKey(ctx, cfg.Source, cfg.KeyColumn, filterSQL, filterArgs)
	if err != nil {
		return nil, err
	}
	if ok {
		max, err := ks.Parse(srcMax)
		if err != nil {
			return nil, fmt.Errorf("fill %s: %w", cfg.Source, err)
		}
		f.total, f.haveTotal = ks.BatchCount(f.cursor, max, cfg.BatchSize)
	}

	return f, nil
}

// Next runs one batch in its own transaction and returns its result.
// It returns (nil, nil) once a batch inserts zero rows: that, not a
// position comparison, is the authoritative termination signal, because
// ON CONFLICT DO NOTHING legitimately makes a batch a no-op when
// re-scanning already-copied rows after a resume.
func (f *Filler) Next(ctx context.Context) (*BatchResult, error) {
	if f.done {
		return nil, nil
	}

	ks := f.cfg.Keyspace
	cond := ks.Condition(f.cfg.KeyColumn, f.cursor, f.cfg.BatchSize, f.inclusive)
	where := cond.SQL
	args := cond.Args
	filterSQL, filterArgs := f.filter()
	if filterSQL != "" {
		where += " AND " + filterSQL
		args = append(args, filterArgs...)
	}

	cols := make([]string, len(f.cfg.Columns))
	for i, c := range f.cfg.Columns {
		cols[i] = database.QuoteIdent(c)
	}
	colList := strings.Join(cols, ", ")
	keyIdent := database.QuoteIdent(f.cfg.KeyColumn)

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s WHERE %s ORDER BY %s",
		f.cfg.Dest.Ident(), colList, colList, f.cfg.Source.Ident(), where, keyIdent,
	)
	if cond.Limited {
		query += fmt.Sprintf(" LIMIT %d", f.cfg.BatchSize)
	}
	query += " ON CONFLICT DO NOTHING RETURNING " + keyIdent

	inserted, err := f.runBatch(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("fill %s batch %d: %w", f.cfg.Dest, f.batch+1, err)
	}

	if inserted == 0 {
		f.done = true
		return nil, nil
	}

	start := f.cursor
	next, err := ks.NextCursor(ctx, f.db, keyspace.Source{
		Table:  f.cfg.Source,
		Column: f.cfg.KeyColumn,
		Where:  filterSQL,
		Args:   filterArgs,
	}, f.cursor, f.cfg.BatchSize, f.inclusive)
	if err != nil {
		return nil, err
	}

	f.batch++
	f.cursor = next
	f.inclusive = false

	return &BatchResult{
		Batch:        f.batch,
		TotalBatches: f.total,
		TotalKnown:   f.haveTotal,
		Rows:         inserted,
		StartKey:     start,
		EndKey:       next,
	}, nil
}

// runBatch executes the insert inside one transaction and counts the
// returned keys.
func (f *Filler) runBatch(ctx context.Context, query string, args []any) (int64, error) {
	var inserted int64

	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := tx.Raw(query, args...).Rows()
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var key any
			if err := rows.Scan(&key); err != nil {
				return err
			}
			inserted++
		}
		return rows.Err()
	})
	return inserted, err
}

// Run consumes the batch sequence, handing each result to emit and
// pausing between commits if a sleep is configured. The pause is
// interruptible; the preceding batch has already committed.
func (f *Filler) Run(ctx context.Context, emit func(*BatchResult) error) error {
	for {
		res, err := f.Next(ctx)
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
		if f.cfg.Sleep > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(f.cfg.Sleep):
			}
		}
	}
}

func (f *Filler) filter() (string, []any) {
	if f.cfg.TimeFilter == nil {
		return "", nil
	}
	return f.cfg.TimeFilter.Condition()
}
