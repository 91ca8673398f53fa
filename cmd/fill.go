package cmd

import (
	"context"
	"fmt"
	"time"

	"pgslice/core/database"
	"pgslice/core/fill"
	"pgslice/core/keyspace"
	"pgslice/core/lock"
	"pgslice/core/partition"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fillTable     string
	fillBatchSize int64
	fillSwapped   bool
	fillSource    string
	fillDest      string
	fillStart     string
	fillSleep     time.Duration
)

// fillCmd copies rows into the partitioned copy in resumable batches.
var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Copy rows from the original table to the partitioned copy",
	Long: `Fill copies rows in ascending primary key order, one committed
transaction per batch, so an interrupted run can simply be re-invoked:
resumption is derived from the destination's current maximum key.

Examples:
  # Backfill the intermediate table before the swap
  pgslice fill --table events

  # Catch up rows written to the retired table after the swap
  pgslice fill --table events --swapped

  # Resume explicitly from a key
  pgslice fill --table events --start 1000000`,
	RunE: runFill,
}

func init() {
	fillCmd.Flags().StringVar(&fillTable, "table", "", "Table being converted (required)")
	fillCmd.Flags().Int64Var(&fillBatchSize, "batch-size", 10000, "Rows per batch")
	fillCmd.Flags().BoolVar(&fillSwapped, "swapped", false, "Copy from the retired table into the live one")
	fillCmd.Flags().StringVar(&fillSource, "source", "", "Override the source table")
	fillCmd.Flags().StringVar(&fillDest, "dest", "", "Override the destination table")
	fillCmd.Flags().StringVar(&fillStart, "start", "", "Explicit starting key (first batch includes it)")
	fillCmd.Flags().DurationVar(&fillSleep, "sleep", 0, "Pause between batch commits")
	_ = fillCmd.MarkFlagRequired("table")

	RootCmd.AddCommand(fillCmd)
}

func runFill(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	table := a.table(fillTable)
	source, dest := fillTables(a, table)

	for _, t := range []database.Table{source, dest} {
		exists, err := a.insp.Exists(ctx, t)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("table not found: %s", t)
		}
	}

	columns, err := a.insp.Columns(ctx, source)
	if err != nil {
		return err
	}
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}

	pk, err := a.insp.PrimaryKey(ctx, source)
	if err != nil {
		return err
	}

	ks, err := detectKeyspace(ctx, a, source, dest, pk, columns)
	if err != nil {
		return err
	}

	var start *keyspace.Key
	if fillStart != "" {
		k, err := ks.Parse(fillStart)
		if err != nil {
			return err
		}
		start = &k
	}

	filter, err := fillTimeFilter(ctx, a, dest)
	if err != nil {
		return err
	}

	guard, err := lock.Acquire(ctx, a.db, "fill", dest)
	if err != nil {
		return err
	}
	defer func() { _ = guard.Release(ctx) }()

	filler, err := fill.New(ctx, a.db, fill.Config{
		Source:     source,
		Dest:       dest,
		Columns:    names,
		KeyColumn:  pk,
		Keyspace:   ks,
		BatchSize:  fillBatchSize,
		Start:      start,
		TimeFilter: filter,
		Sleep:      fillSleep,
	})
	if err != nil {
		return err
	}

	a.log.Info("starting fill",
		zap.String("source", source.String()),
		zap.String("dest", dest.String()),
		zap.Int64("batch_size", fillBatchSize))

	var totalRows int64
	err = filler.Run(ctx, func(res *fill.BatchResult) error {
		totalRows += res.Rows
		fields := []zap.Field{
			zap.Int("batch", res.Batch),
			zap.Int64("rows", res.Rows),
			zap.String("start_key", res.StartKey.String()),
			zap.String("end_key", res.EndKey.String()),
		}
		if res.TotalKnown {
			fields = append(fields, zap.Int64("total_batches", res.TotalBatches))
		}
		a.log.Info("batch committed", fields...)
		return nil
	})
	if err != nil {
		return err
	}

	a.log.Info("fill complete", zap.Int64("rows_copied", totalRows))
	return nil
}

// fillTables resolves the source/destination pair: before the swap rows
// flow original -> intermediate, after it retired -> live.
func fillTables(a *app, table database.Table) (source, dest database.Table) {
	if fillSwapped {
		source, dest = table.Retired(), table
	} else {
		source, dest = table, table.Intermediate()
	}
	if fillSource != "" {
		source = a.table(fillSource)
	}
	if fillDest != "" {
		dest = a.table(fillDest)
	}
	return source, dest
}

// detectKeyspace fixes the key domain once per invocation, from the
// destination's highest copied key when one exists, else from the
// source's first key, else from the declared column type.
func detectKeyspace(ctx context.Context, a *app, source, dest database.Table, pk string, columns []database.Column) (keyspace.Keyspace, error) {
	if sample, ok, err := a.insp.MaxKey(ctx, dest, pk, "", nil); err != nil {
		return nil, err
	} else if ok {
		return keyspace.ForSample(sample)
	}

	if sample, ok, err := a.insp.MinKey(ctx, source, pk, "", nil); err != nil {
		return nil, err
	} else if ok {
		return keyspace.ForSample(sample)
	}

	for _, c := range columns {
		if c.Name == pk {
			return keyspace.ForColumnType(c.Type)
		}
	}
	return nil, fmt.Errorf("key column %q not found on %s", pk, source)
}

// fillTimeFilter derives the writable span from the destination's
// partitions. An unpartitioned destination runs unfiltered.
func fillTimeFilter(ctx context.Context, a *app, dest database.Table) (*partition.TimeFilter, error) {
	comment, err := a.insp.Comment(ctx, dest)
	if err != nil {
		return nil, err
	}
	if comment == "" {
		return nil, nil
	}
	settings, err := partition.ParseComment(comment)
	if err != nil {
		return nil, err
	}
	return partition.DeriveTimeFilter(ctx, a.insp, dest, settings)
}
