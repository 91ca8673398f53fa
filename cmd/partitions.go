package cmd

import (
	"context"
	"fmt"
	"time"

	"pgslice/core/calendar"
	"pgslice/core/partition"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	partitionsTable  string
	partitionsPast   int
	partitionsFuture int
)

// partitionsCmd is the parent command for partition maintenance.
var partitionsCmd = &cobra.Command{
	Use:   "partitions",
	Short: "Create and inspect partitions of a converted table",
}

// partitionsAddCmd attaches missing partitions around today.
var partitionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create partitions covering past and future periods",
	Long: `Add creates the partitions spanning --past periods before and
--future periods after today, per the table's settings comment.
Partitions that already exist are left untouched.

Examples:
  pgslice partitions add --table events --future 3
  pgslice partitions add --table events --past 1 --future 1`,
	RunE: runPartitionsAdd,
}

// partitionsListCmd prints the existing partitions.
var partitionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the partitions of a table",
	RunE:  runPartitionsList,
}

func init() {
	partitionsAddCmd.Flags().StringVar(&partitionsTable, "table", "", "Partitioned table (required)")
	partitionsAddCmd.Flags().IntVar(&partitionsPast, "past", 0, "Periods before today")
	partitionsAddCmd.Flags().IntVar(&partitionsFuture, "future", 0, "Periods after today")
	_ = partitionsAddCmd.MarkFlagRequired("table")

	partitionsListCmd.Flags().StringVar(&partitionsTable, "table", "", "Partitioned table (required)")
	_ = partitionsListCmd.MarkFlagRequired("table")

	partitionsCmd.AddCommand(partitionsAddCmd)
	partitionsCmd.AddCommand(partitionsListCmd)
	RootCmd.AddCommand(partitionsCmd)
}

func runPartitionsAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if partitionsPast < 0 || partitionsFuture < 0 {
		return fmt.Errorf("--past and --future must be non-negative")
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	table := a.table(partitionsTable)
	comment, err := a.insp.Comment(ctx, table)
	if err != nil {
		return err
	}
	settings, err := partition.ParseComment(comment)
	if err != nil {
		return fmt.Errorf("%s is not prepared for partitioning: %w", table, err)
	}

	ranges := calendar.Sequence(time.Now().UTC(), settings.Period, partitionsPast, partitionsFuture)
	created, err := partition.Create(ctx, a.db, table, settings, ranges)
	if err != nil {
		return err
	}

	for _, t := range created {
		a.log.Info("partition created", zap.String("partition", t.String()))
	}
	a.log.Info("partitions added",
		zap.String("table", table.String()),
		zap.Int("created", len(created)),
		zap.Int("requested", len(ranges)))
	return nil
}

func runPartitionsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	table := a.table(partitionsTable)
	partitions, err := a.insp.Partitions(ctx, table)
	if err != nil {
		return err
	}

	for _, p := range partitions {
		fmt.Println(p)
	}
	return nil
}
