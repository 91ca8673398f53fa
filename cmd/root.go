package cmd

import (
	"fmt"
	"os"

	"pgslice/core/config"
	"pgslice/core/database"
	"pgslice/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "pgslice",
	Short: "Postgres partitioning as easy as pie",
	Long: `pgslice converts a PostgreSQL table into a natively partitioned table
online: it creates the partitioned copy, backfills it in resumable batches,
and reconciles the two copies while the conversion is staged.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Use the application's standard logger for error reporting
		// We default to console format to match user expectations (CLI tool)
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

// app bundles the collaborators every subcommand needs.
type app struct {
	cfg  *config.Config
	log  *zap.Logger
	db   *gorm.DB
	insp *database.Inspector
}

func setup() (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &app{cfg: cfg, log: l, db: db, insp: database.NewInspector(db)}, nil
}

func (a *app) table(name string) database.Table {
	return database.ParseTable(name, a.cfg.Database.Schema)
}
