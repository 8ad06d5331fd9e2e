package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"fleet-monitor/core/config"
	"fleet-monitor/core/database"
	"fleet-monitor/core/logger"
	"fleet-monitor/feature/consumption"
	"fleet-monitor/feature/consumption/models"
	"fleet-monitor/feature/engine"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var snapshotDay string

// snapshotCmd runs the daily consumption closing from the command line, for
// invocation from an external cron.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record the daily consumption closing for all active assets",
	Long: `Snapshot writes one consumption record per active asset for the given day
(default today). Re-running a day that is already closed is a no-op.

Examples:
  # Close today
  fleet-monitor snapshot

  # Close a specific day
  fleet-monitor snapshot --day 2026-08-31`,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotDay, "day", "", "Day to close (YYYY-MM-DD, default today)")
	RootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(&logger.Config{Level: "info", Format: "console"})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	day := time.Now()
	if snapshotDay != "" {
		day, err = time.Parse(models.DayFormat, snapshotDay)
		if err != nil {
			return fmt.Errorf("invalid --day %q, expected YYYY-MM-DD", snapshotDay)
		}
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	svc := consumption.NewService(db, engine.NewStore(db), engine.NewLedger(db), logg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	created, err := svc.CloseDay(ctx, day)
	if err != nil {
		return err
	}

	logg.Info("Snapshot complete",
		zap.String("day", day.Format(models.DayFormat)),
		zap.Int("created", created),
	)
	return nil
}
