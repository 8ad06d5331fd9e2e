package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"fleet-monitor/core/config"
	"fleet-monitor/core/logger"
	"fleet-monitor/core/telemetry"

	"github.com/spf13/cobra"
)

// probeCmd fetches one normalized sample for an IMEI, for checking provider
// credentials and field mapping without touching any stored state.
var probeCmd = &cobra.Command{
	Use:   "probe <imei>",
	Short: "Fetch and print one telemetry sample for a device",
	Long: `Probe performs a single authenticated track lookup against the telemetry
provider and prints the normalized sample. No asset state is read or written.

Example:
  fleet-monitor probe 355468593059041`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	RootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	imei := args[0]

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(&logger.Config{Level: "debug", Format: "console"})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	client := telemetry.NewClient(cfg.Provider, logg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sample, err := client.Fetch(ctx, imei)
	if err != nil {
		return fmt.Errorf("fetching telemetry for %s: %w", imei, err)
	}

	fmt.Printf("device_id:    %s\n", sample.DeviceID)
	fmt.Printf("observed_at:  %d (%s)\n", sample.ObservedAt, time.Unix(sample.ObservedAt, 0).UTC().Format(time.RFC3339))
	fmt.Printf("engine_on:    %s\n", fmtOptBool(sample.EngineOn))
	fmt.Printf("run_counter:  %s seconds\n", fmtOptFloat(sample.CumulativeRunSeconds))
	fmt.Printf("battery:      %s V\n", fmtOptFloat(sample.BatteryVoltage))
	fmt.Printf("latitude:     %s\n", fmtOptFloat(sample.Latitude))
	fmt.Printf("longitude:    %s\n", fmtOptFloat(sample.Longitude))
	fmt.Printf("speed:        %s km/h\n", fmtOptFloat(sample.SpeedKmh))
	fmt.Printf("course:       %s\n", fmtOptFloat(sample.Course))

	return nil
}

func fmtOptBool(v *bool) string {
	if v == nil {
		return "(not reported)"
	}
	return fmt.Sprintf("%t", *v)
}

func fmtOptFloat(v *float64) string {
	if v == nil {
		return "(not reported)"
	}
	return fmt.Sprintf("%.3f", *v)
}
