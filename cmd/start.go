package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleet-monitor/core/archive"
	"fleet-monitor/core/config"
	"fleet-monitor/core/database"
	"fleet-monitor/core/loader"
	"fleet-monitor/core/logger"
	"fleet-monitor/core/middleware/auth"
	"fleet-monitor/core/middleware/rayid"
	"fleet-monitor/core/telemetry"

	"fleet-monitor/feature/consumption"
	consumptionmodels "fleet-monitor/feature/consumption/models"
	"fleet-monitor/feature/engine"
	enginemodels "fleet-monitor/feature/engine/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "fleet-monitor/docs/swagger"
)

// @title Fleet Monitor API
// @version 1.0
// @description API for engine-state reconciliation of telemetry-equipped assets.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the fleet monitor server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database (required: it owns the durable engine state)
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := db.AutoMigrate(
			&enginemodels.Asset{},
			&enginemodels.AssetEngineState{},
			&enginemodels.CalibrationOffset{},
			&consumptionmodels.ConsumptionDay{},
		); err != nil {
			logg.Fatal("Failed to migrate database schema", zap.Error(err))
		}

		// 4. Raw telemetry archive (optional)
		var sink telemetry.RawSink
		if cfg.Archive.Enabled() {
			client, err := archive.NewClient(cfg.Archive)
			if err != nil {
				logg.Fatal("Failed to create archive client", zap.Error(err))
			}
			arc := archive.New(client, cfg.Archive, logg)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := arc.EnsureBucket(ctx); err != nil {
				logg.Warn("Raw telemetry archive unavailable", zap.Error(err))
			}
			cancel()
			sink = arc
		}

		// 5. Telemetry provider client
		provider := telemetry.NewClient(cfg.Provider, logg, sink)

		// 6. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
		})

		// 7. Initialize Feature Loader
		mgr := loader.NewManager()

		engineFeature := engine.NewFeature(db, provider, cfg.Reconcile, logg)
		mgr.Register(engineFeature)
		mgr.Register(consumption.NewFeature(db,
			engineFeature.Service().Store(),
			engineFeature.Service().Ledger(),
			logg,
		))

		// Middleware Registration
		// RayID must be first to trace everything
		app.Use(rayid.New())

		// Request logging with Zap + RayID
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
