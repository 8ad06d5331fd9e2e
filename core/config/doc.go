// Package config provides configuration management for the Fleet Monitor.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file (via godotenv).
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings,
// divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: MySQL connection details
//   - Log: Logging level and format
//   - Provider: telemetry provider credentials and timeouts
//   - Reconcile: accounting engine tunables
//   - Archive: raw payload archive (S3/MinIO) settings
//
// Defaults come from `default` struct tags; environment variables map onto
// nested keys with underscores (PROVIDER_ACCOUNT -> provider.account).
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
