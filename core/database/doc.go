// Package database handles database connections.
//
// It provides a wrapper around GORM to configure the MySQL connection used for
// the durable per-asset engine state, with an sqlite fallback for tests and
// local development.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
