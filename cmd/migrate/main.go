package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"keystone/config"
	"keystone/database"
	"keystone/logging"
)

func main() {
	dir := flag.String("dir", "./database/migrations", "directory of .sql migrations")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logging.Install(logger)()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch cfg.Store.Driver {
	case database.DriverPostgres:
		db, err := database.Connect(ctx, cfg.Store.URL)
		if err != nil {
			zap.S().Fatalw("Failed to connect", "error", err)
		}
		defer db.Close()

		if err := database.RunMigrations(ctx, db, *dir); err != nil {
			zap.S().Fatalw("Migration failed", "error", err)
		}
	case database.DriverSQLite, database.DriverMySQL:
		// The GORM stores migrate their schema when opened.
		store, err := database.Open(ctx, cfg.Store.Driver, cfg.Store.URL)
		if err != nil {
			zap.S().Fatalw("Failed to migrate", "driver", cfg.Store.Driver, "error", err)
		}
		store.Close()
	default:
		zap.S().Fatalw("Nothing to migrate", "driver", cfg.Store.Driver)
	}

	zap.S().Infow("All migrations completed", "driver", cfg.Store.Driver)
}
