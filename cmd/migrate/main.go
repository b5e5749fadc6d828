package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"focusboard/backend/internal/config"
	"focusboard/backend/internal/db"
	"focusboard/backend/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	status, err := db.MigrationStatus(database, cfg.MigrationsDir)
	if err != nil {
		logger.Error("read migration status", "error", err)
		os.Exit(1)
	}
	pending := 0
	for _, m := range status {
		if m.AppliedAt == nil {
			pending++
		}
	}
	logger.Info("migration status", "total", len(status), "pending", pending)

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	logger.Info("migrations applied successfully", "db", cfg.DBPath)
}
