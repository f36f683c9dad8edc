package main

import (
	"log/slog"
	"os"

	"resale-console/internal/config"
	"resale-console/internal/database"
	"resale-console/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(logging.ParseLevel(cfg.Log.Level), os.Stderr)

	db, err := database.Open(&cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	tables, err := database.SerialTables(db)
	if err != nil {
		slog.Error("failed to list tables", "error", err)
		os.Exit(1)
	}

	slog.Info("syncing postgres sequences", "tables", len(tables))
	if err := database.SyncSequences(db, tables); err != nil {
		slog.Error("sequence sync incomplete", "error", err)
		os.Exit(1)
	}
	slog.Info("sequences synced")
}
