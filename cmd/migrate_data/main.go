package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"resale-console/internal/config"
	"resale-console/internal/database"
	"resale-console/internal/logging"
	"resale-console/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 500

func main() {
	source := flag.String("source", "./resale.db", "sqlite database to copy from")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(logging.ParseLevel(cfg.Log.Level), os.Stderr)
	log := logging.WithModule("Migrate")

	if cfg.Database.Driver != "postgres" {
		log.Error("destination must be postgres", "driver", cfg.Database.Driver)
		os.Exit(1)
	}

	src, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Path: *source})
	if err != nil {
		log.Error("failed to open source", "path", *source, "error", err)
		os.Exit(1)
	}
	defer database.Close(src)

	dst, err := database.New(&cfg.Database)
	if err != nil {
		log.Error("failed to open destination", "error", err)
		os.Exit(1)
	}
	defer database.Close(dst)

	if err := copyAll(src, dst, log); err != nil {
		log.Error("data migration failed", "error", err)
		os.Exit(1)
	}

	tables, err := database.SerialTables(dst)
	if err == nil {
		err = database.SyncSequences(dst, tables)
	}
	if err != nil {
		log.Error("sequence sync incomplete", "error", err)
		os.Exit(1)
	}
	log.Info("data migration completed")
}

// copyAll copies every table, parents before children. Rows already present
// in the destination are left untouched so the command can be re-run.
func copyAll(src, dst *gorm.DB, log *slog.Logger) error {
	steps := []func() (int, error){
		func() (int, error) { return copyTable[models.User](src, dst) },
		func() (int, error) { return copyTable[models.Account](src, dst) },
		func() (int, error) { return copyTable[models.Workflow](src, dst) },
		func() (int, error) { return copyTable[models.AutoReplyRule](src, dst) },
		func() (int, error) { return copyTable[models.AutoSellRule](src, dst) },
		func() (int, error) { return copyTable[models.StockItem](src, dst) },
		func() (int, error) { return copyTable[models.DeliveryLog](src, dst) },
		func() (int, error) { return copyTable[models.Order](src, dst) },
		func() (int, error) { return copyTable[models.GoodsItem](src, dst) },
		func() (int, error) { return copyTable[models.Conversation](src, dst) },
		func() (int, error) { return copyTable[models.ConversationMessage](src, dst) },
		func() (int, error) { return copyTable[models.NotificationChannel](src, dst) },
		func() (int, error) { return copyTable[models.MessageNotification](src, dst) },
		func() (int, error) { return copyTable[models.ScheduledTask](src, dst) },
		func() (int, error) { return copyTable[models.SystemSetting](src, dst) },
	}
	if len(steps) != len(models.All()) {
		return fmt.Errorf("copy plan covers %d of %d models", len(steps), len(models.All()))
	}

	for _, step := range steps {
		n, err := step()
		if err != nil {
			return err
		}
		log.Info("table copied", "rows", n)
	}
	return nil
}

func copyTable[T any](src, dst *gorm.DB) (int, error) {
	var rows []T
	if err := src.Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("failed to read %T: %w", *new(T), err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	err := dst.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, batchSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to write %T: %w", *new(T), err)
	}
	return len(rows), nil
}
