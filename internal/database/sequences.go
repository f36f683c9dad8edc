package database

import (
	"fmt"
	"log/slog"
	"sync"

	"resale-console/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// SerialTables lists the tables whose primary key is an auto-increment id.
func SerialTables(db *gorm.DB) ([]string, error) {
	cache := &sync.Map{}
	var tables []string
	for _, m := range models.All() {
		s, err := schema.Parse(m, cache, db.NamingStrategy)
		if err != nil {
			return nil, fmt.Errorf("failed to parse model %T: %w", m, err)
		}
		if f := s.PrioritizedPrimaryField; f != nil && f.AutoIncrement {
			tables = append(tables, s.Table)
		}
	}
	return tables, nil
}

// SyncSequences moves each postgres id sequence past the current max id.
// Rows copied with explicit ids leave the sequences behind otherwise.
func SyncSequences(db *gorm.DB, tables []string) error {
	if db.Dialector.Name() != "postgres" {
		return fmt.Errorf("sequence sync requires postgres, got %s", db.Dialector.Name())
	}

	var failed int
	for _, table := range tables {
		quoted := db.Statement.Quote(table)
		query := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), coalesce(max(id), 0) + 1, false) FROM %s", table, quoted)
		if err := db.Exec(query).Error; err != nil {
			slog.Error("failed to sync sequence", "table", table, "error", err)
			failed++
			continue
		}
		slog.Info("sequence synced", "table", table)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sequences failed to sync", failed, len(tables))
	}
	return nil
}
