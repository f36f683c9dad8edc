package main

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"resale-console/internal/config"
	"resale-console/internal/database"
	"resale-console/internal/models"
)

func openSqlite(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), name)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestCopyAll(t *testing.T) {
	src := openSqlite(t, "src.db")
	dst := openSqlite(t, "dst.db")

	require.NoError(t, src.Create(&models.Workflow{Name: "a", Definition: "[]", Enabled: true}).Error)
	require.NoError(t, src.Create(&models.Workflow{Name: "b", Definition: "[]", Enabled: true}).Error)
	require.NoError(t, src.Create(&models.SystemSetting{Key: "LOG_LEVEL", Value: "debug"}).Error)

	require.NoError(t, copyAll(src, dst, slog.Default()))
	// re-running skips rows that already exist
	require.NoError(t, copyAll(src, dst, slog.Default()))

	var names []string
	require.NoError(t, dst.Model(&models.Workflow{}).Order("id").Pluck("name", &names).Error)
	assert.Equal(t, []string{"a", "b"}, names)

	var setting models.SystemSetting
	require.NoError(t, dst.Where(&models.SystemSetting{Key: "LOG_LEVEL"}).First(&setting).Error)
	assert.Equal(t, "debug", setting.Value)
}
