package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"resale-console/internal/database"
	"resale-console/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsHandler struct {
	DB       *gorm.DB
	LogLevel *slog.LevelVar
	Status   *StatusHandler
}

func NewSettingsHandler(db *gorm.DB, level *slog.LevelVar, status *StatusHandler) *SettingsHandler {
	return &SettingsHandler{DB: db, LogLevel: level, Status: status}
}

// GetSettings returns all system settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	var settings []models.SystemSetting
	if err := h.DB.WithContext(c.Request.Context()).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&settings).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSetting stores a setting. Settings the server reads at runtime are
// validated and applied immediately.
func (h *SettingsHandler) UpdateSetting(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	apply, err := h.runtimeSetting(req.Key, req.Value)
	if err != nil {
		badRequest(c, err)
		return
	}

	setting := models.SystemSetting{Key: req.Key, Value: req.Value}
	if err := h.DB.WithContext(c.Request.Context()).Save(&setting).Error; err != nil {
		serverError(c, err)
		return
	}
	if apply != nil {
		apply()
	}

	slog.Info("setting updated", "module", "Settings", "key", req.Key)
	c.JSON(http.StatusOK, setting)
}

func (h *SettingsHandler) runtimeSetting(key, value string) (func(), error) {
	switch key {
	case database.SettingLogLevel:
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.ToUpper(value))); err != nil {
			return nil, fmt.Errorf("invalid log level: %s", value)
		}
		if h.LogLevel == nil {
			return nil, nil
		}
		return func() { h.LogLevel.Set(level) }, nil
	case database.SettingStatusTTL:
		ttl, err := time.ParseDuration(value)
		if err != nil || ttl < 0 {
			return nil, fmt.Errorf("invalid duration: %s", value)
		}
		if h.Status == nil {
			return nil, nil
		}
		return func() { h.Status.SetTTL(ttl) }, nil
	}
	return nil, nil
}
