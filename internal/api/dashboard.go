package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"resale-console/internal/models"
	respmodels "resale-console/pkg/models"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

const statusCacheKey = "status"

// StatusHandler serves the dashboard overview. Responses are cached for TTL
// since every request counts several tables.
type StatusHandler struct {
	DB    *gorm.DB
	cache *gocache.Cache
	ttl   atomic.Int64
}

func NewStatusHandler(db *gorm.DB, ttl time.Duration) *StatusHandler {
	h := &StatusHandler{
		DB:    db,
		cache: gocache.New(ttl, time.Minute),
	}
	h.SetTTL(ttl)
	return h
}

// SetTTL changes how long later responses are cached and drops the cached
// one.
func (h *StatusHandler) SetTTL(ttl time.Duration) {
	h.ttl.Store(int64(ttl))
	h.cache.Delete(statusCacheKey)
}

func (h *StatusHandler) GetStatus(c *gin.Context) {
	if cached, found := h.cache.Get(statusCacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	status, err := h.collect(h.DB.WithContext(c.Request.Context()))
	if err != nil {
		serverError(c, err)
		return
	}
	if ttl := time.Duration(h.ttl.Load()); ttl > 0 {
		h.cache.Set(statusCacheKey, status, ttl)
	}
	c.JSON(http.StatusOK, status)
}

func (h *StatusHandler) collect(db *gorm.DB) (respmodels.StatusResponse, error) {
	status := respmodels.StatusResponse{Clients: []respmodels.ClientStatus{}}

	var accounts []models.Account
	if err := db.Where("enabled = ?", true).Order("created_at ASC").Find(&accounts).Error; err != nil {
		return status, err
	}
	for _, a := range accounts {
		status.Clients = append(status.Clients, respmodels.ClientStatus{
			AccountID: a.ID,
			Connected: a.Status.Connected,
			UserID:    a.UserID,
		})
		if a.Status.Connected {
			status.ActiveCount++
		}
	}

	if err := db.Model(&models.ConversationMessage{}).Count(&status.MessageCount).Error; err != nil {
		return status, err
	}
	if err := db.Model(&models.GoodsItem{}).Count(&status.GoodsCount).Error; err != nil {
		return status, err
	}
	err := db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusPendingShipment).
		Count(&status.PendingShipmentCount).Error
	return status, err
}
