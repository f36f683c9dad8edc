package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"resale-console/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	DB *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

var channelRequiredKeys = map[string][]string{
	models.ChannelEmail:    {"smtpHost", "smtpPort", "fromEmail"},
	models.ChannelWebhook:  {"url"},
	models.ChannelDingTalk: {"webhookUrl"},
	models.ChannelWeChat:   {"webhookUrl"},
	models.ChannelTelegram: {"botToken", "chatId"},
}

// ValidateChannelConfig checks that config carries the keys channelType needs.
func ValidateChannelConfig(channelType string, config map[string]any) error {
	keys, ok := channelRequiredKeys[channelType]
	if !ok {
		return fmt.Errorf("unsupported channel type: %s", channelType)
	}

	var missing []string
	for _, k := range keys {
		if v, ok := config[k]; !ok || v == nil || v == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s channel config requires: %s", channelType, strings.Join(missing, ", "))
	}

	if channelType == models.ChannelWebhook {
		method, _ := config["method"].(string)
		switch strings.ToUpper(method) {
		case "":
			config["method"] = http.MethodPost
		case http.MethodGet, http.MethodPost:
			config["method"] = strings.ToUpper(method)
		default:
			return fmt.Errorf("webhook method must be GET or POST")
		}
	}
	return nil
}

type channelRequest struct {
	Type      string         `json:"type" binding:"required"`
	Name      string         `json:"name" binding:"required"`
	Config    map[string]any `json:"config"`
	Enabled   *bool          `json:"enabled"`
	AccountID *string        `json:"accountId"`
}

func (r *channelRequest) channel() (models.NotificationChannel, error) {
	if r.Config == nil {
		r.Config = map[string]any{}
	}
	if err := ValidateChannelConfig(r.Type, r.Config); err != nil {
		return models.NotificationChannel{}, err
	}
	return models.NotificationChannel{
		Type:      r.Type,
		Name:      r.Name,
		Config:    r.Config,
		Enabled:   boolOr(r.Enabled, true),
		AccountID: r.AccountID,
	}, nil
}

func (h *NotificationHandler) GetChannels(c *gin.Context) {
	var channels []models.NotificationChannel
	if err := h.DB.WithContext(c.Request.Context()).Order("id ASC").Find(&channels).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, channels)
}

func (h *NotificationHandler) CreateChannel(c *gin.Context) {
	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ch, err := req.channel()
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&ch).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ch)
}

func (h *NotificationHandler) UpdateChannel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ch, err := req.channel()
	if err != nil {
		badRequest(c, err)
		return
	}

	err = h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var existing models.NotificationChannel
		if err := tx.First(&existing, id).Error; err != nil {
			return err
		}
		ch.ID = existing.ID
		ch.CreatedAt = existing.CreatedAt
		return tx.Save(&ch).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

// DeleteChannel removes a channel together with the message notifications
// routed to it.
func (h *NotificationHandler) DeleteChannel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.NotificationChannel{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("channel_id = ?", id).Delete(&models.MessageNotification{}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Channel deleted successfully"})
}

func (h *NotificationHandler) ToggleChannel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	toggleEnabled[models.NotificationChannel](c, h.DB, id, "Channel")
}

type messageNotificationRequest struct {
	AccountID string `json:"accountId" binding:"required"`
	ChannelID uint   `json:"channelId" binding:"required"`
	Keywords  string `json:"keywords"`
	Enabled   *bool  `json:"enabled"`
}

func (h *NotificationHandler) channelExists(tx *gorm.DB, id uint) (bool, error) {
	var n int64
	err := tx.Model(&models.NotificationChannel{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (h *NotificationHandler) GetMessageNotifications(c *gin.Context) {
	q := h.DB.WithContext(c.Request.Context())
	if accountID := c.Query("accountId"); accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	var list []models.MessageNotification
	if err := q.Order("id ASC").Find(&list).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) CreateMessageNotification(c *gin.Context) {
	var req messageNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	db := h.DB.WithContext(c.Request.Context())
	exists, err := h.channelExists(db, req.ChannelID)
	if err != nil {
		serverError(c, err)
		return
	}
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Channel not found"})
		return
	}

	n := models.MessageNotification{
		AccountID: req.AccountID,
		ChannelID: req.ChannelID,
		Keywords:  req.Keywords,
		Enabled:   boolOr(req.Enabled, true),
	}
	if err := db.Create(&n).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *NotificationHandler) UpdateMessageNotification(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req messageNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	var n models.MessageNotification
	if !findOr404(c, db, &n, id, "Notification") {
		return
	}
	exists, err := h.channelExists(db, req.ChannelID)
	if err != nil {
		serverError(c, err)
		return
	}
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Channel not found"})
		return
	}

	n.AccountID = req.AccountID
	n.ChannelID = req.ChannelID
	n.Keywords = req.Keywords
	n.Enabled = boolOr(req.Enabled, n.Enabled)
	if err := db.Save(&n).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) DeleteMessageNotification(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	deleteByID[models.MessageNotification](c, h.DB, id, "Notification")
}
