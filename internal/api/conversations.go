package api

import (
	"net/http"

	"resale-console/internal/models"
	respmodels "resale-console/pkg/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ConversationHandler struct {
	DB *gorm.DB
}

func NewConversationHandler(db *gorm.DB) *ConversationHandler {
	return &ConversationHandler{DB: db}
}

type messageCount struct {
	AccountID string
	ChatID    string
	N         int64
}

// GetConversations lists conversations, most recent first, with message
// counts and the owning account's nickname.
func (h *ConversationHandler) GetConversations(c *gin.Context) {
	db := h.DB.WithContext(c.Request.Context())
	limit, offset := pagination(c)

	q := db.Model(&models.Conversation{})
	if accountID := c.Query("accountId"); accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		serverError(c, err)
		return
	}

	var convs []models.Conversation
	if err := q.Order("last_time DESC").Limit(limit).Offset(offset).Find(&convs).Error; err != nil {
		serverError(c, err)
		return
	}

	var counts []messageCount
	if err := db.Model(&models.ConversationMessage{}).
		Select("account_id, chat_id, COUNT(*) AS n").
		Group("account_id, chat_id").
		Scan(&counts).Error; err != nil {
		serverError(c, err)
		return
	}
	countOf := make(map[[2]string]int64, len(counts))
	for _, mc := range counts {
		countOf[[2]string{mc.AccountID, mc.ChatID}] = mc.N
	}

	var accounts []models.Account
	if err := db.Select("id", "nickname").Find(&accounts).Error; err != nil {
		serverError(c, err)
		return
	}
	nickname := make(map[string]string, len(accounts))
	for _, a := range accounts {
		nickname[a.ID] = a.Nickname
	}

	views := make([]respmodels.ConversationView, 0, len(convs))
	for _, conv := range convs {
		v := respmodels.NewConversationView(conv)
		v.AccountNickname = nickname[conv.AccountID]
		v.MessageCount = countOf[[2]string{conv.AccountID, conv.ChatID}]
		views = append(views, v)
	}

	c.JSON(http.StatusOK, respmodels.ConversationListResponse{
		Conversations: views,
		Total:         total,
		Limit:         limit,
		Offset:        offset,
	})
}

// GetMessages returns the latest messages of a chat in chronological order.
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	limit, _ := pagination(c)

	var msgs []models.ConversationMessage
	err := h.DB.WithContext(c.Request.Context()).
		Where("account_id = ? AND chat_id = ?", c.Param("accountId"), c.Param("chatId")).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		serverError(c, err)
		return
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	if msgs == nil {
		msgs = []models.ConversationMessage{}
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *ConversationHandler) MarkRead(c *gin.Context) {
	res := h.DB.WithContext(c.Request.Context()).
		Model(&models.Conversation{}).
		Where("account_id = ? AND chat_id = ?", c.Param("accountId"), c.Param("chatId")).
		Update("unread", 0)
	if res.Error != nil {
		serverError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation marked as read"})
}
