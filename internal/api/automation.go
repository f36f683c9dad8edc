package api

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"resale-console/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AutoReplyHandler struct {
	DB *gorm.DB
}

func NewAutoReplyHandler(db *gorm.DB) *AutoReplyHandler {
	return &AutoReplyHandler{DB: db}
}

type autoReplyRequest struct {
	Name                     string   `json:"name" binding:"required"`
	Enabled                  *bool    `json:"enabled"`
	Priority                 int      `json:"priority"`
	MatchType                string   `json:"matchType" binding:"required,oneof=exact contains regex ai"`
	MatchPattern             string   `json:"matchPattern"`
	Keywords                 []string `json:"keywords"`
	ReplyContent             string   `json:"replyContent"`
	AccountID                *string  `json:"accountId"`
	ExcludeMatch             bool     `json:"excludeMatch"`
	ItemMatchType            string   `json:"itemMatchType" binding:"omitempty,oneof=all onsale offsale"`
	ItemIDs                  []string `json:"itemIds"`
	DelaySeconds             int      `json:"delaySeconds" binding:"gte=0"`
	DelayMode                string   `json:"delayMode" binding:"omitempty,oneof=fixed random smart"`
	SmartDelaySecondsPerChar float64  `json:"smartDelaySecondsPerChar" binding:"gte=0"`
}

func (r *autoReplyRequest) rule() (models.AutoReplyRule, error) {
	if r.MatchType == "regex" {
		if _, err := regexp.Compile(r.MatchPattern); err != nil {
			return models.AutoReplyRule{}, fmt.Errorf("invalid regex pattern: %w", err)
		}
	}
	if r.ItemMatchType == "" {
		r.ItemMatchType = "all"
	}
	if r.DelayMode == "" {
		r.DelayMode = "fixed"
	}
	if r.Keywords == nil {
		r.Keywords = []string{}
	}
	if r.ItemIDs == nil {
		r.ItemIDs = []string{}
	}

	return models.AutoReplyRule{
		Name:                     r.Name,
		Enabled:                  boolOr(r.Enabled, true),
		Priority:                 r.Priority,
		MatchType:                r.MatchType,
		MatchPattern:             r.MatchPattern,
		Keywords:                 r.Keywords,
		ReplyContent:             r.ReplyContent,
		AccountID:                r.AccountID,
		ExcludeMatch:             r.ExcludeMatch,
		ItemMatchType:            r.ItemMatchType,
		ItemIDs:                  r.ItemIDs,
		DelaySeconds:             r.DelaySeconds,
		DelayMode:                r.DelayMode,
		SmartDelaySecondsPerChar: r.SmartDelaySecondsPerChar,
	}, nil
}

// GetRules returns all auto-reply rules, highest priority first
func (h *AutoReplyHandler) GetRules(c *gin.Context) {
	q := h.DB.WithContext(c.Request.Context())
	if accountID := c.Query("accountId"); accountID != "" {
		q = q.Where("account_id = ? OR account_id IS NULL", accountID)
	}

	var rules []models.AutoReplyRule
	if err := q.Order("priority DESC, created_at DESC").Find(&rules).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (h *AutoReplyHandler) GetRule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var rule models.AutoReplyRule
	if !findOr404(c, h.DB, &rule, id, "Rule") {
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *AutoReplyHandler) CreateRule(c *gin.Context) {
	var req autoReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rule, err := req.rule()
	if err != nil {
		badRequest(c, err)
		return
	}

	if err := h.DB.WithContext(c.Request.Context()).Create(&rule).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// UpdateRule replaces every editable field of a rule
func (h *AutoReplyHandler) UpdateRule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req autoReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rule, err := req.rule()
	if err != nil {
		badRequest(c, err)
		return
	}

	err = h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var existing models.AutoReplyRule
		if err := tx.First(&existing, id).Error; err != nil {
			return err
		}
		rule.ID = existing.ID
		rule.CreatedAt = existing.CreatedAt
		return tx.Save(&rule).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *AutoReplyHandler) DeleteRule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	deleteByID[models.AutoReplyRule](c, h.DB, id, "Rule")
}

// ToggleRule enables or disables a rule
func (h *AutoReplyHandler) ToggleRule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	toggleEnabled[models.AutoReplyRule](c, h.DB, id, "Rule")
}
