package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"resale-console/internal/models"
	respmodels "resale-console/pkg/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AutoSellHandler struct {
	DB *gorm.DB
}

func NewAutoSellHandler(db *gorm.DB) *AutoSellHandler {
	return &AutoSellHandler{DB: db}
}

type autoSellRequest struct {
	Name              string            `json:"name" binding:"required"`
	Enabled           *bool             `json:"enabled"`
	ItemID            *string           `json:"itemId"`
	ItemSpecification *string           `json:"itemSpecification"`
	AccountID         *string           `json:"accountId"`
	DeliveryType      string            `json:"deliveryType" binding:"required,oneof=fixed stock api"`
	DeliveryContent   *string           `json:"deliveryContent"`
	APIConfig         *models.APIConfig `json:"apiConfig"`
	TriggerOn         string            `json:"triggerOn" binding:"omitempty,oneof=paid confirmed"`
	WorkflowID        *uint             `json:"workflowId"`
}

func (h *AutoSellHandler) rule(tx *gorm.DB, r autoSellRequest) (models.AutoSellRule, error) {
	if r.DeliveryType == "api" && (r.APIConfig == nil || r.APIConfig.URL == "") {
		return models.AutoSellRule{}, errors.New("apiConfig.url is required for api delivery")
	}
	if r.APIConfig != nil && r.APIConfig.Method == "" {
		r.APIConfig.Method = http.MethodGet
	}
	if r.TriggerOn == "" {
		r.TriggerOn = "paid"
	}
	if r.WorkflowID != nil {
		var n int64
		if err := tx.Model(&models.Workflow{}).Where("id = ?", *r.WorkflowID).Count(&n).Error; err != nil {
			return models.AutoSellRule{}, err
		}
		if n == 0 {
			return models.AutoSellRule{}, fmt.Errorf("workflow %d does not exist", *r.WorkflowID)
		}
	}

	return models.AutoSellRule{
		Name:              r.Name,
		Enabled:           boolOr(r.Enabled, true),
		ItemID:            r.ItemID,
		ItemSpecification: r.ItemSpecification,
		AccountID:         r.AccountID,
		DeliveryType:      r.DeliveryType,
		DeliveryContent:   r.DeliveryContent,
		APIConfig:         r.APIConfig,
		TriggerOn:         r.TriggerOn,
		WorkflowID:        r.WorkflowID,
	}, nil
}

type stockCount struct {
	RuleID uint
	Used   bool
	N      int64
}

// attachStockCounts fills StockCount and UsedCount on stock rules.
func (h *AutoSellHandler) attachStockCounts(tx *gorm.DB, rules []models.AutoSellRule) error {
	if len(rules) == 0 {
		return nil
	}
	ids := make([]uint, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}

	var rows []stockCount
	err := tx.Model(&models.StockItem{}).
		Select("rule_id, used, COUNT(*) AS n").
		Where("rule_id IN ?", ids).
		Group("rule_id, used").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	for i := range rules {
		for _, r := range rows {
			if r.RuleID != rules[i].ID {
				continue
			}
			rules[i].StockCount += r.N
			if r.Used {
				rules[i].UsedCount += r.N
			}
		}
	}
	return nil
}

func (h *AutoSellHandler) GetRules(c *gin.Context) {
	db := h.DB.WithContext(c.Request.Context())
	q := db
	if accountID := c.Query("accountId"); accountID != "" {
		q = q.Where("account_id = ? OR account_id IS NULL", accountID)
	}

	var rules []models.AutoSellRule
	if err := q.Order("created_at DESC").Find(&rules).Error; err != nil {
		serverError(c, err)
		return
	}
	if err := h.attachStockCounts(db, rules); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (h *AutoSellHandler) GetRule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var rule models.AutoSellRule
	if !findOr404(c, h.DB, &rule, id, "Rule") {
		return
	}
	rules := []models.AutoSellRule{rule}
	if err := h.attachStockCounts(h.DB.WithContext(c.Request.Context()), rules); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules[0])
}

func (h *AutoSellHandler) CreateRule(c *gin.Context) {
	var req autoSellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	db := h.DB.WithContext(c.Request.Context())
	rule, err := h.rule(db, req)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := db.Create(&rule).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *AutoSellHandler) UpdateRule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req autoSellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var rule models.AutoSellRule
	var invalid error
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var existing models.AutoSellRule
		if err := tx.First(&existing, id).Error; err != nil {
			return err
		}
		var err error
		if rule, err = h.rule(tx, req); err != nil {
			invalid = err
			return err
		}
		rule.ID = existing.ID
		rule.CreatedAt = existing.CreatedAt
		return tx.Save(&rule).Error
	})
	switch {
	case invalid != nil:
		badRequest(c, invalid)
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
	case err != nil:
		serverError(c, err)
	default:
		c.JSON(http.StatusOK, rule)
	}
}

// DeleteRule removes a rule and its stock.
func (h *AutoSellHandler) DeleteRule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.AutoSellRule{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("rule_id = ?", id).Delete(&models.StockItem{}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted successfully"})
}

func (h *AutoSellHandler) ToggleRule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	toggleEnabled[models.AutoSellRule](c, h.DB, id, "Rule")
}

func (h *AutoSellHandler) GetStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var rule models.AutoSellRule
	if !findOr404(c, h.DB, &rule, id, "Rule") {
		return
	}

	limit, offset := pagination(c)
	q := h.DB.WithContext(c.Request.Context()).Where("rule_id = ?", id)
	if used := c.Query("used"); used != "" {
		q = q.Where("used = ?", used == "true")
	}

	var items []models.StockItem
	if err := q.Order("id ASC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// AddStock imports one stock item per non-empty line of content.
func (h *AutoSellHandler) AddStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var rule models.AutoSellRule
	if !findOr404(c, h.DB, &rule, id, "Rule") {
		return
	}

	var items []models.StockItem
	for _, line := range strings.Split(req.Content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			items = append(items, models.StockItem{RuleID: id, Content: line})
		}
	}
	if len(items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no stock lines"})
		return
	}

	if err := h.DB.WithContext(c.Request.Context()).CreateInBatches(&items, 100).Error; err != nil {
		serverError(c, err)
		return
	}
	slog.Info("stock imported", "module", "AutoSell", "rule", id, "count", len(items))
	c.JSON(http.StatusCreated, gin.H{"added": len(items)})
}

// ClearStock deletes the rule's unused stock. Used items are kept for the
// delivery history.
func (h *AutoSellHandler) ClearStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res := h.DB.WithContext(c.Request.Context()).
		Where("rule_id = ? AND used = ?", id, false).
		Delete(&models.StockItem{})
	if res.Error != nil {
		serverError(c, res.Error)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": res.RowsAffected})
}

func (h *AutoSellHandler) GetStockStats(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var rule models.AutoSellRule
	if !findOr404(c, h.DB, &rule, id, "Rule") {
		return
	}

	rules := []models.AutoSellRule{rule}
	if err := h.attachStockCounts(h.DB.WithContext(c.Request.Context()), rules); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, respmodels.StockStats{
		Total:     rules[0].StockCount,
		Used:      rules[0].UsedCount,
		Available: rules[0].StockCount - rules[0].UsedCount,
	})
}

// GetLogs returns delivery logs, newest first
func (h *AutoSellHandler) GetLogs(c *gin.Context) {
	limit, offset := pagination(c)
	q := h.DB.WithContext(c.Request.Context())
	if accountID := c.Query("accountId"); accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	if ruleID := c.Query("ruleId"); ruleID != "" {
		q = q.Where("rule_id = ?", ruleID)
	}

	var logs []models.DeliveryLog
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
