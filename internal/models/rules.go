package models

import (
	"time"
)

// AutoReplyRule describes how an account answers buyer messages.
type AutoReplyRule struct {
	ID                       uint      `gorm:"primaryKey" json:"id"`
	Name                     string    `gorm:"type:varchar(255);not null" json:"name"`
	Enabled                  bool      `gorm:"not null" json:"enabled"`
	Priority                 int       `gorm:"default:0;index" json:"priority"`
	MatchType                string    `gorm:"type:varchar(20);not null" json:"matchType"`
	MatchPattern             string    `gorm:"type:text" json:"matchPattern,omitempty"`
	Keywords                 []string  `gorm:"type:text;serializer:json" json:"keywords"`
	ReplyContent             string    `gorm:"type:text" json:"replyContent,omitempty"`
	AccountID                *string   `gorm:"type:varchar(64);index" json:"accountId"`
	ExcludeMatch             bool      `json:"excludeMatch"`
	ItemMatchType            string    `gorm:"type:varchar(20);not null" json:"itemMatchType"`
	ItemIDs                  []string  `gorm:"type:text;serializer:json" json:"itemIds"`
	DelaySeconds             int       `json:"delaySeconds"`
	DelayMode                string    `gorm:"type:varchar(20);not null" json:"delayMode"`
	SmartDelaySecondsPerChar float64   `json:"smartDelaySecondsPerChar,omitempty"`
	CreatedAt                time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt                time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (AutoReplyRule) TableName() string {
	return "auto_reply_rules"
}

// APIConfig tells an api delivery rule where to fetch goods from.
type APIConfig struct {
	URL           string            `json:"url"`
	Method        string            `json:"method"`
	Headers       map[string]string `json:"headers,omitempty"`
	Body          string            `json:"body,omitempty"`
	ResponseField string            `json:"responseField,omitempty"`
}

// AutoSellRule describes what is delivered when an order for a matching item
// is paid or confirmed.
type AutoSellRule struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Name              string     `gorm:"type:varchar(255);not null" json:"name"`
	Enabled           bool       `gorm:"not null" json:"enabled"`
	ItemID            *string    `gorm:"type:varchar(64);index" json:"itemId"`
	ItemSpecification *string    `gorm:"type:varchar(255)" json:"itemSpecification"`
	AccountID         *string    `gorm:"type:varchar(64);index" json:"accountId"`
	DeliveryType      string     `gorm:"type:varchar(20);not null" json:"deliveryType"`
	DeliveryContent   *string    `gorm:"type:text" json:"deliveryContent"`
	APIConfig         *APIConfig `gorm:"type:text;serializer:json" json:"apiConfig"`
	TriggerOn         string     `gorm:"type:varchar(20);not null" json:"triggerOn"`
	WorkflowID        *uint      `gorm:"index" json:"workflowId"`
	StockCount        int64      `gorm:"-" json:"stockCount"`
	UsedCount         int64      `gorm:"-" json:"usedCount"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (AutoSellRule) TableName() string {
	return "auto_sell_rules"
}

// StockItem is one deliverable unit (card key, link, ...) of a stock rule.
type StockItem struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	RuleID      uint       `gorm:"not null;index" json:"ruleId"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Used        bool       `gorm:"not null;index" json:"used"`
	UsedOrderID *string    `gorm:"type:varchar(64)" json:"usedOrderId"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UsedAt      *time.Time `json:"usedAt"`
}

func (StockItem) TableName() string {
	return "stock_items"
}

// DeliveryLog records one delivery attempt made by an account worker.
type DeliveryLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RuleID       *uint     `gorm:"index" json:"ruleId"`
	OrderID      string    `gorm:"type:varchar(64);index" json:"orderId"`
	AccountID    string    `gorm:"type:varchar(64);index" json:"accountId"`
	DeliveryType string    `gorm:"type:varchar(20)" json:"deliveryType"`
	Content      string    `gorm:"type:text" json:"content"`
	Status       string    `gorm:"type:varchar(20)" json:"status"`
	ErrorMessage *string   `gorm:"type:text" json:"errorMessage"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (DeliveryLog) TableName() string {
	return "delivery_logs"
}
