// Package models holds the response shapes the dashboard consumes.
package models

import (
	internal "resale-console/internal/models"
)

type ClientStatus struct {
	AccountID string `json:"accountId"`
	Connected bool   `json:"connected"`
	UserID    string `json:"userId"`
}

// StatusResponse backs the dashboard overview cards.
type StatusResponse struct {
	Clients              []ClientStatus `json:"clients"`
	ActiveCount          int            `json:"activeCount"`
	MessageCount         int64          `json:"messageCount"`
	GoodsCount           int64          `json:"goodsCount"`
	PendingShipmentCount int64          `json:"pendingShipmentCount"`
}

type OrderListResponse struct {
	Orders []internal.Order `json:"orders"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type ConversationItem struct {
	ID     string  `json:"id"`
	Title  *string `json:"title"`
	PicURL *string `json:"picUrl"`
	Price  *string `json:"price"`
}

type ConversationView struct {
	internal.Conversation
	AccountNickname string            `json:"accountNickname,omitempty"`
	MessageCount    int64             `json:"messageCount"`
	Item            *ConversationItem `json:"item"`
}

// NewConversationView attaches the item summary stored on c.
func NewConversationView(c internal.Conversation) ConversationView {
	v := ConversationView{Conversation: c}
	if c.ItemID != nil {
		v.Item = &ConversationItem{ID: *c.ItemID, Title: c.ItemTitle, PicURL: c.ItemPicURL, Price: c.ItemPrice}
	}
	return v
}

type ConversationListResponse struct {
	Conversations []ConversationView `json:"conversations"`
	Total         int64              `json:"total"`
	Limit         int                `json:"limit"`
	Offset        int                `json:"offset"`
}

type GoodsListResponse struct {
	Items      []internal.GoodsItem `json:"items"`
	NextPage   bool                 `json:"nextPage"`
	TotalCount int64                `json:"totalCount"`
}

type StockStats struct {
	Total     int64 `json:"total"`
	Used      int64 `json:"used"`
	Available int64 `json:"available"`
}

type LogFile struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	MTime int64  `json:"mtime"`
}

type LogContentResponse struct {
	Lines    []string `json:"lines"`
	Total    int      `json:"total"`
	Filtered bool     `json:"filtered,omitempty"`
	File     string   `json:"file,omitempty"`
	Date     string   `json:"date,omitempty"`
}
