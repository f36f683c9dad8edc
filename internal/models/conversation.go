package models

import (
	"time"
)

// Conversation is one chat between an account and a buyer, keyed by
// (accountId, chatId).
type Conversation struct {
	AccountID   string     `gorm:"primaryKey;type:varchar(64)" json:"accountId"`
	ChatID      string     `gorm:"primaryKey;type:varchar(64)" json:"chatId"`
	UserID      string     `gorm:"type:varchar(64)" json:"userId,omitempty"`
	UserName    string     `gorm:"type:varchar(255)" json:"userName"`
	UserAvatar  string     `gorm:"type:text" json:"userAvatar,omitempty"`
	LastMessage string     `gorm:"type:text" json:"lastMessage,omitempty"`
	LastTime    *time.Time `gorm:"index" json:"lastTime,omitempty"`
	Unread      int        `gorm:"default:0" json:"unread"`
	ItemID      *string    `gorm:"type:varchar(64)" json:"itemId,omitempty"`
	ItemTitle   *string    `gorm:"type:varchar(255)" json:"-"`
	ItemPicURL  *string    `gorm:"type:text" json:"-"`
	ItemPrice   *string    `gorm:"type:varchar(32)" json:"-"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"-"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"-"`
}

func (Conversation) TableName() string {
	return "conversations"
}

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

type ConversationMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AccountID  string    `gorm:"type:varchar(64);not null;index:idx_conversation_messages_chat" json:"-"`
	ChatID     string    `gorm:"type:varchar(64);not null;index:idx_conversation_messages_chat" json:"-"`
	SenderID   string    `gorm:"type:varchar(64)" json:"senderId"`
	SenderName string    `gorm:"type:varchar(255)" json:"senderName"`
	Content    string    `gorm:"type:text" json:"content"`
	MsgTime    string    `gorm:"type:varchar(32)" json:"msgTime"`
	MsgID      string    `gorm:"type:varchar(64)" json:"msgId,omitempty"`
	Timestamp  int64     `gorm:"index" json:"timestamp"`
	Direction  string    `gorm:"type:varchar(8);not null" json:"direction"`
	ItemID     string    `gorm:"type:varchar(64)" json:"itemId,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"-"`
}

func (ConversationMessage) TableName() string {
	return "conversation_messages"
}

// Notification channel types.
const (
	ChannelEmail    = "email"
	ChannelWebhook  = "webhook"
	ChannelDingTalk = "dingtalk"
	ChannelWeChat   = "wechat"
	ChannelTelegram = "telegram"
)

// NotificationChannel is a destination for account alerts. Config keys
// depend on Type.
type NotificationChannel struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Type      string         `gorm:"type:varchar(20);not null" json:"type"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Config    map[string]any `gorm:"type:text;serializer:json" json:"config"`
	Enabled   bool           `gorm:"not null" json:"enabled"`
	AccountID *string        `gorm:"type:varchar(64);index" json:"accountId,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (NotificationChannel) TableName() string {
	return "notification_channels"
}

// MessageNotification forwards buyer messages matching Keywords to a channel.
type MessageNotification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID string    `gorm:"type:varchar(64);not null;index" json:"accountId"`
	ChannelID uint      `gorm:"not null;index" json:"channelId"`
	Keywords  string    `gorm:"type:text" json:"keywords"`
	Enabled   bool      `gorm:"not null" json:"enabled"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (MessageNotification) TableName() string {
	return "message_notifications"
}
