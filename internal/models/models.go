package models

import (
	"time"
)

// Workflow is a delivery pipeline. Definition holds the serialized node
// sequence; see internal/workflow for its format.
type Workflow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	Definition  string    `gorm:"type:text;not null" json:"definition"`
	IsDefault   bool      `gorm:"default:false;index" json:"isDefault"`
	Enabled     bool      `gorm:"not null" json:"enabled"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Workflow) TableName() string {
	return "workflows"
}

// SystemSetting is a key/value pair editable from the settings page.
type SystemSetting struct {
	Key       string    `gorm:"primaryKey;type:varchar(100)" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}

// ScheduledTask periodically refreshes items for an account. Tasks are only
// stored here; running them is left to the account workers.
type ScheduledTask struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"type:varchar(255);not null" json:"name"`
	TaskType       string     `gorm:"type:varchar(50);not null" json:"taskType"`
	AccountID      *string    `gorm:"type:varchar(64);index" json:"accountId"`
	Enabled        bool       `gorm:"not null" json:"enabled"`
	IntervalHours  int        `gorm:"default:24" json:"intervalHours"`
	DelayMinutes   int        `gorm:"default:0" json:"delayMinutes"`
	RandomDelayMax int        `gorm:"default:0" json:"randomDelayMax"`
	LastRunAt      *time.Time `json:"lastRunAt"`
	NextRunAt      *time.Time `json:"nextRunAt"`
	RunCount       int        `gorm:"default:0" json:"runCount"`
	SystemUserID   *uint      `json:"systemUserId"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (ScheduledTask) TableName() string {
	return "scheduled_tasks"
}

const TaskTypeItemRefresh = "item_refresh"

// ComputeNextRun returns the first run time after from: the configured
// interval plus the fixed delay.
func (t ScheduledTask) ComputeNextRun(from time.Time) time.Time {
	return from.Add(time.Duration(t.IntervalHours)*time.Hour + time.Duration(t.DelayMinutes)*time.Minute)
}

// User is a dashboard login.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"type:varchar(255)" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         string    `gorm:"type:varchar(20);default:'user'" json:"role"`
	Enabled      bool      `gorm:"not null" json:"enabled"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// All lists every model for auto-migration.
func All() []any {
	return []any{
		&Account{},
		&AutoReplyRule{},
		&AutoSellRule{},
		&StockItem{},
		&DeliveryLog{},
		&Order{},
		&GoodsItem{},
		&Conversation{},
		&ConversationMessage{},
		&NotificationChannel{},
		&MessageNotification{},
		&Workflow{},
		&ScheduledTask{},
		&User{},
		&SystemSetting{},
	}
}
