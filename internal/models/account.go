package models

import (
	"time"

	"gorm.io/gorm"
)

// Account is one resale-platform login driven by the console.
type Account struct {
	ID            string        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Cookies       string        `gorm:"type:text;not null" json:"cookies"`
	UserID        string        `gorm:"type:varchar(64);index" json:"userId,omitempty"`
	Nickname      string        `gorm:"type:varchar(255)" json:"nickname,omitempty"`
	Avatar        string        `gorm:"type:text" json:"avatar,omitempty"`
	Enabled       bool          `gorm:"not null" json:"enabled"`
	Remark        string        `gorm:"type:text" json:"remark,omitempty"`
	ProxyType     *string       `gorm:"type:varchar(10)" json:"proxyType"`
	ProxyHost     string        `gorm:"type:varchar(255)" json:"proxyHost,omitempty"`
	ProxyPort     int           `json:"proxyPort,omitempty"`
	ProxyUsername string        `gorm:"type:varchar(255)" json:"proxyUsername,omitempty"`
	ProxyPassword string        `gorm:"type:varchar(255)" json:"proxyPassword,omitempty"`
	Status        AccountStatus `gorm:"embedded;embeddedPrefix:status_" json:"status"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Account) TableName() string {
	return "accounts"
}

// AccountStatus is the last known connection state reported by the
// account's worker.
type AccountStatus struct {
	AccountID        string     `gorm:"-" json:"accountId"`
	Connected        bool       `json:"connected"`
	LastHeartbeat    *time.Time `json:"lastHeartbeat,omitempty"`
	LastTokenRefresh *time.Time `json:"lastTokenRefresh,omitempty"`
	ErrorMessage     string     `gorm:"type:text" json:"errorMessage,omitempty"`
}

func (a *Account) AfterFind(tx *gorm.DB) error {
	a.Status.AccountID = a.ID
	return nil
}

// Redacted returns a copy without credentials, for list views.
func (a Account) Redacted() Account {
	a.Cookies = ""
	a.ProxyPassword = ""
	return a
}
