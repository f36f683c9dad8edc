package models

import (
	"time"

	"gorm.io/gorm"
)

// Order status codes reported by the platform.
const (
	OrderStatusFetching        = 0
	OrderStatusPendingPayment  = 1
	OrderStatusPendingShipment = 2
	OrderStatusPendingReceipt  = 3
	OrderStatusCompleted       = 4
	OrderStatusClosed          = 6
)

var orderStatusText = map[int]string{
	OrderStatusFetching:        "获取中",
	OrderStatusPendingPayment:  "待付款",
	OrderStatusPendingShipment: "待发货",
	OrderStatusPendingReceipt:  "待收货",
	OrderStatusCompleted:       "交易成功",
	OrderStatusClosed:          "已关闭",
}

// OrderStatusText returns the display text for a status code, or "未知".
func OrderStatusText(status int) string {
	if s, ok := orderStatusText[status]; ok {
		return s
	}
	return "未知"
}

type Order struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	OrderID           string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"orderId"`
	AccountID         string     `gorm:"type:varchar(64);not null;index" json:"accountId"`
	ItemID            string     `gorm:"type:varchar(64)" json:"itemId"`
	ItemSpecification *string    `gorm:"type:varchar(255)" json:"itemSpecification"`
	ItemTitle         string     `gorm:"type:varchar(255)" json:"itemTitle"`
	ItemPicURL        string     `gorm:"type:text" json:"itemPicUrl"`
	Price             string     `gorm:"type:varchar(32)" json:"price"`
	BuyerUserID       string     `gorm:"type:varchar(64)" json:"buyerUserId"`
	BuyerNickname     string     `gorm:"type:varchar(255)" json:"buyerNickname"`
	Status            int        `gorm:"not null;index" json:"status"`
	StatusText        string     `gorm:"-" json:"statusText"`
	OrderTime         time.Time  `json:"orderTime"`
	PayTime           *time.Time `json:"payTime"`
	ShipTime          *time.Time `json:"shipTime"`
	CompleteTime      *time.Time `json:"completeTime"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) AfterFind(tx *gorm.DB) error {
	o.StatusText = OrderStatusText(o.Status)
	return nil
}

// GoodsItem is a listing owned by an account.
type GoodsItem struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	AccountID  string    `gorm:"type:varchar(64);index" json:"accountId,omitempty"`
	Title      string    `gorm:"type:varchar(255)" json:"title"`
	Price      string    `gorm:"type:varchar(32)" json:"price"`
	PicURL     string    `gorm:"type:text" json:"picUrl"`
	PicWidth   int       `json:"picWidth"`
	PicHeight  int       `json:"picHeight"`
	CategoryID int       `json:"categoryId"`
	ItemStatus int       `gorm:"index" json:"itemStatus"`
	HasVideo   bool      `json:"hasVideo"`
	SoldPrice  string    `gorm:"type:varchar(32)" json:"soldPrice,omitempty"`
	PostInfo   string    `gorm:"type:varchar(255)" json:"postInfo,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (GoodsItem) TableName() string {
	return "goods_items"
}
