package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文時点のスナップショット（後からメニューが変わっても変えない）
type OrderItem struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderID           int64           `gorm:"not null;index" json:"-"`
	MenuItemID        int64           `gorm:"not null;index" json:"menu_item_id"`
	NameSnapshot      string          `gorm:"type:varchar(255);not null" json:"name"`
	UnitPriceSnapshot decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Quantity          int64           `gorm:"not null" json:"quantity"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime" json:"-"`
}
