package model

import "time"

// 注文ステータスの履歴
type OrderStatusUpdate struct {
	ID            int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID       int64       `gorm:"not null;index" json:"order_id"`
	Status        OrderStatus `gorm:"type:varchar(30);not null" json:"status"`
	Message       string      `gorm:"type:text" json:"message,omitempty"`
	EstimatedTime string      `gorm:"type:varchar(100)" json:"estimated_time,omitempty"`
	CreatedAt     time.Time   `gorm:"not null;autoCreateTime;index" json:"created_at"`
}
