package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// ParseOrderStatus は文字列を既知のステータスに変換する。
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing, OrderStatusReady,
		OrderStatusOutForDelivery, OrderStatusDelivered, OrderStatusCancelled:
		return st, true
	}
	return "", false
}

// 終端ステータスか
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

// 注文。payment_intent_id がユニークなので二重確定はDBで弾かれる。
type Order struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerName        string          `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerEmail       string          `gorm:"type:varchar(255);not null;index" json:"customer_email"`
	CustomerPhone       string          `gorm:"type:varchar(50);not null" json:"customer_phone"`
	OrderType           OrderType       `gorm:"type:varchar(20);not null;default:'delivery'" json:"order_type"`
	DeliveryAddress     string          `gorm:"type:text" json:"delivery_address,omitempty"`
	SpecialInstructions string          `gorm:"type:text" json:"special_instructions,omitempty"`
	SessionID           string          `gorm:"type:varchar(255);not null;index" json:"-"`
	Subtotal            decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	Tax                 decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"tax"`
	DeliveryFee         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"delivery_fee"`
	Total               decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total"`
	Status              OrderStatus     `gorm:"type:varchar(30);not null;index" json:"status"`
	PaymentIntentID     string          `gorm:"type:varchar(255);not null;uniqueIndex" json:"payment_intent_id"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
