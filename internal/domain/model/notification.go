package model

import "time"

// 通知の種類
type NotificationKind string

const (
	NotificationNewOrder          NotificationKind = "order_new"
	NotificationOrderStatusUpdate NotificationKind = "order_update"
	NotificationCateringInquiry   NotificationKind = "catering_inquiry"
	NotificationCustomerMessage   NotificationKind = "customer_message"
)

// 宛先
type NotificationRecipient string

const (
	RecipientRestaurant NotificationRecipient = "restaurant"
	RecipientCustomer   NotificationRecipient = "customer"
)

type NotificationPriority string

const (
	PriorityHigh   NotificationPriority = "high"
	PriorityNormal NotificationPriority = "normal"
	PriorityLow    NotificationPriority = "low"
)

type Notification struct {
	ID             int64                 `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind           NotificationKind      `gorm:"column:type;type:varchar(30);not null;index" json:"type"`
	Title          string                `gorm:"type:varchar(255);not null" json:"title"`
	Message        string                `gorm:"type:text;not null" json:"message"`
	Recipient      NotificationRecipient `gorm:"type:varchar(20);not null;index" json:"recipient"`
	RecipientEmail string                `gorm:"type:varchar(255)" json:"recipient_email,omitempty"`
	OrderID        *int64                `gorm:"index" json:"order_id,omitempty"`
	IsRead         bool                  `gorm:"not null;default:false;index" json:"is_read"`
	Priority       NotificationPriority  `gorm:"type:varchar(10);not null;default:'normal'" json:"priority"`
	CreatedAt      time.Time             `gorm:"not null;autoCreateTime;index" json:"created_at"`
}
