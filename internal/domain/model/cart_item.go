package model

import "time"

// カートの明細
// (session_id, menu_item_id) は1行だけ。追加は数量マージ。
type CartItem struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID  string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_cart_items_session_menu,priority:1" json:"session_id"`
	MenuItemID int64     `gorm:"not null;uniqueIndex:ux_cart_items_session_menu,priority:2" json:"menu_item_id"`
	Quantity   int64     `gorm:"not null" json:"quantity"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime;index" json:"updated_at"`
}

// 明細＋その時点のメニュー情報
type CartLine struct {
	CartItem
	MenuItem MenuItem `json:"menu_item"`
}
