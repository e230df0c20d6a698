package repository

import (
	"context"
	"errors"

	"ordering/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// ユニーク制約違反（payment_intent_id など）
var ErrDuplicate = errors.New("duplicate")

// メニューの参照。カートからは読むだけ。
type MenuItemRepository interface {
	ListAll(ctx context.Context) ([]model.MenuItem, error)
	ListByCategory(ctx context.Context, category string) ([]model.MenuItem, error)
	FindByID(ctx context.Context, id int64) (model.MenuItem, error)

	// 初期データ投入用
	Count(ctx context.Context) (int64, error)
	CreateBulk(ctx context.Context, items []model.MenuItem) error
}
