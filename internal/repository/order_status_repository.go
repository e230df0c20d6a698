package repository

import (
	"context"

	"ordering/internal/domain/model"
)

// 注文ステータス履歴の保存・取得
type OrderStatusRepository interface {
	Create(ctx context.Context, update *model.OrderStatusUpdate) error

	//古い順
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusUpdate, error)

	//最新の1件。無ければErrNotFound
	Latest(ctx context.Context, orderID int64) (model.OrderStatusUpdate, error)
}
