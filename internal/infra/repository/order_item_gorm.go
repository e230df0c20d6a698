package repository

import (
	"context"
	"fmt"

	"ordering/internal/domain/model"
	repo "ordering/internal/repository"

	"gorm.io/gorm"
)

// 1回のINSERTにまとめる明細数
const snapshotBatchSize = 100

// OrderItemGormRepository は注文明細スナップショットの保存先。
// 書いた後は更新しない（メニュー価格が変わっても注文は当時の値のまま）。
type OrderItemGormRepository struct {
	db *gorm.DB
}

func NewOrderItemGormRepository(db *gorm.DB) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db}
}

// CreateBulk は注文IDを付けて明細をまとめて書く。
// 採番されたIDと注文IDは呼び出し元のスライスにも反映する。
func (r *OrderItemGormRepository) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	rows := make([]model.OrderItem, len(items))
	for i, it := range items {
		if it.Quantity < 1 {
			return fmt.Errorf("snapshot %q: %w", it.NameSnapshot, repo.ErrInvalidQuantity)
		}
		it.ID = 0
		it.OrderID = orderID
		rows[i] = it
	}

	if err := r.db.WithContext(ctx).CreateInBatches(&rows, snapshotBatchSize).Error; err != nil {
		return translate(err)
	}

	for i := range items {
		items[i].ID = rows[i].ID
		items[i].OrderID = orderID
	}
	return nil
}

// 書いた順（= カートの並び）で返す。明細なしは空スライス
func (r *OrderItemGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	items := []model.OrderItem{}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.OrderItem{}, translate(err)
	}
	return items, nil
}
