package repository

import (
	"context"
	"time"

	"ordering/internal/domain/model"
	repo "ordering/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// セッションの明細をメニューと突き合わせて返す
// メニューが存在しない明細は落とす（1件の削除でカート全体を壊さない）
func (r *CartGormRepository) ListLinesBySession(ctx context.Context, sessionID string) ([]model.CartLine, error) {
	var items []model.CartItem
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartLine{}, err
	}
	if len(items) == 0 {
		return []model.CartLine{}, nil
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.MenuItemID)
	}

	var menus []model.MenuItem
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&menus).Error; err != nil {
		return []model.CartLine{}, err
	}
	byID := make(map[int64]model.MenuItem, len(menus))
	for _, m := range menus {
		byID[m.ID] = m
	}

	lines := make([]model.CartLine, 0, len(items))
	for _, it := range items {
		m, ok := byID[it.MenuItemID]
		if !ok {
			continue
		}
		lines = append(lines, model.CartLine{CartItem: it, MenuItem: m})
	}
	return lines, nil
}

// 同一メニューは数量加算
// (session_id, menu_item_id) のユニーク制約に ON CONFLICT で当てるので同時追加でも1行になる
func (r *CartGormRepository) UpsertAdd(ctx context.Context, sessionID string, menuItemID int64, addQty int64) (model.CartItem, error) {
	if addQty <= 0 {
		return model.CartItem{}, repo.ErrInvalidQuantity
	}

	var out model.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		item := model.CartItem{
			SessionID:  sessionID,
			MenuItemID: menuItemID,
			Quantity:   addQty,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}, {Name: "menu_item_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
				"updated_at": now,
			}),
		}).Create(&item).Error; err != nil {
			return err
		}

		return tx.
			Where("session_id = ? AND menu_item_id = ?", sessionID, menuItemID).
			First(&out).Error
	})
	if err != nil {
		return model.CartItem{}, translate(err)
	}
	return out, nil
}

// 明細の数量を更新
func (r *CartGormRepository) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) (model.CartItem, error) {
	if qty <= 0 {
		return model.CartItem{}, repo.ErrInvalidQuantity
	}

	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", cartItemID).
		Updates(map[string]interface{}{
			"quantity":   qty,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return model.CartItem{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.CartItem{}, repo.ErrNotFound
	}

	var item model.CartItem
	if err := r.db.WithContext(ctx).First(&item, cartItemID).Error; err != nil {
		return model.CartItem{}, translate(err)
	}
	return item, nil
}

// 明細を削除
func (r *CartGormRepository) DeleteByID(ctx context.Context, cartItemID int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.CartItem{}, cartItemID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// セッションの明細を全削除（空でもOK）
func (r *CartGormRepository) ClearBySession(ctx context.Context, sessionID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *CartGormRepository) DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&model.CartItem{})
	return res.RowsAffected, res.Error
}
