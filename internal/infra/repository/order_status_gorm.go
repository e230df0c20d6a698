package repository

import (
	"context"

	"ordering/internal/domain/model"
	repo "ordering/internal/repository"

	"gorm.io/gorm"
)

type orderStatusGormRepository struct {
	db *gorm.DB
}

func NewOrderStatusGormRepository(db *gorm.DB) repo.OrderStatusRepository {
	return &orderStatusGormRepository{db: db}
}

func (r *orderStatusGormRepository) Create(ctx context.Context, update *model.OrderStatusUpdate) error {
	if err := r.db.WithContext(ctx).Create(update).Error; err != nil {
		return err
	}
	return nil
}

func (r *orderStatusGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusUpdate, error) {
	var out []model.OrderStatusUpdate
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc").Order("id asc").
		Find(&out).Error; err != nil {
		return []model.OrderStatusUpdate{}, err
	}
	return out, nil
}

// 最新（created_atが同じならid大きい方）
func (r *orderStatusGormRepository) Latest(ctx context.Context, orderID int64) (model.OrderStatusUpdate, error) {
	var u model.OrderStatusUpdate
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at desc").Order("id desc").
		First(&u).Error
	if err != nil {
		return model.OrderStatusUpdate{}, translate(err)
	}
	return u, nil
}
