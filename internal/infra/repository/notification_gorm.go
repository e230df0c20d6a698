package repository

import (
	"context"

	"ordering/internal/domain/model"

	"gorm.io/gorm"
)

type NotificationGormRepository struct {
	db *gorm.DB
}

func NewNotificationGormRepository(db *gorm.DB) *NotificationGormRepository {
	return &NotificationGormRepository{db: db}
}

func (r *NotificationGormRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationGormRepository) ListByRecipient(ctx context.Context, recipient model.NotificationRecipient, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var out []model.Notification
	if err := r.db.WithContext(ctx).
		Where("recipient = ?", recipient).
		Order("created_at desc").Order("id desc").
		Limit(limit).
		Find(&out).Error; err != nil {
		return []model.Notification{}, err
	}
	return out, nil
}

func (r *NotificationGormRepository) CountUnread(ctx context.Context, recipient model.NotificationRecipient) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient = ? AND is_read = ?", recipient, false).
		Count(&n).Error
	return n, err
}

func (r *NotificationGormRepository) MarkRead(ctx context.Context, notificationID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ?", notificationID).
		Update("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
