package repository

import (
	"context"

	"ordering/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error

	//新しい順
	ListByRecipient(ctx context.Context, recipient model.NotificationRecipient, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, recipient model.NotificationRecipient) (int64, error)

	MarkRead(ctx context.Context, notificationID int64) (bool, error)
}
