package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ordering/internal/domain/model"
	"ordering/internal/logging"
	"ordering/internal/metrics"
	repo "ordering/internal/repository"
)

const (
	RoutingOrderCreated       = "order.created"
	RoutingOrderStatusChanged = "order.status_changed"

	defaultFeedLimit = 50
)

// キューに流すイベント
type OrderCreatedEvent struct {
	OrderID       int64     `json:"orderId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	OrderType     string    `json:"orderType"`
	Total         string    `json:"total"`
	ItemCount     int       `json:"itemCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type OrderStatusChangedEvent struct {
	OrderID       int64     `json:"orderId"`
	Status        string    `json:"status"`
	Message       string    `json:"message,omitempty"`
	EstimatedTime string    `json:"estimatedTime,omitempty"`
	ChangedAt     time.Time `json:"changedAt"`
}

// websocketに流すメッセージ
type FeedMessage struct {
	Type         string             `json:"type"`
	Notification model.Notification `json:"notification"`
}

// 通知の下書き。Kind ごとに必要なフィールドだけ使う
type NotificationDraft struct {
	Kind      model.NotificationKind
	Order     *model.Order
	ItemCount int
	Status    model.OrderStatus
	Name      string
	Email     string
	Subject   string
}

// RenderNotification は Kind ごとにタイトル・本文・優先度を決める。
func RenderNotification(d NotificationDraft) (model.Notification, error) {
	n := model.Notification{
		Kind:      d.Kind,
		Recipient: model.RecipientRestaurant,
	}

	switch d.Kind {
	case model.NotificationNewOrder:
		if d.Order == nil {
			return model.Notification{}, errors.New("new order notification without order")
		}
		name := d.Order.CustomerName
		if strings.TrimSpace(name) == "" {
			name = "Customer"
		}
		n.Title = fmt.Sprintf("New Order #%d", d.Order.ID)
		n.Message = fmt.Sprintf("New order received from %s for $%s. Total items: %d", name, d.Order.Total.StringFixed(2), d.ItemCount)
		n.OrderID = &d.Order.ID
		n.RecipientEmail = d.Order.CustomerEmail
		n.Priority = model.PriorityHigh
	case model.NotificationOrderStatusUpdate:
		if d.Order == nil {
			return model.Notification{}, errors.New("status notification without order")
		}
		n.Title = fmt.Sprintf("Order Status Changed #%d", d.Order.ID)
		n.Message = fmt.Sprintf("Order #%d status updated to: %s", d.Order.ID, d.Status)
		n.OrderID = &d.Order.ID
		n.Priority = model.PriorityLow
	case model.NotificationCateringInquiry:
		n.Title = "New Catering Inquiry"
		n.Message = fmt.Sprintf("Catering request: %s. Contact: %s", d.Subject, d.Email)
		n.RecipientEmail = d.Email
		n.Priority = model.PriorityHigh
	case model.NotificationCustomerMessage:
		n.Title = "New Customer Message"
		n.Message = fmt.Sprintf("Message from %s (%s): %s", d.Name, d.Email, d.Subject)
		n.RecipientEmail = d.Email
		n.Priority = model.PriorityNormal
	default:
		return model.Notification{}, fmt.Errorf("unknown notification kind %q", d.Kind)
	}
	return n, nil
}

// NotificationUsecase は店舗向け通知のシンク。
// DB保存・websocket配信・キュー発行・メールはそれぞれベストエフォートで、失敗はまとめて返す。
type NotificationUsecase struct {
	notifications repo.NotificationRepository
	hub           Broadcaster
	publisher     EventPublisher
	mailer        OrderMailer
	now           func() time.Time
}

// hub / publisher / mailer は nil なら使わない
func NewNotificationUsecase(notifications repo.NotificationRepository, hub Broadcaster, publisher EventPublisher, mailer OrderMailer) *NotificationUsecase {
	return &NotificationUsecase{
		notifications: notifications,
		hub:           hub,
		publisher:     publisher,
		mailer:        mailer,
		now:           time.Now,
	}
}

func (u *NotificationUsecase) NotifyNewOrder(ctx context.Context, order model.Order, items []model.OrderItem) error {
	var errs []error

	n, err := RenderNotification(NotificationDraft{
		Kind:      model.NotificationNewOrder,
		Order:     &order,
		ItemCount: len(items),
	})
	if err != nil {
		return err
	}
	errs = append(errs, u.store(ctx, &n))

	if u.publisher != nil {
		errs = append(errs, u.channel(ctx, "queue", u.publisher.Publish(ctx, RoutingOrderCreated, OrderCreatedEvent{
			OrderID:       order.ID,
			CustomerName:  order.CustomerName,
			CustomerEmail: order.CustomerEmail,
			OrderType:     string(order.OrderType),
			Total:         order.Total.StringFixed(2),
			ItemCount:     len(items),
			CreatedAt:     u.now(),
		})))
	}

	if u.mailer != nil {
		errs = append(errs, u.channel(ctx, "email", u.mailer.SendNewOrderAlert(ctx, order, items)))
	}

	return errors.Join(errs...)
}

func (u *NotificationUsecase) NotifyOrderStatusUpdate(ctx context.Context, order model.Order, update model.OrderStatusUpdate) error {
	var errs []error

	n, err := RenderNotification(NotificationDraft{
		Kind:   model.NotificationOrderStatusUpdate,
		Order:  &order,
		Status: update.Status,
	})
	if err != nil {
		return err
	}
	errs = append(errs, u.store(ctx, &n))

	if u.publisher != nil {
		errs = append(errs, u.channel(ctx, "queue", u.publisher.Publish(ctx, RoutingOrderStatusChanged, OrderStatusChangedEvent{
			OrderID:       order.ID,
			Status:        string(update.Status),
			Message:       update.Message,
			EstimatedTime: update.EstimatedTime,
			ChangedAt:     u.now(),
		})))
	}

	return errors.Join(errs...)
}

type CustomerMessageInput struct {
	Name    string
	Email   string
	Subject string
}

// お問い合わせを店舗に通知する。こちらは保存失敗をエラーで返す。
func (u *NotificationUsecase) NotifyCustomerMessage(ctx context.Context, in CustomerMessageInput) (model.Notification, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	subject := strings.TrimSpace(in.Subject)
	if name == "" || email == "" || subject == "" {
		return model.Notification{}, badRequest(CodeInvalidRequest, "name, email and subject are required")
	}
	if len(subject) > 500 {
		return model.Notification{}, badRequest(CodeInvalidRequest, "subject too long")
	}

	n, err := RenderNotification(NotificationDraft{
		Kind:    model.NotificationCustomerMessage,
		Name:    name,
		Email:   email,
		Subject: subject,
	})
	if err != nil {
		return model.Notification{}, badRequest(CodeInvalidRequest, err.Error())
	}
	if err := u.store(ctx, &n); err != nil {
		return model.Notification{}, dbError(err)
	}
	return n, nil
}

// 保存できたものだけwebsocketに流す
func (u *NotificationUsecase) store(ctx context.Context, n *model.Notification) error {
	if err := u.notifications.Create(ctx, n); err != nil {
		return u.channel(ctx, "db", err)
	}
	if u.hub != nil {
		u.hub.Broadcast(FeedMessage{Type: "new_notification", Notification: *n})
	}
	return nil
}

func (u *NotificationUsecase) channel(ctx context.Context, name string, err error) error {
	if err == nil {
		return nil
	}
	metrics.NotificationFailures.WithLabelValues(name).Inc()
	logging.FromCtx(ctx).Warn("notification channel failed", "channel", name, "err", err)
	return fmt.Errorf("%s: %w", name, err)
}

type NotificationFeedOutput struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int64                `json:"unreadCount"`
}

// 店舗向けフィード（新しい順）
func (u *NotificationUsecase) RestaurantFeed(ctx context.Context, limit int) (NotificationFeedOutput, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > 200 {
		return NotificationFeedOutput{}, badRequest(CodeInvalidRequest, "invalid limit")
	}

	list, err := u.notifications.ListByRecipient(ctx, model.RecipientRestaurant, limit)
	if err != nil {
		return NotificationFeedOutput{}, dbError(err)
	}
	unread, err := u.notifications.CountUnread(ctx, model.RecipientRestaurant)
	if err != nil {
		return NotificationFeedOutput{}, dbError(err)
	}
	return NotificationFeedOutput{Notifications: list, UnreadCount: unread}, nil
}

func (u *NotificationUsecase) MarkRead(ctx context.Context, notificationID int64) error {
	if notificationID <= 0 {
		return ErrNotFound
	}
	ok, err := u.notifications.MarkRead(ctx, notificationID)
	if err != nil {
		return dbError(err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
