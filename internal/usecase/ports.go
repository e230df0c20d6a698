package usecase

import (
	"context"

	"ordering/internal/domain/model"
)

// 決済代行側のインテント
type PaymentIntent struct {
	ID           string
	ClientSecret string
	AmountCents  int64
	Currency     string
	Status       string
}

// 注文確定してよいインテントの状態
const (
	IntentStatusSucceeded       = "succeeded"
	IntentStatusProcessing      = "processing"
	IntentStatusRequiresCapture = "requires_capture"
	IntentStatusRequiresPayment = "requires_payment_method"
	IntentStatusCanceled        = "canceled"
)

func intentIsPaid(status string) bool {
	switch status {
	case IntentStatusSucceeded, IntentStatusProcessing, IntentStatusRequiresCapture:
		return true
	}
	return false
}

// 外部の決済代行。metadataは表示用で信用しない。
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, amountCents int64, metadata map[string]string) (PaymentIntent, error)
	GetIntent(ctx context.Context, intentID string) (PaymentIntent, error)
}

// 二重送信の早期検出。最終的な保証はDBのユニーク制約。
type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

// 注文イベントの発行先（RabbitMQ）
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// スタッフ画面へのリアルタイム配信（websocket）
type Broadcaster interface {
	Broadcast(msg any)
}

// 店舗向けメール通知
type OrderMailer interface {
	SendNewOrderAlert(ctx context.Context, order model.Order, items []model.OrderItem) error
}

// 注文確定・ステータス変更の通知先。失敗しても呼び出し側は止めない。
type OrderNotifier interface {
	NotifyNewOrder(ctx context.Context, order model.Order, items []model.OrderItem) error
	NotifyOrderStatusUpdate(ctx context.Context, order model.Order, update model.OrderStatusUpdate) error
}

// メニュー一覧のキャッシュ。key は "all" か "category:<name>"。
type MenuCache interface {
	Get(ctx context.Context, key string) ([]model.MenuItem, bool, error)
	Set(ctx context.Context, key string, items []model.MenuItem) error
	Invalidate(ctx context.Context) error
}
