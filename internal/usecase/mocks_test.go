package usecase

import (
	"context"
	"time"

	"ordering/internal/domain/model"
	repo "ordering/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	cartItems     repo.CartItemRepository
	statusUpdates repo.OrderStatusRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository              { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository      { return r.orderItems }
func (r *TxReposMock) CartItems() repo.CartItemRepository        { return r.cartItems }
func (r *TxReposMock) StatusUpdates() repo.OrderStatusRepository { return r.statusUpdates }

// =====================
// Repository mocks
// =====================

type MenuRepoMock struct{ mock.Mock }

func (m *MenuRepoMock) ListAll(ctx context.Context) ([]model.MenuItem, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.MenuItem)
	return items, args.Error(1)
}

func (m *MenuRepoMock) ListByCategory(ctx context.Context, category string) ([]model.MenuItem, error) {
	args := m.Called(ctx, category)
	items, _ := args.Get(0).([]model.MenuItem)
	return items, args.Error(1)
}

func (m *MenuRepoMock) FindByID(ctx context.Context, id int64) (model.MenuItem, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(model.MenuItem)
	return item, args.Error(1)
}

func (m *MenuRepoMock) Count(ctx context.Context) (int64, error) {
	panic("not used in usecase tests")
}

func (m *MenuRepoMock) CreateBulk(ctx context.Context, items []model.MenuItem) error {
	panic("not used in usecase tests")
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) ListLinesBySession(ctx context.Context, sessionID string) ([]model.CartLine, error) {
	args := m.Called(ctx, sessionID)
	lines, _ := args.Get(0).([]model.CartLine)
	return lines, args.Error(1)
}

func (m *CartRepoMock) UpsertAdd(ctx context.Context, sessionID string, menuItemID int64, addQty int64) (model.CartItem, error) {
	args := m.Called(ctx, sessionID, menuItemID, addQty)
	item, _ := args.Get(0).(model.CartItem)
	return item, args.Error(1)
}

func (m *CartRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID, qty)
	item, _ := args.Get(0).(model.CartItem)
	return item, args.Error(1)
}

func (m *CartRepoMock) DeleteByID(ctx context.Context, cartItemID int64) (bool, error) {
	args := m.Called(ctx, cartItemID)
	return args.Bool(0), args.Error(1)
}

func (m *CartRepoMock) ClearBySession(ctx context.Context, sessionID string) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CartRepoMock) DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

// Create は成功時に ID を採番する（DBの代わり）
func (m *OrderRepoMock) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	if err := args.Error(0); err != nil {
		return err
	}
	if len(args) > 1 {
		order.ID = args.Get(1).(int64)
	}
	return nil
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (model.Order, bool, error) {
	args := m.Called(ctx, paymentIntentID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type StatusRepoMock struct{ mock.Mock }

func (m *StatusRepoMock) Create(ctx context.Context, update *model.OrderStatusUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

func (m *StatusRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusUpdate, error) {
	args := m.Called(ctx, orderID)
	out, _ := args.Get(0).([]model.OrderStatusUpdate)
	return out, args.Error(1)
}

func (m *StatusRepoMock) Latest(ctx context.Context, orderID int64) (model.OrderStatusUpdate, error) {
	args := m.Called(ctx, orderID)
	u, _ := args.Get(0).(model.OrderStatusUpdate)
	return u, args.Error(1)
}

type NotificationRepoMock struct{ mock.Mock }

func (m *NotificationRepoMock) Create(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationRepoMock) ListByRecipient(ctx context.Context, recipient model.NotificationRecipient, limit int) ([]model.Notification, error) {
	args := m.Called(ctx, recipient, limit)
	out, _ := args.Get(0).([]model.Notification)
	return out, args.Error(1)
}

func (m *NotificationRepoMock) CountUnread(ctx context.Context, recipient model.NotificationRecipient) (int64, error) {
	args := m.Called(ctx, recipient)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepoMock) MarkRead(ctx context.Context, notificationID int64) (bool, error) {
	args := m.Called(ctx, notificationID)
	return args.Bool(0), args.Error(1)
}

// =====================
// Port mocks
// =====================

type ProcessorMock struct{ mock.Mock }

func (m *ProcessorMock) CreateIntent(ctx context.Context, amountCents int64, metadata map[string]string) (PaymentIntent, error) {
	args := m.Called(ctx, amountCents, metadata)
	pi, _ := args.Get(0).(PaymentIntent)
	return pi, args.Error(1)
}

func (m *ProcessorMock) GetIntent(ctx context.Context, intentID string) (PaymentIntent, error) {
	args := m.Called(ctx, intentID)
	pi, _ := args.Get(0).(PaymentIntent)
	return pi, args.Error(1)
}

type IdemStoreMock struct{ mock.Mock }

func (m *IdemStoreMock) TryLock(ctx context.Context, scope, key string) (bool, error) {
	args := m.Called(ctx, scope, key)
	return args.Bool(0), args.Error(1)
}

func (m *IdemStoreMock) Release(ctx context.Context, scope, key string) error {
	args := m.Called(ctx, scope, key)
	return args.Error(0)
}

func (m *IdemStoreMock) Remember(ctx context.Context, scope, key, value string) error {
	args := m.Called(ctx, scope, key, value)
	return args.Error(0)
}

func (m *IdemStoreMock) Recall(ctx context.Context, scope, key string) (string, bool, error) {
	args := m.Called(ctx, scope, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

type ValidatorMock struct{ mock.Mock }

func (m *ValidatorMock) ValidateCustomer(ctx context.Context, in CustomerInfo) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) NotifyNewOrder(ctx context.Context, order model.Order, items []model.OrderItem) error {
	args := m.Called(ctx, order, items)
	return args.Error(0)
}

func (m *NotifierMock) NotifyOrderStatusUpdate(ctx context.Context, order model.Order, update model.OrderStatusUpdate) error {
	args := m.Called(ctx, order, update)
	return args.Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

type MailerMock struct{ mock.Mock }

func (m *MailerMock) SendNewOrderAlert(ctx context.Context, order model.Order, items []model.OrderItem) error {
	args := m.Called(ctx, order, items)
	return args.Error(0)
}

type BroadcasterMock struct{ mock.Mock }

func (m *BroadcasterMock) Broadcast(msg any) {
	m.Called(msg)
}

type MenuCacheMock struct{ mock.Mock }

func (m *MenuCacheMock) Get(ctx context.Context, key string) ([]model.MenuItem, bool, error) {
	args := m.Called(ctx, key)
	items, _ := args.Get(0).([]model.MenuItem)
	return items, args.Bool(1), args.Error(2)
}

func (m *MenuCacheMock) Set(ctx context.Context, key string, items []model.MenuItem) error {
	args := m.Called(ctx, key, items)
	return args.Error(0)
}

func (m *MenuCacheMock) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
