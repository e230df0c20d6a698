package usecase

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"ordering/internal/domain/model"
	"ordering/internal/domain/pricing"
	repo "ordering/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type finalizeFixture struct {
	tm       *TxManagerMock
	orders   *OrderRepoMock
	items    *OrderItemRepoMock
	carts    *CartRepoMock
	statuses *StatusRepoMock
	proc     *ProcessorMock
	idem     *IdemStoreMock
	val      *ValidatorMock
	notifier *NotifierMock
	uc       *OrderUsecase
}

func newFinalizeFixture(withIdem bool) *finalizeFixture {
	f := &finalizeFixture{
		orders:   new(OrderRepoMock),
		items:    new(OrderItemRepoMock),
		carts:    new(CartRepoMock),
		statuses: new(StatusRepoMock),
		proc:     new(ProcessorMock),
		idem:     new(IdemStoreMock),
		val:      new(ValidatorMock),
		notifier: new(NotifierMock),
	}
	f.tm = &TxManagerMock{Repos: &TxReposMock{
		orders:        f.orders,
		orderItems:    f.items,
		cartItems:     f.carts,
		statusUpdates: f.statuses,
	}}

	var idem IdempotencyStore
	if withIdem {
		idem = f.idem
	}
	f.uc = NewOrderUsecase(f.tm, f.orders, f.items, f.proc, idem, f.val, f.notifier, pricing.DefaultPolicy())
	f.uc.now = func() time.Time { return time.UnixMilli(1700000123456) }
	return f
}

func finalizeInput() FinalizeOrderInput {
	return FinalizeOrderInput{
		SessionID:       "sess-1",
		PaymentIntentID: "pi_1",
		Customer: CustomerInfo{
			Name:      "Ada Lovelace",
			Email:     "ada@example.com",
			Phone:     "555-0100",
			OrderType: "pickup",
		},
	}
}

func kababCart() []model.CartLine {
	return []model.CartLine{cartLine(1, "sess-1", menuItem(1, "Chicken Kabab", "14.99"), 2)}
}

func paidIntent(cents int64) PaymentIntent {
	return PaymentIntent{ID: "pi_1", AmountCents: cents, Currency: "usd", Status: IntentStatusSucceeded}
}

// 決済確認まで通す共通の期待値
func (f *finalizeFixture) expectUpToTx(ctx context.Context, in FinalizeOrderInput, intent PaymentIntent) {
	f.val.On("ValidateCustomer", ctx, in.Customer).Return(nil)
	f.idem.On("Recall", ctx, finalizeScope, in.PaymentIntentID).Return("", false, nil)
	f.idem.On("TryLock", ctx, finalizeScope, in.PaymentIntentID).Return(true, nil)
	f.proc.On("GetIntent", ctx, in.PaymentIntentID).Return(intent, nil)
	f.tm.On("WithinTx", ctx)
	f.orders.On("FindByPaymentIntentID", ctx, in.PaymentIntentID).Return(model.Order{}, false, nil)
}

func TestFinalizeOrder_OK(t *testing.T) {
	ctx := context.Background()
	f := newFinalizeFixture(true)
	in := finalizeInput()
	f.expectUpToTx(ctx, in, paidIntent(3537))

	var calls []string
	f.carts.On("ListLinesBySession", ctx, "sess-1").Return(kababCart(), nil)
	f.orders.On("Create", ctx, mock.AnythingOfType("*model.Order")).
		Run(func(mock.Arguments) { calls = append(calls, "create") }).
		Return(nil, int64(45)).Once()
	f.items.On("CreateBulk", ctx, int64(45), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 && items[0].NameSnapshot == "Chicken Kabab" &&
			items[0].UnitPriceSnapshot.StringFixed(2) == "14.99" && items[0].Quantity == 2
	})).Return(nil).Once()
	f.statuses.On("Create", ctx, mock.MatchedBy(func(u *model.OrderStatusUpdate) bool {
		return u.OrderID == 45 && u.Status == model.OrderStatusConfirmed
	})).Return(nil).Once()
	f.carts.On("ClearBySession", ctx, "sess-1").
		Run(func(mock.Arguments) { calls = append(calls, "clear") }).
		Return(int64(1), nil).Once()
	f.idem.On("Remember", ctx, finalizeScope, "pi_1", "45").Return(nil).Once()
	f.notifier.On("NotifyNewOrder", mock.Anything, mock.AnythingOfType("model.Order"), mock.Anything).Return(nil).Once()

	out, err := f.uc.FinalizeOrder(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, int64(45), out.Order.ID)
	assert.Equal(t, model.OrderStatusConfirmed, out.Order.Status)
	assert.Equal(t, model.OrderTypePickup, out.Order.OrderType)
	assert.Equal(t, "35.37", out.Order.Total.StringFixed(2))
	assert.Equal(t, "2.99", out.Order.DeliveryFee.StringFixed(2))
	assert.Equal(t, "pi_1", out.Order.PaymentIntentID)
	require.Len(t, out.Order.Items, 1)
	assert.Equal(t, "IKH045123456", out.ConfirmationCode)
	assert.Equal(t, "Order created successfully", out.Message)

	// 注文作成が必ずカート削除より先
	assert.Equal(t, []string{"create", "clear"}, calls)

	f.idem.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
	f.tm.AssertExpectations(t)
	f.orders.AssertExpectations(t)
	f.items.AssertExpectations(t)
	f.carts.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestFinalizeOrder_CartClearedConcurrently(t *testing.T) {
	ctx := context.Background()
	f := newFinalizeFixture(true)
	in := finalizeInput()
	f.expectUpToTx(ctx, in, paidIntent(3537))

	f.carts.On("ListLinesBySession", ctx, "sess-1").Return([]model.CartLine{}, nil)
	f.idem.On("Release", mock.Anything, finalizeScope, "pi_1").Return(nil).Once()

	_, err := f.uc.FinalizeOrder(ctx, in)
	assert.ErrorIs(t, err, ErrEmptyCart)

	he, _ := AsHTTPError(err)
	assert.Equal(t, 400, he.Status)

	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "NotifyNewOrder", mock.Anything, mock.Anything, mock.Anything)
	f.idem.AssertExpectations(t)
}

func TestFinalizeOrder_UniqueViolationIsDuplicateOrder(t *testing.T) {
	ctx := context.Background()
	f := newFinalizeFixture(false)
	in := finalizeInput()

	f.val.On("ValidateCustomer", ctx, in.Customer).Return(nil)
	f.proc.On("GetIntent", ctx, "pi_1").Return(paidIntent(3537), nil)
	f.tm.On("WithinTx", ctx)
	f.orders.On("FindByPaymentIntentID", ctx, "pi_1").Return(model.Order{}, false, nil)
	f.carts.On("ListLinesBySession", ctx, "sess-1").Return(kababCart(), nil)
	f.orders.On("Create", ctx, mock.Anything).Return(repo.ErrDuplicate).Once()

	_, err := f.uc.FinalizeOrder(ctx, in)
	assert.ErrorIs(t, err, ErrDuplicateOrder)

	// 生のDBエラーは出さない
	he, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, 409, he.Status)
	assert.Equal(t, CodeDuplicateOrder, he.Code)
	assert.NotContains(t, he.Message, "duplicate key")

	f.carts.AssertNotCalled(t, "ClearBySession", mock.Anything, mock.Anything)
	f.items.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizeOrder_AlreadyFinalizedInDB(t *testing.T) {
	ctx := context.Background()
	f := newFinalizeFixture(false)
	in := finalizeInput()

	f.val.On("ValidateCustomer", ctx, in.Customer).Return(nil)
	f.proc.On("GetIntent", ctx, "pi_1").Return(paidIntent(3537), nil)
	f.tm.On("WithinTx", ctx)
	f.orders.On("FindByPaymentIntentID", ctx, "pi_1").Return(model.Order{ID: 9}, true, nil)

	_, err := f.uc.FinalizeOrder(ctx, in)
	assert.ErrorIs(t, err, ErrDuplicateOrder)
	f.carts.AssertNotCalled(t, "ListLinesBySession", mock.Anything, mock.Anything)
}

func TestFinalizeOrder_LockHeldIsDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFinalizeFixture(true)
	in := finalizeInput()

	f.val.On("ValidateCustomer", ctx, in.Customer).Return(nil)
	f.idem.On("Recall", ctx, finalizeScope, "pi_1").Return("", false, nil)
	f.idem.On("TryLock", ctx, finalizeScope, "pi_1").Return(false, nil)

	_, err := f.uc.FinalizeOrder(ctx, in)
	assert.ErrorIs(t, err, ErrDuplicateOrder)

	f.proc.AssertNotCalled(t, "GetIntent", mock.Anything, mock.Anything)
	// 他のリクエストのロックなので外さない
	f.idem.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizeOrder_RecallHitIsDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFinalizeFixture(true)
	in := finalizeInput()

	f.val.On("ValidateCustomer", ctx, in.Customer).Return(nil)
	f.idem.On("Recall", ctx, finalizeScope, "pi_1").Return("45", true, nil)

	_, err := f.uc.FinalizeOrder(ctx, in)
	assert.ErrorIs(t, err, ErrDuplicateOrder)
	f.idem.AssertNotCalled(t, "TryLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizeOrder_IdempotencyStoreDownFallsBackToDB(t *testing.T) {
	ctx := context.Background()
	f := newFinalizeFixture(true)
	in := finalizeInput()

	redisDown := errors.New("dial tcp: connection refused")
	f.val.On("ValidateCustomer", ctx, in.Customer).Return(nil)
	f.idem.On("Recall", ctx, finalizeScope, "pi_1").Return("", false, redisDown)
	f.idem.On("TryLock", ctx, finalizeScope, "pi_1").Return(false, redisDown)
	f.proc.On("GetIntent", ctx, "pi_1").Return(paidIntent(3537), nil)
	f.tm.On("WithinTx", ctx)
	f.orders.On("FindByPaymentIntentID", ctx, "pi_1").Return(model.Order{}, false, nil)
	f.carts.On("ListLinesBySession", ctx, "sess-1").Return(kababCart(), nil)
	f.orders.On("Create", ctx, mock.Anything).Return(nil, int64(7))
	f.items.On("CreateBulk", ctx, int64(7), mock.Anything).Return(nil)
	f.statuses.On("Create", ctx, mock.Anything).Return(nil)
	f.carts.On("ClearBySession", ctx, "sess-1").Return(int64(1), nil)
	f.notifier.On("NotifyNewOrder", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	out, err := f.uc.FinalizeOrder(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.Order.ID)

	f.idem.AssertNotCalled(t, "Remember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizeOrder_AmountMismatchKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := newFinalizeFixture(true)
	in := finalizeInput()
	f.expectUpToTx(ctx, in, paidIntent(100))

	f.carts.On("ListLinesBySession", ctx, "sess-1").Return(kababCart(), nil)
	f.idem.On("Release", mock.Anything, finalizeScope, "pi_1").Return(nil).Once()

	_, err := f.uc.FinalizeOrder(ctx, in)
	assert.ErrorIs(t, err, ErrAmountMismatch)

	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.carts.AssertNotCalled(t, "ClearBySession", mock.Anything, mock.Anything)
}

func TestFinalizeOrder_PaymentIncomplete(t *testing.T) {
	ctx := context.Background()
	f := newFinalizeFixture(true)
	in := finalizeInput()

	f.val.On("ValidateCustomer", ctx, in.Customer).Return(nil)
	f.idem.On("Recall", ctx, finalizeScope, "pi_1").Return("", false, nil)
	f.idem.On("TryLock", ctx, finalizeScope, "pi_1").Return(true, nil)
	f.idem.On("Release", mock.Anything, finalizeScope, "pi_1").Return(nil).Once()
	f.proc.On("GetIntent", ctx, "pi_1").
		Return(PaymentIntent{ID: "pi_1", AmountCents: 3537, Status: IntentStatusRequiresPayment}, nil)

	_, err := f.uc.FinalizeOrder(ctx, in)
	assert.ErrorIs(t, err, ErrPaymentIncomplete)

	f.tm.AssertNotCalled(t, "WithinTx", mock.Anything)
	f.idem.AssertExpectations(t)
}

func TestFinalizeOrder_ProcessorError(t *testing.T) {
	ctx := context.Background()
	f := newFinalizeFixture(false)
	in := finalizeInput()

	f.val.On("ValidateCustomer", ctx, in.Customer).Return(nil)
	f.proc.On("GetIntent", ctx, "pi_1").Return(PaymentIntent{}, errors.New("timeout"))

	_, err := f.uc.FinalizeOrder(ctx, in)
	assert.ErrorIs(t, err, ErrPaymentProcessor)

	he, _ := AsHTTPError(err)
	assert.Equal(t, 502, he.Status)
	f.tm.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestFinalizeOrder_NotifierFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	f := newFinalizeFixture(false)
	in := finalizeInput()

	f.val.On("ValidateCustomer", ctx, in.Customer).Return(nil)
	f.proc.On("GetIntent", ctx, "pi_1").Return(paidIntent(3537), nil)
	f.tm.On("WithinTx", ctx)
	f.orders.On("FindByPaymentIntentID", ctx, "pi_1").Return(model.Order{}, false, nil)
	f.carts.On("ListLinesBySession", ctx, "sess-1").Return(kababCart(), nil)
	f.orders.On("Create", ctx, mock.Anything).Return(nil, int64(3))
	f.items.On("CreateBulk", ctx, int64(3), mock.Anything).Return(nil)
	f.statuses.On("Create", ctx, mock.Anything).Return(nil)
	f.carts.On("ClearBySession", ctx, "sess-1").Return(int64(1), nil)
	f.notifier.On("NotifyNewOrder", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("rabbitmq down")).Once()

	out, err := f.uc.FinalizeOrder(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "IKH003123456", out.ConfirmationCode)
	f.notifier.AssertExpectations(t)
}

// 通知先が止まっていても注文レスポンスは上限時間で返る
func TestFinalizeOrder_StalledNotifierIsBounded(t *testing.T) {
	ctx := context.Background()
	f := newFinalizeFixture(false)
	f.uc.notifyTimeout = 50 * time.Millisecond
	in := finalizeInput()

	f.val.On("ValidateCustomer", ctx, in.Customer).Return(nil)
	f.proc.On("GetIntent", ctx, "pi_1").Return(paidIntent(3537), nil)
	f.tm.On("WithinTx", ctx)
	f.orders.On("FindByPaymentIntentID", ctx, "pi_1").Return(model.Order{}, false, nil)
	f.carts.On("ListLinesBySession", ctx, "sess-1").Return(kababCart(), nil)
	f.orders.On("Create", ctx, mock.Anything).Return(nil, int64(8))
	f.items.On("CreateBulk", ctx, int64(8), mock.Anything).Return(nil)
	f.statuses.On("Create", ctx, mock.Anything).Return(nil)
	f.carts.On("ClearBySession", ctx, "sess-1").Return(int64(1), nil)
	f.notifier.On("NotifyNewOrder", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			nctx := args.Get(0).(context.Context)
			_, hasDeadline := nctx.Deadline()
			assert.True(t, hasDeadline)
			<-nctx.Done()
		}).
		Return(context.DeadlineExceeded).Once()

	start := time.Now()
	out, err := f.uc.FinalizeOrder(ctx, in)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int64(8), out.Order.ID)
	f.notifier.AssertExpectations(t)
}

// 支払い後に販売停止になっても、課金済みの注文は作る
func TestFinalizeOrder_ItemUnavailableAfterPaymentStillCreatesOrder(t *testing.T) {
	ctx := context.Background()
	f := newFinalizeFixture(false)
	in := finalizeInput()

	lines := kababCart()
	lines[0].MenuItem.Available = false

	f.val.On("ValidateCustomer", ctx, in.Customer).Return(nil)
	f.proc.On("GetIntent", ctx, "pi_1").Return(paidIntent(3537), nil)
	f.tm.On("WithinTx", ctx)
	f.orders.On("FindByPaymentIntentID", ctx, "pi_1").Return(model.Order{}, false, nil)
	f.carts.On("ListLinesBySession", ctx, "sess-1").Return(lines, nil)
	f.orders.On("Create", ctx, mock.Anything).Return(nil, int64(9)).Once()
	f.items.On("CreateBulk", ctx, int64(9), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 && items[0].NameSnapshot == "Chicken Kabab"
	})).Return(nil).Once()
	f.statuses.On("Create", ctx, mock.Anything).Return(nil)
	f.carts.On("ClearBySession", ctx, "sess-1").Return(int64(1), nil).Once()
	f.notifier.On("NotifyNewOrder", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	out, err := f.uc.FinalizeOrder(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "35.37", out.Order.Total.StringFixed(2))
	f.orders.AssertExpectations(t)
	f.carts.AssertExpectations(t)
}

func TestFinalizeOrder_ClearFailureIsPersistenceError(t *testing.T) {
	ctx := context.Background()
	f := newFinalizeFixture(false)
	in := finalizeInput()

	f.val.On("ValidateCustomer", ctx, in.Customer).Return(nil)
	f.proc.On("GetIntent", ctx, "pi_1").Return(paidIntent(3537), nil)
	f.tm.On("WithinTx", ctx)
	f.orders.On("FindByPaymentIntentID", ctx, "pi_1").Return(model.Order{}, false, nil)
	f.carts.On("ListLinesBySession", ctx, "sess-1").Return(kababCart(), nil)
	f.orders.On("Create", ctx, mock.Anything).Return(nil, int64(3))
	f.items.On("CreateBulk", ctx, int64(3), mock.Anything).Return(nil)
	f.statuses.On("Create", ctx, mock.Anything).Return(nil)
	f.carts.On("ClearBySession", ctx, "sess-1").Return(int64(0), errors.New("deadlock"))

	_, err := f.uc.FinalizeOrder(ctx, in)
	assert.ErrorIs(t, err, ErrPersistence)
	f.notifier.AssertNotCalled(t, "NotifyNewOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizeOrder_InputValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("blank session", func(t *testing.T) {
		f := newFinalizeFixture(true)
		in := finalizeInput()
		in.SessionID = ""

		_, err := f.uc.FinalizeOrder(ctx, in)
		he, _ := AsHTTPError(err)
		require.NotNil(t, he)
		assert.Equal(t, CodeInvalidSession, he.Code)
	})

	t.Run("blank payment intent", func(t *testing.T) {
		f := newFinalizeFixture(true)
		in := finalizeInput()
		in.PaymentIntentID = "  "

		_, err := f.uc.FinalizeOrder(ctx, in)
		he, _ := AsHTTPError(err)
		require.NotNil(t, he)
		assert.Equal(t, CodeInvalidPaymentReference, he.Code)
	})

	t.Run("invalid customer", func(t *testing.T) {
		f := newFinalizeFixture(true)
		in := finalizeInput()
		f.val.On("ValidateCustomer", ctx, in.Customer).Return(errors.New("customerEmail is invalid"))

		_, err := f.uc.FinalizeOrder(ctx, in)
		he, _ := AsHTTPError(err)
		require.NotNil(t, he)
		assert.Equal(t, CodeInvalidCustomer, he.Code)
		assert.Equal(t, "customerEmail is invalid", he.Message)
		f.idem.AssertNotCalled(t, "TryLock", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		f := newFinalizeFixture(false)
		f.orders.On("FindByID", ctx, int64(5)).Return(model.Order{}, repo.ErrNotFound)

		_, err := f.uc.GetOrder(ctx, 5)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("with items", func(t *testing.T) {
		f := newFinalizeFixture(false)
		f.orders.On("FindByID", ctx, int64(5)).Return(model.Order{ID: 5, Status: model.OrderStatusReady}, nil)
		f.items.On("ListByOrderID", ctx, int64(5)).Return([]model.OrderItem{{OrderID: 5, NameSnapshot: "Beef Kabab", Quantity: 1}}, nil)

		out, err := f.uc.GetOrder(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusReady, out.Status)
		require.Len(t, out.Items, 1)
		assert.Equal(t, "Beef Kabab", out.Items[0].NameSnapshot)
	})
}

func TestConfirmationCode(t *testing.T) {
	at := time.UnixMilli(1700000123456)

	assert.Equal(t, "IKH045123456", ConfirmationCode(45, at))
	assert.Equal(t, "IKH001123456", ConfirmationCode(1, at))
	assert.Equal(t, "IKH12345123456", ConfirmationCode(12345, at))

	re := regexp.MustCompile(`^IKH\d{3,}\d{6}$`)
	assert.Regexp(t, re, ConfirmationCode(7, time.Now()))
}
