package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ordering/internal/domain/model"
	"ordering/internal/domain/pricing"
	"ordering/internal/logging"
	"ordering/internal/metrics"
	repo "ordering/internal/repository"
)

const (
	finalizeScope = "finalize"

	// 通知シンクに待つ上限。超えたら注文レスポンスを優先する
	defaultNotifyTimeout = 5 * time.Second
)

// 確定後の通知用。リクエストのキャンセルは引き継がず、上限だけ付ける
func notifyContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}

// 注文者情報の検証（validatorパッケージが実装）
type CheckoutValidator interface {
	ValidateCustomer(ctx context.Context, in CustomerInfo) error
}

// チェックアウト時に受け取る注文者情報
type CustomerInfo struct {
	Name                string
	Email               string
	Phone               string
	OrderType           string
	DeliveryAddress     string
	SpecialInstructions string
}

type OrderUsecase struct {
	tx         repo.TransactionManager
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	processor  PaymentProcessor
	idem       IdempotencyStore
	validator  CheckoutValidator
	notifier   OrderNotifier
	policy     pricing.Policy
	now        func() time.Time

	notifyTimeout time.Duration
}

// DI（idem / notifier は nil 可）
func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	processor PaymentProcessor,
	idem IdempotencyStore,
	validator CheckoutValidator,
	notifier OrderNotifier,
	policy pricing.Policy,
) *OrderUsecase {
	return &OrderUsecase{
		tx:         tx,
		orders:     orders,
		orderItems: orderItems,
		processor:  processor,
		idem:       idem,
		validator:  validator,
		notifier:   notifier,
		policy:     policy,
		now:        time.Now,

		notifyTimeout: defaultNotifyTimeout,
	}
}

type FinalizeOrderInput struct {
	SessionID       string
	PaymentIntentID string
	Customer        CustomerInfo
}

// 注文＋明細スナップショット
type OrderOutput struct {
	model.Order
	Items []model.OrderItem `json:"items"`
}

type FinalizeOrderOutput struct {
	Order            OrderOutput `json:"order"`
	ConfirmationCode string      `json:"confirmationCode"`
	Message          string      `json:"message"`
}

// FinalizeOrder は決済済みインテントからカートを注文に確定する。
// 注文作成→明細→カート削除は1トランザクション。作成が必ず削除より先。
func (u *OrderUsecase) FinalizeOrder(ctx context.Context, in FinalizeOrderInput) (out FinalizeOrderOutput, err error) {
	log := logging.FromCtx(ctx)
	defer func() { metrics.CheckoutOrders.WithLabelValues(checkoutResult(err)).Inc() }()

	sessionID, err := normalizeSessionID(in.SessionID)
	if err != nil {
		return FinalizeOrderOutput{}, err
	}
	intentID := strings.TrimSpace(in.PaymentIntentID)
	if intentID == "" || len(intentID) > 255 {
		return FinalizeOrderOutput{}, badRequest(CodeInvalidPaymentReference, "invalid paymentIntentId")
	}
	if err := u.validator.ValidateCustomer(ctx, in.Customer); err != nil {
		return FinalizeOrderOutput{}, badRequest(CodeInvalidCustomer, err.Error())
	}

	// 二重送信の早期検出。Redisが落ちていてもDBのユニーク制約で守られるので続行する
	locked := false
	if u.idem != nil {
		if prev, ok, rerr := u.idem.Recall(ctx, finalizeScope, intentID); rerr == nil && ok {
			log.Info("finalize: already finalized", "payment_intent_id", intentID, "order_id", prev)
			return FinalizeOrderOutput{}, ErrDuplicateOrder
		}
		ok, lerr := u.idem.TryLock(ctx, finalizeScope, intentID)
		switch {
		case lerr != nil:
			log.Warn("finalize: idempotency lock unavailable", "err", lerr)
		case !ok:
			return FinalizeOrderOutput{}, ErrDuplicateOrder
		default:
			locked = true
		}
	}
	// 失敗したら再試行できるようにロックを外す
	defer func() {
		if locked && err != nil {
			if rerr := u.idem.Release(context.WithoutCancel(ctx), finalizeScope, intentID); rerr != nil {
				log.Warn("finalize: release lock", "err", rerr)
			}
		}
	}()

	//決済状態の確認
	intent, err := u.processor.GetIntent(ctx, intentID)
	if err != nil {
		log.Error("finalize: retrieve payment intent", "payment_intent_id", intentID, "err", err)
		return FinalizeOrderOutput{}, withCause(ErrPaymentProcessor, err)
	}
	if !intentIsPaid(intent.Status) {
		return FinalizeOrderOutput{}, ErrPaymentIncomplete
	}

	var result OrderOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		_, found, err := r.Orders().FindByPaymentIntentID(ctx, intentID)
		if err != nil {
			return dbError(err)
		}
		if found {
			return ErrDuplicateOrder
		}

		// カートを取り直す（別タブで空にされていたらここで止まる）
		lines, err := r.CartItems().ListLinesBySession(ctx, sessionID)
		if err != nil {
			return dbError(err)
		}
		totals, err := checkoutTotals(u.policy, lines)
		if err != nil {
			return err
		}
		if intent.AmountCents != totals.TotalCents() {
			log.Warn("finalize: intent amount differs from cart total",
				"payment_intent_id", intentID, "intent_cents", intent.AmountCents, "cart_cents", totals.TotalCents())
			return ErrAmountMismatch
		}

		orderType := model.OrderType(strings.TrimSpace(in.Customer.OrderType))
		if orderType == "" {
			orderType = model.OrderTypeDelivery
		}

		order := model.Order{
			CustomerName:        strings.TrimSpace(in.Customer.Name),
			CustomerEmail:       strings.TrimSpace(in.Customer.Email),
			CustomerPhone:       strings.TrimSpace(in.Customer.Phone),
			OrderType:           orderType,
			DeliveryAddress:     strings.TrimSpace(in.Customer.DeliveryAddress),
			SpecialInstructions: strings.TrimSpace(in.Customer.SpecialInstructions),
			SessionID:           sessionID,
			Subtotal:            totals.Subtotal,
			Tax:                 totals.Tax,
			DeliveryFee:         totals.DeliveryFee,
			Total:               totals.Total,
			Status:              model.OrderStatusConfirmed,
			PaymentIntentID:     intentID,
		}
		if err := r.Orders().Create(ctx, &order); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrDuplicateOrder
			}
			return dbError(err)
		}

		//スナップショット
		items := make([]model.OrderItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, model.OrderItem{
				MenuItemID:        l.MenuItemID,
				NameSnapshot:      l.MenuItem.Name,
				UnitPriceSnapshot: l.MenuItem.Price,
				Quantity:          l.Quantity,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, order.ID, items); err != nil {
			return dbError(err)
		}

		if err := r.StatusUpdates().Create(ctx, &model.OrderStatusUpdate{
			OrderID: order.ID,
			Status:  model.OrderStatusConfirmed,
			Message: "Payment received, order confirmed",
		}); err != nil {
			return dbError(err)
		}

		// 最後にカートを空にする
		if _, err := r.CartItems().ClearBySession(ctx, sessionID); err != nil {
			return dbError(err)
		}

		result = OrderOutput{Order: order, Items: items}
		return nil
	})
	if err != nil {
		if he, ok := AsHTTPError(err); ok && he.Status >= http.StatusInternalServerError {
			log.Error("finalize: transaction", "payment_intent_id", intentID, "err", err)
		}
		return FinalizeOrderOutput{}, err
	}

	if locked {
		if rerr := u.idem.Remember(ctx, finalizeScope, intentID, strconv.FormatInt(result.ID, 10)); rerr != nil {
			log.Warn("finalize: remember order", "err", rerr)
		}
	}

	// 通知はベストエフォート。失敗しても注文は成功
	if u.notifier != nil {
		nctx, cancel := notifyContext(ctx, u.notifyTimeout)
		defer cancel()
		if nerr := u.notifier.NotifyNewOrder(nctx, result.Order, result.Items); nerr != nil {
			log.Warn("finalize: notify new order", "order_id", result.ID, "err", nerr)
		}
	}

	log.Info("order finalized", "order_id", result.ID, "total", result.Total.StringFixed(2))
	return FinalizeOrderOutput{
		Order:            result,
		ConfirmationCode: ConfirmationCode(result.ID, u.now()),
		Message:          "Order created successfully",
	}, nil
}

// GetOrder は注文と明細スナップショットを返す。
func (u *OrderUsecase) GetOrder(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, ErrNotFound
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, ErrNotFound
	}
	if err != nil {
		return OrderOutput{}, dbError(err)
	}

	items, err := u.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, dbError(err)
	}
	return OrderOutput{Order: o, Items: items}, nil
}

// ConfirmationCode は表示用の確認番号（一意キーではない）。
// "IKH" + 注文IDを3桁ゼロ埋め + ミリ秒時刻の下6桁
func ConfirmationCode(orderID int64, at time.Time) string {
	ms := strconv.FormatInt(at.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return fmt.Sprintf("IKH%03d%s", orderID, ms)
}

func checkoutResult(err error) string {
	if err == nil {
		return "created"
	}
	he, ok := AsHTTPError(err)
	if !ok {
		return "error"
	}
	switch he.Code {
	case CodeEmptyCart, CodeDuplicateOrder, CodeAmountMismatch, CodePaymentIncomplete, CodeItemUnavailable:
		return he.Code
	case CodePaymentProcessor, CodePersistence:
		return "error"
	}
	return "invalid"
}
