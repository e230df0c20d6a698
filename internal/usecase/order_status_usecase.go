package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ordering/internal/domain/model"
	"ordering/internal/logging"
	repo "ordering/internal/repository"
)

// 店舗側の注文ステータス更新と履歴
type OrderStatusUsecase struct {
	tx            repo.TransactionManager
	statuses      repo.OrderStatusRepository
	notifier      OrderNotifier
	notifyTimeout time.Duration
}

func NewOrderStatusUsecase(tx repo.TransactionManager, statuses repo.OrderStatusRepository, notifier OrderNotifier) *OrderStatusUsecase {
	return &OrderStatusUsecase{tx: tx, statuses: statuses, notifier: notifier, notifyTimeout: defaultNotifyTimeout}
}

type UpdateOrderStatusInput struct {
	OrderID       int64
	Status        string
	Message       string
	EstimatedTime string
}

// UpdateStatus は注文のステータスを変えて履歴に追加する。
// delivered / cancelled からは動かせない（同じ値の再送は履歴だけ追加）。
func (u *OrderStatusUsecase) UpdateStatus(ctx context.Context, in UpdateOrderStatusInput) (model.OrderStatusUpdate, error) {
	if in.OrderID <= 0 {
		return model.OrderStatusUpdate{}, badRequest(CodeInvalidRequest, "invalid orderId")
	}
	newStatus, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return model.OrderStatusUpdate{}, badRequest(CodeInvalidStatus, "invalid status")
	}

	var (
		order  model.Order
		update model.OrderStatusUpdate
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同時更新が両方とも終端ガードを抜けないよう行ロックで読む
		o, err := r.Orders().FindByIDForUpdate(ctx, in.OrderID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return dbError(err)
		}

		// 終端ガード
		if o.Status.IsTerminal() && o.Status != newStatus {
			return NewHTTPError(http.StatusBadRequest, CodeInvalidTransition, "cannot change "+string(o.Status)+" order")
		}

		if o.Status != newStatus {
			if err := r.Orders().UpdateStatus(ctx, o.ID, newStatus); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return ErrNotFound
				}
				return dbError(err)
			}
			o.Status = newStatus
		}

		update = model.OrderStatusUpdate{
			OrderID:       o.ID,
			Status:        newStatus,
			Message:       strings.TrimSpace(in.Message),
			EstimatedTime: strings.TrimSpace(in.EstimatedTime),
		}
		if err := r.StatusUpdates().Create(ctx, &update); err != nil {
			return dbError(err)
		}

		order = o
		return nil
	})
	if err != nil {
		return model.OrderStatusUpdate{}, err
	}

	if u.notifier != nil {
		nctx, cancel := notifyContext(ctx, u.notifyTimeout)
		defer cancel()
		if nerr := u.notifier.NotifyOrderStatusUpdate(nctx, order, update); nerr != nil {
			logging.FromCtx(ctx).Warn("order status: notify", "order_id", order.ID, "err", nerr)
		}
	}
	return update, nil
}

// 古い順の履歴
func (u *OrderStatusUsecase) History(ctx context.Context, orderID int64) ([]model.OrderStatusUpdate, error) {
	if orderID <= 0 {
		return []model.OrderStatusUpdate{}, badRequest(CodeInvalidRequest, "invalid orderId")
	}
	out, err := u.statuses.ListByOrderID(ctx, orderID)
	if err != nil {
		return []model.OrderStatusUpdate{}, dbError(err)
	}
	return out, nil
}

func (u *OrderStatusUsecase) Latest(ctx context.Context, orderID int64) (model.OrderStatusUpdate, error) {
	if orderID <= 0 {
		return model.OrderStatusUpdate{}, badRequest(CodeInvalidRequest, "invalid orderId")
	}
	st, err := u.statuses.Latest(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.OrderStatusUpdate{}, ErrNotFound
	}
	if err != nil {
		return model.OrderStatusUpdate{}, dbError(err)
	}
	return st, nil
}
