package repository

import (
	"context"
	"errors"
	"time"

	"ordering/internal/domain/model"
)

var ErrInvalidQuantity = errors.New("invalid quantity")

type CartItemRepository interface {
	// メニューと結合した明細。メニューが消えた明細は返さない。
	ListLinesBySession(ctx context.Context, sessionID string) ([]model.CartLine, error)

	// 同一(session, menu)は数量加算。結果の行を返す。
	UpsertAdd(ctx context.Context, sessionID string, menuItemID int64, addQty int64) (model.CartItem, error)

	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) (model.CartItem, error)

	// 削除できたかどうかを返す（無くてもエラーにしない）
	DeleteByID(ctx context.Context, cartItemID int64) (bool, error)

	ClearBySession(ctx context.Context, sessionID string) (int64, error)

	// 放置カートの掃除
	DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
