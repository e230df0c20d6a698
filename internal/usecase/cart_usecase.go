package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ordering/internal/domain/model"
	"ordering/internal/domain/pricing"
	repo "ordering/internal/repository"
)

const maxSessionIDLen = 255

// CartUsecase はセッション単位のカート操作。
// 認証はないので sessionId はクライアントが発行した不透明な文字列。
type CartUsecase struct {
	items  repo.CartItemRepository
	menus  repo.MenuItemRepository
	policy pricing.Policy
	now    func() time.Time
}

func NewCartUsecase(items repo.CartItemRepository, menus repo.MenuItemRepository, policy pricing.Policy) *CartUsecase {
	return &CartUsecase{
		items:  items,
		menus:  menus,
		policy: policy,
		now:    time.Now,
	}
}

type AddCartInput struct {
	SessionID  string
	MenuItemID int64
	Quantity   int64
}

// GET /cart のレスポンス。totals は決済インテントと同じ計算。
type CartOutput struct {
	SessionID string           `json:"session_id"`
	Items     []model.CartLine `json:"items"`
	Totals    pricing.Totals   `json:"totals"`
}

func normalizeSessionID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxSessionIDLen {
		return "", NewHTTPError(http.StatusBadRequest, CodeInvalidSession, "invalid sessionId")
	}
	return s, nil
}

// AddItem は同一メニューなら数量を加算する。
func (u *CartUsecase) AddItem(ctx context.Context, in AddCartInput) (model.CartItem, error) {
	sessionID, err := normalizeSessionID(in.SessionID)
	if err != nil {
		return model.CartItem{}, err
	}
	if in.Quantity < 1 {
		return model.CartItem{}, ErrInvalidQuantity
	}
	if in.MenuItemID <= 0 {
		return model.CartItem{}, badRequest(CodeInvalidRequest, "invalid menuItemId")
	}

	//メニューの存在と販売状況
	m, err := u.menus.FindByID(ctx, in.MenuItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartItem{}, ErrNotFound
	}
	if err != nil {
		return model.CartItem{}, dbError(err)
	}
	if !m.Available {
		return model.CartItem{}, ErrItemUnavailable
	}

	item, err := u.items.UpsertAdd(ctx, sessionID, in.MenuItemID, in.Quantity)
	if errors.Is(err, repo.ErrInvalidQuantity) {
		return model.CartItem{}, ErrInvalidQuantity
	}
	if err != nil {
		return model.CartItem{}, dbError(err)
	}
	return item, nil
}

// ListItems はメニューと結合した明細と合計を返す。
func (u *CartUsecase) ListItems(ctx context.Context, sessionID string) (CartOutput, error) {
	sessionID, err := normalizeSessionID(sessionID)
	if err != nil {
		return CartOutput{}, err
	}

	lines, err := u.items.ListLinesBySession(ctx, sessionID)
	if err != nil {
		return CartOutput{}, dbError(err)
	}

	return CartOutput{
		SessionID: sessionID,
		Items:     lines,
		Totals:    u.policy.Compute(pricingLines(lines)),
	}, nil
}

// 数量0は受け付けない（削除はRemoveItem）
func (u *CartUsecase) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) (model.CartItem, error) {
	if qty < 1 {
		return model.CartItem{}, ErrInvalidQuantity
	}
	if cartItemID <= 0 {
		return model.CartItem{}, ErrNotFound
	}

	item, err := u.items.UpdateQuantity(ctx, cartItemID, qty)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartItem{}, ErrNotFound
	}
	if errors.Is(err, repo.ErrInvalidQuantity) {
		return model.CartItem{}, ErrInvalidQuantity
	}
	if err != nil {
		return model.CartItem{}, dbError(err)
	}
	return item, nil
}

// RemoveItem は冪等。消えたかどうかだけ返す。
func (u *CartUsecase) RemoveItem(ctx context.Context, cartItemID int64) (bool, error) {
	if cartItemID <= 0 {
		return false, nil
	}
	removed, err := u.items.DeleteByID(ctx, cartItemID)
	if err != nil {
		return false, dbError(err)
	}
	return removed, nil
}

// Clear は空のセッションでも成功する。
func (u *CartUsecase) Clear(ctx context.Context, sessionID string) (int64, error) {
	sessionID, err := normalizeSessionID(sessionID)
	if err != nil {
		return 0, err
	}
	n, err := u.items.ClearBySession(ctx, sessionID)
	if err != nil {
		return 0, dbError(err)
	}
	return n, nil
}

// ReapAbandoned は olderThan より更新が古い明細を消す（放置カートの掃除）。
func (u *CartUsecase) ReapAbandoned(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	n, err := u.items.DeleteUpdatedBefore(ctx, u.now().Add(-olderThan))
	if err != nil {
		return 0, dbError(err)
	}
	return n, nil
}
