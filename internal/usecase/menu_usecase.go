package usecase

import (
	"context"
	"errors"
	"strings"

	"ordering/internal/domain/model"
	"ordering/internal/logging"
	repo "ordering/internal/repository"
)

const menuCacheAll = "all"

// MenuUsecase はメニュー閲覧。一覧だけキャッシュを通す。
// カート・会計は常にDBの価格を読むので、ここのキャッシュは影響しない。
type MenuUsecase struct {
	menus repo.MenuItemRepository
	cache MenuCache
}

// cache は nil 可
func NewMenuUsecase(menus repo.MenuItemRepository, cache MenuCache) *MenuUsecase {
	return &MenuUsecase{menus: menus, cache: cache}
}

func (u *MenuUsecase) ListAll(ctx context.Context) ([]model.MenuItem, error) {
	return u.cached(ctx, menuCacheAll, func() ([]model.MenuItem, error) {
		return u.menus.ListAll(ctx)
	})
}

func (u *MenuUsecase) ListByCategory(ctx context.Context, category string) ([]model.MenuItem, error) {
	category = strings.TrimSpace(category)
	if category == "" || len(category) > 100 {
		return []model.MenuItem{}, badRequest(CodeInvalidRequest, "invalid category")
	}
	return u.cached(ctx, "category:"+category, func() ([]model.MenuItem, error) {
		return u.menus.ListByCategory(ctx, category)
	})
}

func (u *MenuUsecase) Get(ctx context.Context, id int64) (model.MenuItem, error) {
	if id <= 0 {
		return model.MenuItem{}, ErrNotFound
	}
	m, err := u.menus.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.MenuItem{}, ErrNotFound
	}
	if err != nil {
		return model.MenuItem{}, dbError(err)
	}
	return m, nil
}

// メニューを入れ替えたとき（seedなど）に呼ぶ
func (u *MenuUsecase) InvalidateCache(ctx context.Context) error {
	if u.cache == nil {
		return nil
	}
	return u.cache.Invalidate(ctx)
}

// キャッシュの失敗はDBにフォールバックする
func (u *MenuUsecase) cached(ctx context.Context, key string, load func() ([]model.MenuItem, error)) ([]model.MenuItem, error) {
	log := logging.FromCtx(ctx)

	if u.cache != nil {
		items, ok, err := u.cache.Get(ctx, key)
		if err != nil {
			log.Warn("menu cache get", "key", key, "err", err)
		} else if ok {
			return items, nil
		}
	}

	items, err := load()
	if err != nil {
		return []model.MenuItem{}, dbError(err)
	}

	if u.cache != nil {
		if err := u.cache.Set(ctx, key, items); err != nil {
			log.Warn("menu cache set", "key", key, "err", err)
		}
	}
	return items, nil
}
