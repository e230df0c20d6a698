package db

import (
	"context"

	"ordering/internal/domain/model"
	"ordering/internal/repository"

	"github.com/shopspring/decimal"
)

// メニューが空のときだけ初期メニューを入れる
func SeedMenu(ctx context.Context, menus repository.MenuItemRepository) (int, error) {
	n, err := menus.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	items := defaultMenu()
	if err := menus.CreateBulk(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

func defaultMenu() []model.MenuItem {
	item := func(name, desc, price, category string) model.MenuItem {
		return model.MenuItem{
			Name:        name,
			Description: desc,
			Price:       decimal.RequireFromString(price),
			Category:    category,
			Available:   true,
		}
	}

	return []model.MenuItem{
		item("Chicken Kabab", "Tender marinated chicken grilled to perfection, served with basmati rice", "14.99", "Kabab Specialties"),
		item("Beef Kabab", "Juicy beef kabab with special spices, served with naan bread", "16.99", "Kabab Specialties"),
		item("Lamb Kabab", "Premium lamb kabab with aromatic herbs, served with vegetables", "18.99", "Kabab Specialties"),
		item("Mixed Kabab Platter", "Combination of chicken, beef, and lamb kababs with rice and salad", "22.99", "Kabab Specialties"),
		item("Seekh Kabab", "Spiced ground meat kabab grilled on skewers, served with chutney", "13.99", "Kabab Specialties"),
		item("Fish Kabab", "Fresh fish marinated in spices and grilled, served with lemon rice", "15.99", "Kabab Specialties"),
		item("Uzbeki Pulao", "Aromatic basmati rice layered with tender lamb, carrots, and traditional spices", "22.99", "Rice Dishes"),
		item("Afghani Manto", "Steamed dumplings filled with seasoned beef, topped with yogurt and lentil sauce", "18.99", "Appetizers"),
	}
}
