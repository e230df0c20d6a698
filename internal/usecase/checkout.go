package usecase

import (
	"ordering/internal/domain/model"
	"ordering/internal/domain/pricing"
)

func pricingLines(lines []model.CartLine) []pricing.Line {
	out := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, pricing.Line{UnitPrice: l.MenuItem.Price, Quantity: l.Quantity})
	}
	return out
}

// 会計用の合計。カート表示と同じ計算を通す。
// 確定時にも使うので、ここでは空カートだけを弾く。
func checkoutTotals(policy pricing.Policy, lines []model.CartLine) (pricing.Totals, error) {
	if len(lines) == 0 {
		return pricing.Totals{}, ErrEmptyCart
	}
	return policy.Compute(pricingLines(lines)), nil
}

// 販売停止チェックは課金前（インテント作成時）だけ。
// 支払い済みの確定を止めると、課金済みで注文なしになる。
func requireAvailable(lines []model.CartLine) error {
	for _, l := range lines {
		if !l.MenuItem.Available {
			return ErrItemUnavailable
		}
	}
	return nil
}
