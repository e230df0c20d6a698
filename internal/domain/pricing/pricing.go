// Package pricing は カート明細から小計・税・配送料・合計を計算する。
// I/Oなし。カート表示・決済インテント作成・注文確定のすべてで同じ関数を使う。
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// 決済代行が受け付ける1回の上限（$999,999.99）
const MaxChargeCents int64 = 99999999

var ErrAmountOutOfRange = errors.New("amount out of chargeable range")

var (
	DefaultTaxRate     = decimal.RequireFromString("0.08")
	DefaultDeliveryFee = decimal.RequireFromString("2.99")
)

var hundred = decimal.NewFromInt(100)

// 1明細ぶんの入力
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int64
}

// 計算結果（すべて小数2桁）
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
}

// 税率と配送料
type Policy struct {
	TaxRate     decimal.Decimal
	DeliveryFee decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{TaxRate: DefaultTaxRate, DeliveryFee: DefaultDeliveryFee}
}

// Compute は明細の順序に依存しない。
// 税はセント単位で四捨五入（half-up）。配送料は受け取り注文でも一律。
func (p Policy) Compute(lines []Line) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)))
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(p.TaxRate).Round(2)
	fee := p.DeliveryFee.Round(2)

	return Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: fee,
		Total:       subtotal.Add(tax).Add(fee),
	}
}

// 決済代行に渡す整数セント
func (t Totals) TotalCents() int64 {
	return ToCents(t.Total)
}

// 金額(ドル)→セント。端数はhalf-up。
// 上限チェックなし。外部入力は ChargeCents を通す。
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// ChargeCents は課金額をセントにする。int64 に収める前に範囲を確かめる。
func ChargeCents(amount decimal.Decimal) (int64, error) {
	c := amount.Mul(hundred).Round(0)
	if c.IsNegative() || c.GreaterThan(decimal.NewFromInt(MaxChargeCents)) {
		return 0, ErrAmountOutOfRange
	}
	return c.IntPart(), nil
}

// セント→金額(ドル)
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
