package usecase

import (
	"context"
	"strings"

	"ordering/internal/domain/pricing"
	"ordering/internal/logging"
	"ordering/internal/metrics"
	repo "ordering/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	DefaultMinChargeCents = 50
	restaurantName        = "International Kabab House"
)

// PaymentUsecase は決済インテントの作成。
// 金額はサーバー側で再計算したカート合計を使う。
type PaymentUsecase struct {
	processor      PaymentProcessor
	carts          repo.CartItemRepository
	policy         pricing.Policy
	minChargeCents int64
}

func NewPaymentUsecase(processor PaymentProcessor, carts repo.CartItemRepository, policy pricing.Policy, minChargeCents int64) *PaymentUsecase {
	if minChargeCents <= 0 {
		minChargeCents = DefaultMinChargeCents
	}
	return &PaymentUsecase{
		processor:      processor,
		carts:          carts,
		policy:         policy,
		minChargeCents: minChargeCents,
	}
}

type CreateIntentInput struct {
	SessionID string
	// クライアントが表示していた金額。あれば再計算結果と突き合わせる
	Amount        *decimal.Decimal
	CustomerName  string
	CustomerEmail string
	OrderType     string
}

type CreateIntentOutput struct {
	ClientSecret    string          `json:"clientSecret"`
	PaymentIntentID string          `json:"paymentIntentId"`
	Amount          decimal.Decimal `json:"amount"`
}

// CreateIntent は決済代行にインテントを作る。カートは変更しない。
// sessionId なし（旧クライアントの {amount} のみ）はその金額で作り、確定時に合計と照合する。
func (u *PaymentUsecase) CreateIntent(ctx context.Context, in CreateIntentInput) (CreateIntentOutput, error) {
	log := logging.FromCtx(ctx)

	var amount decimal.Decimal
	sessionID := strings.TrimSpace(in.SessionID)

	if sessionID != "" {
		if len(sessionID) > maxSessionIDLen {
			return CreateIntentOutput{}, badRequest(CodeInvalidSession, "invalid sessionId")
		}
		lines, err := u.carts.ListLinesBySession(ctx, sessionID)
		if err != nil {
			log.Error("payment intent: load cart", "session_id", sessionID, "err", err)
			return CreateIntentOutput{}, dbError(err)
		}
		totals, err := checkoutTotals(u.policy, lines)
		if err != nil {
			return CreateIntentOutput{}, err
		}
		if err := requireAvailable(lines); err != nil {
			return CreateIntentOutput{}, err
		}
		if in.Amount != nil && !in.Amount.Round(2).Equal(totals.Total) {
			log.Warn("payment intent: client amount differs from cart total",
				"session_id", sessionID, "client", in.Amount.String(), "server", totals.Total.String())
			return CreateIntentOutput{}, ErrAmountMismatch
		}
		amount = totals.Total
	} else {
		if in.Amount == nil {
			metrics.PaymentIntents.WithLabelValues("invalid_amount").Inc()
			return CreateIntentOutput{}, ErrInvalidAmount
		}
		amount = in.Amount.Round(2)
	}

	cents, err := pricing.ChargeCents(amount)
	if err != nil || cents < u.minChargeCents {
		metrics.PaymentIntents.WithLabelValues("invalid_amount").Inc()
		return CreateIntentOutput{}, ErrInvalidAmount
	}

	intent, err := u.processor.CreateIntent(ctx, cents, map[string]string{
		"restaurant":    restaurantName,
		"sessionId":     sessionID,
		"customerEmail": strings.TrimSpace(in.CustomerEmail),
		"customerName":  strings.TrimSpace(in.CustomerName),
		"orderType":     strings.TrimSpace(in.OrderType),
	})
	if err != nil {
		metrics.PaymentIntents.WithLabelValues("processor_error").Inc()
		log.Error("payment intent: processor", "amount_cents", cents, "err", err)
		return CreateIntentOutput{}, withCause(ErrPaymentProcessor, err)
	}

	metrics.PaymentIntents.WithLabelValues("created").Inc()
	return CreateIntentOutput{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          pricing.FromCents(cents),
	}, nil
}
