package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ordering/internal/usecase"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProcessor は usecase.PaymentProcessor の Stripe 実装。
type StripeProcessor struct {
	api      *client.API
	currency string
}

func NewStripeProcessor(secretKey, currency string) *StripeProcessor {
	return NewStripeProcessorWithBackends(secretKey, currency, nil)
}

// backends を差し替えるとテスト用サーバーに向けられる
func NewStripeProcessorWithBackends(secretKey, currency string, backends *stripe.Backends) *StripeProcessor {
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeProcessor{
		api:      client.New(secretKey, backends),
		currency: strings.ToLower(currency),
	}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, amountCents int64, metadata map[string]string) (usecase.PaymentIntent, error) {
	if amountCents <= 0 {
		return usecase.PaymentIntent{}, errors.New("amount must be positive")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(p.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	// ネットワーク再試行で二重にインテントを作らない
	params.SetIdempotencyKey(uuid.NewString())
	for k, v := range metadata {
		if v == "" {
			continue
		}
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return usecase.PaymentIntent{}, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func (p *StripeProcessor) GetIntent(ctx context.Context, intentID string) (usecase.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return usecase.PaymentIntent{}, fmt.Errorf("stripe retrieve payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripe.PaymentIntent) usecase.PaymentIntent {
	return usecase.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
	}
}

var _ usecase.PaymentProcessor = (*StripeProcessor)(nil)
