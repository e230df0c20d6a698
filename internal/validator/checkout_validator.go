package validator

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"ordering/internal/domain/model"
	"ordering/internal/usecase"
)

var (
	ErrInvalidName      = errors.New("customerName is required")
	ErrInvalidEmail     = errors.New("customerEmail is invalid")
	ErrInvalidPhone     = errors.New("customerPhone is invalid")
	ErrInvalidOrderType = errors.New("orderType must be delivery or pickup")
	ErrTooLong          = errors.New("field too long")
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[0-9+\-(). ]{7,25}$`)
)

type checkoutValidator struct{}

// Usecaseは interface を依存注入
func NewCheckoutValidator() usecase.CheckoutValidator {
	return &checkoutValidator{}
}

// 注文者情報を検証（アカウントはないのでここで受け取った値がすべて）
func (v *checkoutValidator) ValidateCustomer(ctx context.Context, in usecase.CustomerInfo) error {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	phone := strings.TrimSpace(in.Phone)

	// 必須チェック
	if name == "" {
		return ErrInvalidName
	}
	if len(name) > 255 || len(email) > 255 || len(in.DeliveryAddress) > 1000 || len(in.SpecialInstructions) > 1000 {
		return ErrTooLong
	}

	// email形式
	if !isEmailLike(email) {
		return ErrInvalidEmail
	}

	if !phoneRe.MatchString(phone) {
		return ErrInvalidPhone
	}

	// 空はdelivery扱い
	switch model.OrderType(strings.TrimSpace(in.OrderType)) {
	case "", model.OrderTypeDelivery, model.OrderTypePickup:
	default:
		return ErrInvalidOrderType
	}

	return nil
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
