package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError はusecaseが返すエラー。
// Code はクライアントが分岐に使う固定の識別子、Err はログ用の原因（レスポンスには出さない）。
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %s: %v", e.Status, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// errors.Is(err, ErrEmptyCart) はCodeで一致させる
func (e *HTTPError) Is(target error) bool {
	t, ok := target.(*HTTPError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

const (
	CodeInvalidQuantity         = "invalid_quantity"
	CodeNotFound                = "not_found"
	CodeEmptyCart               = "empty_cart"
	CodeInvalidAmount           = "invalid_amount"
	CodePaymentProcessor        = "payment_processor_error"
	CodePersistence             = "persistence_error"
	CodeDuplicateOrder          = "duplicate_order"
	CodeAmountMismatch          = "amount_mismatch"
	CodePaymentIncomplete       = "payment_incomplete"
	CodeInvalidRequest          = "invalid_request"
	CodeInvalidSession          = "invalid_session"
	CodeInvalidCustomer         = "invalid_customer"
	CodeInvalidPaymentReference = "invalid_payment_reference"
	CodeItemUnavailable         = "item_unavailable"
	CodeInvalidStatus           = "invalid_status"
	CodeInvalidTransition       = "invalid_transition"
)

var (
	ErrInvalidQuantity   = &HTTPError{Status: http.StatusBadRequest, Code: CodeInvalidQuantity, Message: "quantity must be at least 1"}
	ErrNotFound          = &HTTPError{Status: http.StatusNotFound, Code: CodeNotFound, Message: "not found"}
	ErrEmptyCart         = &HTTPError{Status: http.StatusBadRequest, Code: CodeEmptyCart, Message: "cart is empty"}
	ErrInvalidAmount     = &HTTPError{Status: http.StatusBadRequest, Code: CodeInvalidAmount, Message: "invalid amount"}
	ErrPaymentProcessor  = &HTTPError{Status: http.StatusBadGateway, Code: CodePaymentProcessor, Message: "payment processing failed"}
	ErrPersistence       = &HTTPError{Status: http.StatusInternalServerError, Code: CodePersistence, Message: "db error"}
	ErrDuplicateOrder    = &HTTPError{Status: http.StatusConflict, Code: CodeDuplicateOrder, Message: "order already placed for this payment"}
	ErrAmountMismatch    = &HTTPError{Status: http.StatusConflict, Code: CodeAmountMismatch, Message: "amount does not match cart total"}
	ErrPaymentIncomplete = &HTTPError{Status: http.StatusPaymentRequired, Code: CodePaymentIncomplete, Message: "payment not completed"}
	ErrItemUnavailable   = &HTTPError{Status: http.StatusBadRequest, Code: CodeItemUnavailable, Message: "menu item is not available"}
)

func NewHTTPError(status int, code, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 原因付きのコピーを返す（sentinel自体は書き換えない）
func withCause(base *HTTPError, cause error) error {
	e := *base
	e.Err = cause
	return &e
}

func dbError(cause error) error {
	return withCause(ErrPersistence, cause)
}

func badRequest(code, message string) error {
	return NewHTTPError(http.StatusBadRequest, code, message)
}
