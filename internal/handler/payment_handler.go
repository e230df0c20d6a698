package handler

import (
	"net/http"

	"ordering/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

// amount は表示していた金額（任意）。sessionId なしなら必須。
type CreatePaymentIntentRequest struct {
	SessionID    string           `json:"sessionId"`
	Amount       *decimal.Decimal `json:"amount"`
	CustomerInfo struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		OrderType string `json:"orderType"`
	} `json:"customerInfo"`
}

func (h *PaymentHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/payment-intent", h.createIntent)
	g.POST("/create-payment-intent", h.createIntent)
}

func (h *PaymentHandler) createIntent(c echo.Context) error {
	var req CreatePaymentIntentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.CreateIntent(c.Request().Context(), usecase.CreateIntentInput{
		SessionID:     req.SessionID,
		Amount:        req.Amount,
		CustomerName:  req.CustomerInfo.Name,
		CustomerEmail: req.CustomerInfo.Email,
		OrderType:     req.CustomerInfo.OrderType,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
