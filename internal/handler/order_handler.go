package handler

import (
	"net/http"

	"ordering/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type CustomerInfoRequest struct {
	Name                string `json:"name"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	OrderType           string `json:"orderType"`
	DeliveryAddress     string `json:"deliveryAddress"`
	SpecialInstructions string `json:"specialInstructions"`
}

// 決済完了後に送られてくる確定リクエスト
type OrderCreateRequest struct {
	SessionID       string              `json:"sessionId"`
	PaymentIntentID string              `json:"paymentIntentId"`
	CustomerInfo    CustomerInfoRequest `json:"customerInfo"`
}

func (h *OrderHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/orders", h.create)
	g.GET("/orders/:id", h.detail)
}

func (h *OrderHandler) create(c echo.Context) error {
	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.FinalizeOrder(c.Request().Context(), usecase.FinalizeOrderInput{
		SessionID:       req.SessionID,
		PaymentIntentID: req.PaymentIntentID,
		Customer: usecase.CustomerInfo{
			Name:                req.CustomerInfo.Name,
			Email:               req.CustomerInfo.Email,
			Phone:               req.CustomerInfo.Phone,
			OrderType:           req.CustomerInfo.OrderType,
			DeliveryAddress:     req.CustomerInfo.DeliveryAddress,
			SpecialInstructions: req.CustomerInfo.SpecialInstructions,
		},
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	orderID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.GetOrder(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
