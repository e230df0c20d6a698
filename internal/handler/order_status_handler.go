package handler

import (
	"net/http"

	"ordering/internal/usecase"

	"github.com/labstack/echo/v4"
)

// スタッフが注文の進捗を更新する
type OrderStatusHandler struct {
	uc *usecase.OrderStatusUsecase
}

func NewOrderStatusHandler(uc *usecase.OrderStatusUsecase) *OrderStatusHandler {
	return &OrderStatusHandler{uc: uc}
}

type UpdateOrderStatusRequest struct {
	OrderID       int64  `json:"orderId"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	EstimatedTime string `json:"estimatedTime"`
}

func (h *OrderStatusHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/order-status", h.update)
	g.GET("/order-status/:orderId", h.history)
	g.GET("/order-status/:orderId/latest", h.latest)
}

func (h *OrderStatusHandler) update(c echo.Context) error {
	var req UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), usecase.UpdateOrderStatusInput{
		OrderID:       req.OrderID,
		Status:        req.Status,
		Message:       req.Message,
		EstimatedTime: req.EstimatedTime,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderStatusHandler) history(c echo.Context) error {
	orderID, ok := paramID(c, "orderId")
	if !ok {
		return badRequest(c, "invalid orderId")
	}

	out, err := h.uc.History(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderStatusHandler) latest(c echo.Context) error {
	orderID, ok := paramID(c, "orderId")
	if !ok {
		return badRequest(c, "invalid orderId")
	}

	out, err := h.uc.Latest(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
