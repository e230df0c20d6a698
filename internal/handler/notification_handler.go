package handler

import (
	"net/http"
	"strconv"
	"strings"

	"ordering/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 店舗向け通知フィードとお問い合わせ
type NotificationHandler struct {
	uc *usecase.NotificationUsecase
	ws echo.HandlerFunc
}

// ws は websocket のハンドラ（nil ならルートを作らない）
func NewNotificationHandler(uc *usecase.NotificationUsecase, ws echo.HandlerFunc) *NotificationHandler {
	return &NotificationHandler{uc: uc, ws: ws}
}

type ContactRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Message   string `json:"message"`
}

type MarkReadResponse struct {
	Success bool `json:"success"`
}

func (h *NotificationHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/notifications", h.feed)
	g.GET("/notifications/restaurant", h.feed)
	g.PATCH("/notifications/:id/read", h.markRead)
	g.POST("/contact", h.contact)
	if h.ws != nil {
		g.GET("/ws/notifications", h.ws)
	}
}

func (h *NotificationHandler) feed(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		limit = l
	}

	out, err := h.uc.RestaurantFeed(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *NotificationHandler) markRead(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	if err := h.uc.MarkRead(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MarkReadResponse{Success: true})
}

func (h *NotificationHandler) contact(c echo.Context) error {
	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	n, err := h.uc.NotifyCustomerMessage(c.Request().Context(), usecase.CustomerMessageInput{
		Name:    strings.TrimSpace(req.FirstName + " " + req.LastName),
		Email:   req.Email,
		Subject: req.Message,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, n)
}
