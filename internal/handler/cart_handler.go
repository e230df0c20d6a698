package handler

import (
	"net/http"

	"ordering/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP。セッションIDはクライアントが生成して持ち回る。
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	SessionID  string `json:"sessionId"`
	MenuItemID int64  `json:"menuItemId"`
	Quantity   *int64 `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

type RemoveCartItemResponse struct {
	Removed bool `json:"removed"`
}

type ClearCartResponse struct {
	Removed int64 `json:"removed"`
}

func (h *CartHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/cart", h.getCart)
	g.GET("/cart/:sessionId", h.getCartBySession)
	g.POST("/cart", h.addToCart)
	g.PATCH("/cart/:id", h.patchItem)
	g.DELETE("/cart/:id", h.deleteItem)
	g.DELETE("/cart/session/:sessionId", h.clearSession)
}

// GET /cart?sessionId=
func (h *CartHandler) getCart(c echo.Context) error {
	out, err := h.uc.ListItems(c.Request().Context(), c.QueryParam("sessionId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) getCartBySession(c echo.Context) error {
	out, err := h.uc.ListItems(c.Request().Context(), c.Param("sessionId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	//quantity省略時は1
	qty := int64(1)
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	item, err := h.uc.AddItem(c.Request().Context(), usecase.AddCartInput{
		SessionID:  req.SessionID,
		MenuItemID: req.MenuItemID,
		Quantity:   qty,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	itemID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	item, err := h.uc.UpdateQuantity(c.Request().Context(), itemID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	itemID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	removed, err := h.uc.RemoveItem(c.Request().Context(), itemID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, RemoveCartItemResponse{Removed: removed})
}

func (h *CartHandler) clearSession(c echo.Context) error {
	n, err := h.uc.Clear(c.Request().Context(), c.Param("sessionId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ClearCartResponse{Removed: n})
}
