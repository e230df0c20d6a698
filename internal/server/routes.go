package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 各ハンドラはグループにルートを登録する
type RouteRegistrar interface {
	RegisterRoutes(g *echo.Group)
}

// RegisterRoutes はJSONのルートを "/" と "/api" の両方に載せる。
func RegisterRoutes(e *echo.Echo, handlers ...RouteRegistrar) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	for _, prefix := range []string{"", "/api"} {
		g := e.Group(prefix)
		for _, h := range handlers {
			h.RegisterRoutes(g)
		}
	}
}
