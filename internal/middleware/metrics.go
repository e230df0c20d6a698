package middleware

import (
	"strconv"
	"time"

	"ordering/internal/metrics"

	"github.com/labstack/echo/v4"
)

// Metrics はルート単位でリクエスト数と処理時間を記録する。
// RequestLogger より外側に置く（ステータス確定後に数える）。
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			//ラベルが増えすぎないようにルートのパターンを使う
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			status := c.Response().Status

			metrics.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			metrics.HTTPDuration.WithLabelValues(method, path).Observe(float64(time.Since(start).Milliseconds()))
			return err
		}
	}
}
