package middleware

import (
	"time"

	"ordering/internal/logging"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestLogger はリクエストIDを振って、リクエスト単位のロガーをcontextに載せる。
// 400以上はerrorで出す。
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			//X-Request-Idは来ていればそのまま使う
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			l := logging.Base().With("request_id", rid, "method", req.Method, "path", req.URL.Path)
			c.SetRequest(req.WithContext(logging.WithCtx(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				//echoのエラーハンドラでステータスを確定させる
				c.Error(err)
			}

			status := c.Response().Status
			attrs := []any{"status", status, "duration_ms", time.Since(start).Milliseconds()}
			if err != nil {
				attrs = append(attrs, "err", err)
			}
			if status >= 400 {
				l.Error("request", attrs...)
			} else {
				l.Info("request", attrs...)
			}
			return nil
		}
	}
}
