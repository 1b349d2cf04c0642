package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

// リクエスト1件分を受け取る記録先
type RequestRecorder interface {
	Record(ctx context.Context, method string, route string, status int, elapsed time.Duration)
}

// ルートテンプレート単位でステータスと処理時間を記録する。
// エラーはここでerror handlerに通してから最終ステータスを読む
func RequestMetrics(rec RequestRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil && !c.Response().Committed {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			rec.Record(c.Request().Context(), c.Request().Method, route, c.Response().Status, time.Since(start))
			return err
		}
	}
}
