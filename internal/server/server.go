package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"shopapi/internal/handler"
	"shopapi/internal/middleware"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 10 * time.Second

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter // nilなら制限しない
	Logger         *slog.Logger
	Metrics        middleware.RequestRecorder // nilなら記録しない
}

// ミドルウェアとルートを組んだechoを返す
func New(h Handlers, opts Options) *echo.Echo {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	if opts.Metrics != nil {
		e.Use(middleware.RequestMetrics(opts.Metrics))
	}
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.ProcessTime())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: opts.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(echomw.Gzip())
	if opts.RateLimiter != nil {
		e.Use(opts.RateLimiter.Middleware())
	}

	RegisterRoutes(e, h, middleware.AuthJWT(opts.JWTSecret))
	return e
}

// ctxがキャンセルされるまで待ち受け、その後graceful shutdownする
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
