package server

import (
	"shopapi/internal/handler"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Category     *handler.CategoryHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	AdminOrder   *handler.AdminOrderHandler
	Metrics      *handler.MetricsHandler // nilなら/metricsを出さない
}

func RegisterRoutes(e *echo.Echo, h Handlers, authn echo.MiddlewareFunc) {
	e.GET("/", handler.Root)
	e.GET("/health", handler.Health)
	if h.Metrics != nil {
		h.Metrics.RegisterRoutes(e)
	}

	h.Auth.RegisterRoutes(e, authn)
	h.Category.RegisterRoutes(e, authn)
	h.Product.RegisterRoutes(e)
	h.AdminProduct.RegisterRoutes(e, authn)
	h.Cart.RegisterRoutes(e, authn)

	//注文は全てログイン必須
	orders := e.Group("/orders", authn)
	h.Order.RegisterRoutes(orders)
	h.AdminOrder.RegisterRoutes(orders)
}
