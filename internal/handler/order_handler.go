package handler

import (
	"net/http"

	"shopapi/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /ordersのHTTP
type OrderHandler struct {
	orderUC    *usecase.OrderUsecase
	checkoutUC usecase.Checkouter
}

// DI
func NewOrderHandler(orderUC *usecase.OrderUsecase, checkoutUC usecase.Checkouter) *OrderHandler {
	return &OrderHandler{orderUC: orderUC, checkoutUC: checkoutUC}
}

// /ordersを登録
func (h *OrderHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.listOrders)
	g.GET("/:id", h.getOrder)
	g.POST("/checkout", h.checkout)
}

// customerは自分の注文だけ、adminは全件
func (h *OrderHandler) listOrders(c echo.Context) error {
	v, ok := getViewer(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	skip, limit, err := paging(c)
	if err != nil {
		return writeError(c, err)
	}

	orders, err := h.orderUC.List(c.Request().Context(), v, skip, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) getOrder(c echo.Context) error {
	v, ok := getViewer(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	o, err := h.orderUC.Get(c.Request().Context(), v, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// カートを注文に変える
func (h *OrderHandler) checkout(c echo.Context) error {
	v, ok := getViewer(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	if v.IsAdmin() {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "admins cannot checkout"})
	}

	o, err := h.checkoutUC.Checkout(c.Request().Context(), v.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, o)
}
