package handler

import (
	"net/http"

	"shopapi/internal/domain/model"
	"shopapi/internal/middleware"
	"shopapi/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 管理者用の注文API
type AdminOrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewAdminOrderHandler(uc *usecase.OrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// gは認証済みの/ordersグループ
func (h *AdminOrderHandler) RegisterRoutes(g *echo.Group) {
	guard := middleware.AdminRoleGuard()

	g.GET("/all", h.listAll, guard)
	g.PUT("/:id/status", h.updateStatus, guard)
}

func (h *AdminOrderHandler) listAll(c echo.Context) error {
	skip, limit, err := paging(c)
	if err != nil {
		return writeError(c, err)
	}

	orders, err := h.uc.ListAll(c.Request().Context(), skip, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	o, err := h.uc.UpdateStatus(c.Request().Context(), id, model.OrderStatus(req.Status))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}
