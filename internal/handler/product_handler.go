package handler

import (
	"net/http"
	"strings"

	"shopapi/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)
	e.GET("/products/categories/:category_id/products", h.listByCategory)
}

func (h *ProductHandler) list(c echo.Context) error {
	skip, limit, err := paging(c)
	if err != nil {
		return writeError(c, err)
	}

	in := usecase.ProductListInput{
		Skip:   skip,
		Limit:  limit,
		Search: strings.TrimSpace(c.QueryParam("search")),
	}
	if in.CategoryID, err = queryInt64Ptr(c, "category_id"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid category_id"})
	}
	if in.MinPrice, err = queryDecimalPtr(c, "min_price"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid min_price"})
	}
	if in.MaxPrice, err = queryDecimalPtr(c, "max_price"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid max_price"})
	}
	if in.InStock, err = queryBoolPtr(c, "in_stock"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid in_stock"})
	}

	items, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	p, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) listByCategory(c echo.Context) error {
	categoryID, ok := pathID(c, "category_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid category_id"})
	}
	skip, limit, err := paging(c)
	if err != nil {
		return writeError(c, err)
	}

	items, err := h.uc.ListByCategory(c.Request().Context(), categoryID, skip, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
