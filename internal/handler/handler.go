package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"shopapi/internal/domain/model"
	"shopapi/internal/middleware"
	repo "shopapi/internal/repository"
	"shopapi/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// usecaseのエラーをHTTPに変換
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//チェックアウトの失敗は400
	if usecase.IsCheckoutError(err) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if errors.Is(err, repo.ErrNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	}

	//500
	slog.ErrorContext(c.Request().Context(), "unhandled error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

func getViewer(c echo.Context) (usecase.Viewer, bool) {
	id, ok := getUserIDFromContext(c)
	if !ok {
		return usecase.Viewer{}, false
	}
	role, ok := c.Get(middleware.CtxUserRoleKey).(model.Role)
	if !ok {
		return usecase.Viewer{}, false
	}
	return usecase.Viewer{UserID: id, Role: role}, true
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// 無ければ0
func queryInt(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func queryInt64Ptr(c echo.Context, name string) (*int64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func queryDecimalPtr(c echo.Context, name string) (*decimal.Decimal, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func queryBoolPtr(c echo.Context, name string) (*bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func paging(c echo.Context) (int, int, error) {
	skip, err := queryInt(c, "skip")
	if err != nil {
		return 0, 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid skip")
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return 0, 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	return skip, limit, nil
}

// echo自身のエラー（ルート無し・405など）も同じ形で返す
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		_ = c.JSON(he.Code, ErrorResponse{Error: msg})
		return
	}
	_ = writeError(c, err)
}
