package handler

import (
	"context"
	"net/http"

	"shopapi/internal/observability"

	"github.com/labstack/echo/v4"
)

type MetricsSource interface {
	Snapshot(ctx context.Context) (observability.MetricsSnapshot, error)
}

type MetricsHandler struct {
	src MetricsSource
}

func NewMetricsHandler(src MetricsSource) *MetricsHandler {
	return &MetricsHandler{src: src}
}

func (h *MetricsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/metrics", h.metrics)
}

func (h *MetricsHandler) metrics(c echo.Context) error {
	snap, err := h.src.Snapshot(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "metrics unavailable"})
	}
	return c.JSON(http.StatusOK, snap)
}
