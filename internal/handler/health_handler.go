package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const apiVersion = "1.0.0"

func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Welcome to E-commerce API",
		"version": apiVersion,
	})
}

func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
