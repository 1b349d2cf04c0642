package usecase

import (
	"errors"
	"fmt"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// チェックアウトの失敗
var ErrEmptyCart = errors.New("cart is empty")

// カートにある商品がもう存在しない
type ProductMissingError struct {
	ProductID int64
}

func (e *ProductMissingError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// 在庫不足。Availableは判定した時点の在庫
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int64
	Requested   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s. available: %d, requested: %d", e.ProductName, e.Available, e.Requested)
}

// チェックアウト由来のエラーか
func IsCheckoutError(err error) bool {
	var missing *ProductMissingError
	var short *InsufficientStockError
	return errors.Is(err, ErrEmptyCart) || errors.As(err, &missing) || errors.As(err, &short)
}
