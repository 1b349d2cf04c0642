package repository

import (
	"context"

	"shopapi/internal/domain/model"

	"github.com/shopspring/decimal"
)

type OrderRepository interface {
	// pendingで作成
	Create(ctx context.Context, userID int64, total decimal.Decimal) (model.Order, error)
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, skip int, limit int) ([]model.Order, error)
	ListAll(ctx context.Context, skip int, limit int) ([]model.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) (model.Order, error)
}

type OrderLineRepository interface {
	Create(ctx context.Context, orderID int64, productID int64, qty int64, price decimal.Decimal) (model.OrderLine, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderLine, error)
}
