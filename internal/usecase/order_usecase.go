package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"shopapi/internal/domain/model"
	repo "shopapi/internal/repository"
)

// 誰が読んでいるか
type Viewer struct {
	UserID int64
	Role   model.Role
}

func (v Viewer) IsAdmin() bool { return v.Role == model.RoleAdmin }

type OrderUsecase struct {
	orders     repo.OrderRepository
	orderLines repo.OrderLineRepository
}

func NewOrderUsecase(orders repo.OrderRepository, orderLines repo.OrderLineRepository) *OrderUsecase {
	return &OrderUsecase{orders: orders, orderLines: orderLines}
}

// adminは全件、customerは自分の注文だけ
func (u *OrderUsecase) List(ctx context.Context, v Viewer, skip int, limit int) ([]model.Order, error) {
	if v.IsAdmin() {
		return u.ListAll(ctx, skip, limit)
	}
	skip, limit, err := normalizePage(skip, limit)
	if err != nil {
		return nil, err
	}
	orders, err := u.orders.ListByUserID(ctx, v.UserID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return u.hydrate(ctx, orders)
}

func (u *OrderUsecase) ListAll(ctx context.Context, skip int, limit int) ([]model.Order, error) {
	skip, limit, err := normalizePage(skip, limit)
	if err != nil {
		return nil, err
	}
	orders, err := u.orders.ListAll(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return u.hydrate(ctx, orders)
}

// 他人の注文は403
func (u *OrderUsecase) Get(ctx context.Context, v Viewer, orderID int64) (model.Order, error) {
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("find order: %w", err)
	}
	if !v.IsAdmin() && o.UserID != v.UserID {
		return model.Order{}, NewHTTPError(http.StatusForbidden, "not enough permissions to access this order")
	}

	lines, err := u.orderLines.ListByOrderID(ctx, o.ID)
	if err != nil {
		return model.Order{}, fmt.Errorf("load order lines: %w", err)
	}
	o.Lines = lines
	return o, nil
}

// どの状態からどの状態へも変更できる
func (u *OrderUsecase) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) (model.Order, error) {
	if status == "" {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "status is required")
	}
	if !status.Valid() {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	o, err := u.orders.UpdateStatus(ctx, orderID, status)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("update order status: %w", err)
	}

	lines, err := u.orderLines.ListByOrderID(ctx, o.ID)
	if err != nil {
		return model.Order{}, fmt.Errorf("load order lines: %w", err)
	}
	o.Lines = lines
	return o, nil
}

func (u *OrderUsecase) hydrate(ctx context.Context, orders []model.Order) ([]model.Order, error) {
	for i := range orders {
		lines, err := u.orderLines.ListByOrderID(ctx, orders[i].ID)
		if err != nil {
			return nil, fmt.Errorf("load order lines: %w", err)
		}
		orders[i].Lines = lines
	}
	return orders, nil
}
