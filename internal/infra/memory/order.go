package memory

import (
	"context"
	"sort"

	"shopapi/internal/domain/model"
	repo "shopapi/internal/repository"

	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	b base
}

var _ repo.OrderRepository = (*OrderRepository)(nil)

func (r *OrderRepository) Create(_ context.Context, userID int64, total decimal.Decimal) (model.Order, error) {
	var o model.Order
	err := r.b.write(func(st *state) error {
		st.nextOrderID++
		o = model.Order{
			ID:         st.nextOrderID,
			UserID:     userID,
			TotalPrice: total,
			Status:     model.OrderStatusPending,
			CreatedAt:  r.b.s.now(),
		}
		st.orders[o.ID] = o
		return nil
	})
	return o, err
}

func (r *OrderRepository) FindByID(_ context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.b.read(func(st *state) error {
		found, ok := st.orders[orderID]
		if !ok {
			return repo.ErrNotFound
		}
		o = found
		return nil
	})
	return o, err
}

func (r *OrderRepository) ListByUserID(_ context.Context, userID int64, skip int, limit int) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.UserID == userID }, skip, limit), nil
}

func (r *OrderRepository) ListAll(_ context.Context, skip int, limit int) ([]model.Order, error) {
	return r.list(func(model.Order) bool { return true }, skip, limit), nil
}

// 新しい順
func (r *OrderRepository) list(keep func(model.Order) bool, skip int, limit int) []model.Order {
	out := []model.Order{}
	_ = r.b.read(func(st *state) error {
		for _, o := range st.orders {
			if keep(o) {
				out = append(out, o)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, skip, limit)
}

func (r *OrderRepository) UpdateStatus(_ context.Context, orderID int64, status model.OrderStatus) (model.Order, error) {
	var o model.Order
	err := r.b.write(func(st *state) error {
		found, ok := st.orders[orderID]
		if !ok {
			return repo.ErrNotFound
		}
		found.Status = status
		st.orders[orderID] = found
		o = found
		return nil
	})
	return o, err
}

type OrderLineRepository struct {
	b base
}

var _ repo.OrderLineRepository = (*OrderLineRepository)(nil)

func (r *OrderLineRepository) Create(_ context.Context, orderID int64, productID int64, qty int64, price decimal.Decimal) (model.OrderLine, error) {
	if qty <= 0 {
		return model.OrderLine{}, repo.ErrInvalidQuantity
	}

	var l model.OrderLine
	err := r.b.write(func(st *state) error {
		if _, ok := st.orders[orderID]; !ok {
			return repo.ErrNotFound
		}
		st.nextOrderLineID++
		l = model.OrderLine{
			ID:        st.nextOrderLineID,
			OrderID:   orderID,
			ProductID: productID,
			Quantity:  qty,
			Price:     price,
		}
		st.orderLines[l.ID] = l
		return nil
	})
	return l, err
}

func (r *OrderLineRepository) ListByOrderID(_ context.Context, orderID int64) ([]model.OrderLine, error) {
	lines := []model.OrderLine{}
	_ = r.b.read(func(st *state) error {
		for _, l := range st.orderLines {
			if l.OrderID == orderID {
				lines = append(lines, l)
			}
		}
		return nil
	})
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}
