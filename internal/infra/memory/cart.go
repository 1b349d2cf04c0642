package memory

import (
	"context"
	"sort"

	"shopapi/internal/domain/model"
	repo "shopapi/internal/repository"
)

type CartRepository struct {
	b base
}

var _ repo.CartRepository = (*CartRepository)(nil)

func (r *CartRepository) ListByUserID(_ context.Context, userID int64) ([]model.CartLine, error) {
	lines := []model.CartLine{}
	_ = r.b.read(func(st *state) error {
		for k, l := range st.cart {
			if k.userID == userID {
				lines = append(lines, l)
			}
		}
		return nil
	})
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

func (r *CartRepository) AddOrMerge(_ context.Context, userID int64, productID int64, qty int64) (model.CartLine, error) {
	if qty <= 0 {
		return model.CartLine{}, repo.ErrInvalidQuantity
	}

	var line model.CartLine
	err := r.b.write(func(st *state) error {
		k := cartKey{userID: userID, productID: productID}
		now := r.b.s.now()
		found, ok := st.cart[k]
		if ok {
			found.Quantity += qty
			found.UpdatedAt = now
		} else {
			st.nextCartLineID++
			found = model.CartLine{
				ID:        st.nextCartLineID,
				UserID:    userID,
				ProductID: productID,
				Quantity:  qty,
				CreatedAt: now,
				UpdatedAt: now,
			}
		}
		st.cart[k] = found
		line = found
		return nil
	})
	return line, err
}

func (r *CartRepository) SetQuantity(_ context.Context, userID int64, productID int64, qty int64) (model.CartLine, error) {
	if qty <= 0 {
		return model.CartLine{}, repo.ErrInvalidQuantity
	}

	var line model.CartLine
	err := r.b.write(func(st *state) error {
		k := cartKey{userID: userID, productID: productID}
		found, ok := st.cart[k]
		if !ok {
			return repo.ErrNotFound
		}
		found.Quantity = qty
		found.UpdatedAt = r.b.s.now()
		st.cart[k] = found
		line = found
		return nil
	})
	return line, err
}

func (r *CartRepository) Remove(_ context.Context, userID int64, productID int64) (bool, error) {
	removed := false
	err := r.b.write(func(st *state) error {
		k := cartKey{userID: userID, productID: productID}
		if _, ok := st.cart[k]; ok {
			delete(st.cart, k)
			removed = true
		}
		return nil
	})
	return removed, err
}

func (r *CartRepository) Clear(_ context.Context, userID int64) error {
	return r.b.write(func(st *state) error {
		for k := range st.cart {
			if k.userID == userID {
				delete(st.cart, k)
			}
		}
		return nil
	})
}
