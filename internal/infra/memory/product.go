package memory

import (
	"context"
	"sort"
	"strings"

	"shopapi/internal/domain/model"
	repo "shopapi/internal/repository"
)

type ProductRepository struct {
	b base
}

var _ repo.ProductRepository = (*ProductRepository)(nil)

func (r *ProductRepository) List(_ context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	var out []model.Product
	search := strings.ToLower(strings.TrimSpace(q.Search))

	err := r.b.read(func(st *state) error {
		for _, p := range st.products {
			if q.CategoryID != nil && p.CategoryID != *q.CategoryID {
				continue
			}
			if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
				continue
			}
			if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
				continue
			}
			if q.InStock != nil && (p.Stock > 0) != *q.InStock {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(p.Name), search) &&
				!strings.Contains(strings.ToLower(p.Description), search) {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return []model.Product{}, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, q.Skip, q.Limit), nil
}

func (r *ProductRepository) FindByID(_ context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.b.read(func(st *state) error {
		found, ok := st.products[id]
		if !ok {
			return repo.ErrNotFound
		}
		p = found
		return nil
	})
	return p, err
}

func (r *ProductRepository) FindByName(_ context.Context, name string) (model.Product, error) {
	var p model.Product
	err := r.b.read(func(st *state) error {
		for _, found := range st.products {
			if found.Name == name {
				p = found
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return p, err
}

func (r *ProductRepository) CountByCategory(_ context.Context, categoryID int64) (int64, error) {
	var n int64
	err := r.b.read(func(st *state) error {
		for _, p := range st.products {
			if p.CategoryID == categoryID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *ProductRepository) Create(_ context.Context, p model.Product) (model.Product, error) {
	err := r.b.write(func(st *state) error {
		st.nextProductID++
		p.ID = st.nextProductID
		now := r.b.s.now()
		p.CreatedAt = now
		p.UpdatedAt = now
		st.products[p.ID] = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductRepository) Update(_ context.Context, id int64, u repo.ProductUpdate) (model.Product, error) {
	var p model.Product
	err := r.b.write(func(st *state) error {
		found, ok := st.products[id]
		if !ok {
			return repo.ErrNotFound
		}
		if u.Name != nil {
			found.Name = *u.Name
		}
		if u.Description != nil {
			found.Description = *u.Description
		}
		if u.Price != nil {
			found.Price = *u.Price
		}
		if u.Stock != nil {
			found.Stock = *u.Stock
		}
		if u.CategoryID != nil {
			found.CategoryID = *u.CategoryID
		}
		if !u.Empty() {
			found.UpdatedAt = r.b.s.now()
		}
		st.products[id] = found
		p = found
		return nil
	})
	return p, err
}

func (r *ProductRepository) Delete(_ context.Context, id int64) error {
	return r.b.write(func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return repo.ErrNotFound
		}
		delete(st.products, id)
		return nil
	})
}

type InventoryRepository struct {
	b base
}

var _ repo.InventoryRepository = (*InventoryRepository)(nil)

func (r *InventoryRepository) Get(ctx context.Context, productID int64) (model.Product, error) {
	return (&ProductRepository{r.b}).FindByID(ctx, productID)
}

// 判定と減算を同じロックの中で行う
func (r *InventoryRepository) DecrementStock(_ context.Context, productID int64, amount int64) (model.Product, error) {
	if amount <= 0 {
		return model.Product{}, repo.ErrInvalidQuantity
	}

	var p model.Product
	err := r.b.write(func(st *state) error {
		found, ok := st.products[productID]
		if !ok {
			return repo.ErrNotFound
		}
		p = found
		if found.Stock < amount {
			return repo.ErrInsufficientStock
		}
		found.Stock -= amount
		found.UpdatedAt = r.b.s.now()
		st.products[productID] = found
		p = found
		return nil
	})
	return p, err
}
