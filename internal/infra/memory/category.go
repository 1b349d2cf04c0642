package memory

import (
	"context"
	"sort"
	"strings"

	"shopapi/internal/domain/model"
	repo "shopapi/internal/repository"
)

type CategoryRepository struct {
	b base
}

var _ repo.CategoryRepository = (*CategoryRepository)(nil)

func (r *CategoryRepository) List(_ context.Context, skip int, limit int) ([]model.Category, error) {
	var out []model.Category
	_ = r.b.read(func(st *state) error {
		for _, c := range st.categories {
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, skip, limit), nil
}

func (r *CategoryRepository) FindByID(_ context.Context, id int64) (model.Category, error) {
	var c model.Category
	err := r.b.read(func(st *state) error {
		found, ok := st.categories[id]
		if !ok {
			return repo.ErrNotFound
		}
		c = found
		return nil
	})
	return c, err
}

func (r *CategoryRepository) FindByName(_ context.Context, name string) (model.Category, error) {
	var c model.Category
	want := strings.ToLower(strings.TrimSpace(name))
	err := r.b.read(func(st *state) error {
		for _, found := range st.categories {
			if strings.ToLower(found.Name) == want {
				c = found
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return c, err
}

func (r *CategoryRepository) Create(_ context.Context, c model.Category) (model.Category, error) {
	err := r.b.write(func(st *state) error {
		if nameTaken(st, c.Name, 0) {
			return repo.ErrConflict
		}
		st.nextCategoryID++
		c.ID = st.nextCategoryID
		c.CreatedAt = r.b.s.now()
		st.categories[c.ID] = c
		return nil
	})
	if err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (r *CategoryRepository) Update(_ context.Context, id int64, u repo.CategoryUpdate) (model.Category, error) {
	var c model.Category
	err := r.b.write(func(st *state) error {
		found, ok := st.categories[id]
		if !ok {
			return repo.ErrNotFound
		}
		if u.Name != nil {
			if nameTaken(st, *u.Name, id) {
				return repo.ErrConflict
			}
			found.Name = *u.Name
		}
		if u.Description != nil {
			found.Description = *u.Description
		}
		st.categories[id] = found
		c = found
		return nil
	})
	return c, err
}

func (r *CategoryRepository) Delete(_ context.Context, id int64) error {
	return r.b.write(func(st *state) error {
		if _, ok := st.categories[id]; !ok {
			return repo.ErrNotFound
		}
		delete(st.categories, id)
		return nil
	})
}

// DBのunique indexと同じく完全一致で判定
func nameTaken(st *state, name string, exceptID int64) bool {
	for id, c := range st.categories {
		if id != exceptID && c.Name == name {
			return true
		}
	}
	return false
}
