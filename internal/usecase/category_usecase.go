package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"shopapi/internal/domain/model"
	repo "shopapi/internal/repository"
)

type CategoryUsecase struct {
	categoryRepo repo.CategoryRepository
	productRepo  repo.ProductRepository
}

func NewCategoryUsecase(categoryRepo repo.CategoryRepository, productRepo repo.ProductRepository) *CategoryUsecase {
	return &CategoryUsecase{categoryRepo: categoryRepo, productRepo: productRepo}
}

type CreateCategoryInput struct {
	Name        string
	Description string
}

func (u *CategoryUsecase) List(ctx context.Context, skip int, limit int) ([]model.Category, error) {
	skip, limit, err := normalizePage(skip, limit)
	if err != nil {
		return nil, err
	}
	items, err := u.categoryRepo.List(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

func (u *CategoryUsecase) Get(ctx context.Context, id int64) (model.Category, error) {
	c, err := u.categoryRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Category{}, NewHTTPError(http.StatusNotFound, "category not found")
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

func (u *CategoryUsecase) Create(ctx context.Context, in CreateCategoryInput) (model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 100 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	if err := u.ensureNameFree(ctx, name, 0); err != nil {
		return model.Category{}, err
	}

	c, err := u.categoryRepo.Create(ctx, model.Category{Name: name, Description: strings.TrimSpace(in.Description)})
	if errors.Is(err, repo.ErrConflict) {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "category name already exists")
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (u *CategoryUsecase) Update(ctx context.Context, id int64, in repo.CategoryUpdate) (model.Category, error) {
	if _, err := u.Get(ctx, id); err != nil {
		return model.Category{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > 100 {
			return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid name")
		}
		if err := u.ensureNameFree(ctx, name, id); err != nil {
			return model.Category{}, err
		}
		in.Name = &name
	}

	c, err := u.categoryRepo.Update(ctx, id, in)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return model.Category{}, NewHTTPError(http.StatusNotFound, "category not found")
	case errors.Is(err, repo.ErrConflict):
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "category name already exists")
	case err != nil:
		return model.Category{}, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// 商品が残っているカテゴリは消せない
func (u *CategoryUsecase) Delete(ctx context.Context, id int64) error {
	if _, err := u.Get(ctx, id); err != nil {
		return err
	}
	n, err := u.productRepo.CountByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		return NewHTTPError(http.StatusBadRequest, "cannot delete category with existing products")
	}

	err = u.categoryRepo.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "category not found")
	}
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// 大文字小文字は区別しない
func (u *CategoryUsecase) ensureNameFree(ctx context.Context, name string, selfID int64) error {
	existing, err := u.categoryRepo.FindByName(ctx, name)
	if err == nil && existing.ID != selfID {
		return NewHTTPError(http.StatusBadRequest, "category name already exists")
	}
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("find category by name: %w", err)
	}
	return nil
}
