package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"shopapi/internal/domain/model"
	repo "shopapi/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	maxPrice = decimal.NewFromInt(1_000_000)
	maxStock = int64(1_000_000)
)

type ProductUsecase struct {
	productRepo  repo.ProductRepository
	categoryRepo repo.CategoryRepository
}

func NewProductUsecase(productRepo repo.ProductRepository, categoryRepo repo.CategoryRepository) *ProductUsecase {
	return &ProductUsecase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

type ProductListInput struct {
	Skip       int
	Limit      int
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    *bool
	Search     string
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int64
	CategoryID  int64
}

func (u *ProductUsecase) List(ctx context.Context, in ProductListInput) ([]model.Product, error) {
	skip, limit, err := normalizePage(in.Skip, in.Limit)
	if err != nil {
		return nil, err
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid min_price")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid max_price")
	}

	items, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Skip:       skip,
		Limit:      limit,
		CategoryID: in.CategoryID,
		MinPrice:   in.MinPrice,
		MaxPrice:   in.MaxPrice,
		InStock:    in.InStock,
		Search:     in.Search,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return items, nil
}

// カテゴリ別の一覧。カテゴリが無ければ404
func (u *ProductUsecase) ListByCategory(ctx context.Context, categoryID int64, skip int, limit int) ([]model.Product, error) {
	if err := u.ensureCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return u.List(ctx, ProductListInput{Skip: skip, Limit: limit, CategoryID: &categoryID})
}

func (u *ProductUsecase) Get(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := u.productRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

func (u *ProductUsecase) Create(ctx context.Context, in CreateProductInput) (model.Product, error) {
	name := strings.TrimSpace(in.Name)
	if err := validateProductFields(&name, &in.Price, &in.Stock); err != nil {
		return model.Product{}, err
	}
	if err := u.ensureCategory(ctx, in.CategoryID); err != nil {
		return model.Product{}, err
	}
	if err := u.ensureNameFree(ctx, name); err != nil {
		return model.Product{}, err
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
	})
	if err != nil {
		return model.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (u *ProductUsecase) Update(ctx context.Context, id int64, in repo.ProductUpdate) (model.Product, error) {
	existing, err := u.Get(ctx, id)
	if err != nil {
		return model.Product{}, err
	}

	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if err := validateProductFields(in.Name, in.Price, in.Stock); err != nil {
		return model.Product{}, err
	}
	if in.CategoryID != nil {
		if err := u.ensureCategory(ctx, *in.CategoryID); err != nil {
			return model.Product{}, err
		}
	}
	if in.Name != nil && *in.Name != existing.Name {
		if err := u.ensureNameFree(ctx, *in.Name); err != nil {
			return model.Product{}, err
		}
	}

	p, err := u.productRepo.Update(ctx, id, in)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func (u *ProductUsecase) Delete(ctx context.Context, id int64) error {
	err := u.productRepo.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (u *ProductUsecase) ensureCategory(ctx context.Context, categoryID int64) error {
	if categoryID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid category_id")
	}
	_, err := u.categoryRepo.FindByID(ctx, categoryID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "category not found")
	}
	if err != nil {
		return fmt.Errorf("find category: %w", err)
	}
	return nil
}

func (u *ProductUsecase) ensureNameFree(ctx context.Context, name string) error {
	_, err := u.productRepo.FindByName(ctx, name)
	if err == nil {
		return NewHTTPError(http.StatusBadRequest, "product with this name already exists")
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("find product by name: %w", err)
	}
	return nil
}

// nilの項目は検査しない
func validateProductFields(name *string, price *decimal.Decimal, stock *int64) error {
	if name != nil && (*name == "" || len(*name) > 255) {
		return NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	if price != nil && (price.IsNegative() || price.GreaterThan(maxPrice)) {
		return NewHTTPError(http.StatusBadRequest, "invalid price")
	}
	if stock != nil && (*stock < 0 || *stock > maxStock) {
		return NewHTTPError(http.StatusBadRequest, "invalid stock")
	}
	return nil
}
