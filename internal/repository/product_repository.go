package repository

import (
	"context"

	"shopapi/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 一覧検索
type ProductListQuery struct {
	Skip       int
	Limit      int
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    *bool
	Search     string
}

// nilでない項目だけ更新する
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int64
	CategoryID  *int64
}

func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil && u.Stock == nil && u.CategoryID == nil
}

// 商品の保存・取得だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	FindByName(ctx context.Context, name string) (model.Product, error)
	CountByCategory(ctx context.Context, categoryID int64) (int64, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, id int64, u ProductUpdate) (model.Product, error)
	Delete(ctx context.Context, id int64) error
}
