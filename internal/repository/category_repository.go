package repository

import (
	"context"

	"shopapi/internal/domain/model"
)

type CategoryUpdate struct {
	Name        *string
	Description *string
}

type CategoryRepository interface {
	List(ctx context.Context, skip int, limit int) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	// 大文字小文字を区別しない
	FindByName(ctx context.Context, name string) (model.Category, error)

	Create(ctx context.Context, c model.Category) (model.Category, error)
	Update(ctx context.Context, id int64, u CategoryUpdate) (model.Category, error)
	Delete(ctx context.Context, id int64) error
}
